package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "salesdocs/internal/core/context"
	"salesdocs/internal/core/id"
	"salesdocs/internal/domain/documents"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
)

// CompressionAlgo specifies how Changes is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the snapshot size above which zstd is used.
const defaultCompressThreshold = 4 * 1024

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	UserID            string          `db:"user_id"`
	RequestID         string          `db:"request_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

var auditColumns = ExtractDBColumns[AuditEntry]()

// AuditService writes sys_audit rows in the caller's transaction and reads
// them back decompressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates an audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// prepare fills defaults and compresses large snapshots.
func (s *AuditService) prepare(ctx context.Context, entry *AuditEntry) {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = appctx.GetRequestID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	s.prepare(ctx, &entry)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, request_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, string(entry.Action),
		entry.UserID, entry.RequestID,
		entry.Changes, entry.ChangesCompressed, string(entry.CompressionAlgo),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// LogCreated records the snapshot of a newly created entity.
func (s *AuditService) LogCreated(ctx context.Context, entityType string, entityID id.ID, snapshot any) error {
	changes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     AuditActionCreate,
		Changes:    changes,
	})
}

// Snapshot returns the decompressed changes of entry.
func (s *AuditService) Snapshot(entry AuditEntry) (json.RawMessage, error) {
	if entry.CompressionAlgo != CompressionZstd {
		return entry.Changes, nil
	}
	out, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress changes: %w", err)
	}
	return out, nil
}

func historyQuery(entityType string, entityID id.ID) (string, []any, error) {
	return Builder().Select(auditColumns...).From("sys_audit").
		Where(squirrel.Eq{"entity_type": entityType}).
		Where(squirrel.Eq{"entity_id": entityID}).
		OrderBy("created_at").
		ToSql()
}

// History returns the audit trail of an entity, oldest first.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID) ([]documents.AuditRecord, error) {
	sql, args, err := historyQuery(entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var entries []AuditEntry
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select audit: %w", err)
	}
	return s.records(entries)
}

func (s *AuditService) records(entries []AuditEntry) ([]documents.AuditRecord, error) {
	out := make([]documents.AuditRecord, 0, len(entries))
	for _, e := range entries {
		snapshot, err := s.Snapshot(e)
		if err != nil {
			return nil, fmt.Errorf("audit %s: %w", e.ID, err)
		}
		out = append(out, documents.AuditRecord{
			ID:        e.ID,
			Action:    string(e.Action),
			UserID:    e.UserID,
			RequestID: e.RequestID,
			Snapshot:  snapshot,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

var _ documents.AuditLogger = (*AuditService)(nil)
