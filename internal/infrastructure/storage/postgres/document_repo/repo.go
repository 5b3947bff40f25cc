// Package document_repo provides the PostgreSQL repository for sales documents.
// All kinds share one row shape; each kind has its own table.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/domain/documents"
	"salesdocs/internal/infrastructure/storage/postgres"
)

var documentColumns = postgres.ExtractDBColumns[documents.Document]()

// Repo implements documents.Repository.
type Repo struct {
	txm    *postgres.TxManager
	tables map[numerator.Kind]string
}

// NewRepo creates a document repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm, tables: documents.Tables()}
}

func (r *Repo) table(kind numerator.Kind) (string, error) {
	t, ok := r.tables[kind]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("unknown document kind %q", kind))
	}
	return t, nil
}

// insertQuery builds the INSERT of doc into table.
func insertQuery(table string, doc *documents.Document) (string, []any, error) {
	data := postgres.StructToMap(doc)
	values := make(map[string]any, len(documentColumns))
	for _, col := range documentColumns {
		values[col] = data[col]
	}
	return postgres.Builder().Insert(table).SetMap(values).ToSql()
}

// Create inserts a document.
func (r *Repo) Create(ctx context.Context, doc *documents.Document) error {
	table, err := r.table(doc.Kind)
	if err != nil {
		return err
	}
	sql, args, err := insertQuery(table, doc)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if mapped := postgres.MapWriteError(table, err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func selectQuery(table string) squirrel.SelectBuilder {
	return postgres.Builder().Select(documentColumns...).From(table)
}

// getOne scans the single row of q, reporting found=false when absent.
func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*documents.Document, bool, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build query: %w", err)
	}
	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &doc, true, nil
}

// GetByNumber retrieves a document by number.
func (r *Repo) GetByNumber(ctx context.Context, kind numerator.Kind, number string) (*documents.Document, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	doc, found, err := r.getOne(ctx, selectQuery(table).Where(squirrel.Eq{entity.ColumnNumber: number}))
	if err != nil {
		return nil, fmt.Errorf("get by number: %w", err)
	}
	if !found {
		return nil, apperror.NewNotFound(table, number)
	}
	return doc, nil
}

// FindByIdempotencyKey looks a document up by its idempotency key.
func (r *Repo) FindByIdempotencyKey(ctx context.Context, kind numerator.Kind, key string) (*documents.Document, bool, error) {
	table, err := r.table(kind)
	if err != nil {
		return nil, false, err
	}
	doc, found, err := r.getOne(ctx, selectQuery(table).Where(squirrel.Eq{entity.ColumnIdempotencyKey: key}))
	if err != nil {
		return nil, false, fmt.Errorf("find by idempotency key: %w", err)
	}
	return doc, found, nil
}

// naturalKeyQuery selects the newest document matching key.
func naturalKeyQuery(table string, key documents.NaturalKey) squirrel.SelectBuilder {
	q := selectQuery(table)
	if key.ContractNo != "" {
		q = q.Where(squirrel.Eq{"contract_no": key.ContractNo})
	}
	if key.Subtype != "" {
		q = q.Where(squirrel.Eq{"subtype": key.Subtype})
	}
	if key.QuotationNumber != "" {
		q = q.Where(squirrel.Eq{"quotation_number": key.QuotationNumber})
	}
	return q.OrderBy("created_at DESC").Limit(1)
}

// FindByNaturalKey returns the most recently created match.
func (r *Repo) FindByNaturalKey(ctx context.Context, kind numerator.Kind, key documents.NaturalKey) (*documents.Document, bool, error) {
	if key == (documents.NaturalKey{}) {
		return nil, false, nil
	}
	table, err := r.table(kind)
	if err != nil {
		return nil, false, err
	}
	doc, found, err := r.getOne(ctx, naturalKeyQuery(table, key))
	if err != nil {
		return nil, false, fmt.Errorf("find by natural key: %w", err)
	}
	return doc, found, nil
}

// addLinkSQL merges one entry into links unless it is already present.
const addLinkSQL = `
	UPDATE %s
	SET links = COALESCE(links, '{}'::jsonb) || jsonb_build_object($1::text, $2::text),
	    version = version + 1,
	    updated_at = NOW()
	WHERE number = $3
	  AND NOT (COALESCE(links, '{}'::jsonb) @> jsonb_build_object($1::text, $2::text))`

// AddLink merges linkedKind -> linkedNumber into the links of a document.
func (r *Repo) AddLink(ctx context.Context, kind numerator.Kind, number string, linkedKind numerator.Kind, linkedNumber string) (bool, error) {
	table, err := r.table(kind)
	if err != nil {
		return false, err
	}
	q := r.txm.GetQuerier(ctx)
	tag, err := q.Exec(ctx, fmt.Sprintf(addLinkSQL, table), string(linkedKind), linkedNumber, number)
	if err != nil {
		return false, fmt.Errorf("add link to %s: %w", table, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	// Either absent or already linked.
	var exists bool
	existsSQL := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE number = $1)", table)
	if err := q.QueryRow(ctx, existsSQL, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return exists, nil
}

// SetStatus updates the status of a document.
func (r *Repo) SetStatus(ctx context.Context, kind numerator.Kind, number string, status documents.Status) error {
	table, err := r.table(kind)
	if err != nil {
		return err
	}
	sql, args, err := postgres.Builder().
		Update(table).
		Set("status", string(status)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{entity.ColumnNumber: number}).
		Where(squirrel.NotEq{"status": string(status)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set status on %s: %w", table, err)
	}
	return nil
}

var _ documents.Repository = (*Repo)(nil)
