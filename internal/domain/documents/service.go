package documents

import (
	"context"
	"fmt"

	"salesdocs/internal/core/apperror"
	appctx "salesdocs/internal/core/context"
	"salesdocs/internal/core/idempotency"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/core/tx"
	"salesdocs/internal/domain"
	"salesdocs/pkg/logger"
)

// ServiceConfig configures the document service.
type ServiceConfig struct {
	Repo      Repository
	Numbers   numerator.Generator
	TxManager tx.Manager
	// Audit is optional.
	Audit AuditLogger
	// PersistAttempts bounds number redraws on a persist-time collision.
	PersistAttempts int
}

// Service creates and reads documents.
type Service struct {
	repo      Repository
	txManager tx.Manager
	audit     AuditLogger
	guard     *idempotency.Guard[*Document]
	linker    *Linker
	hooks     *domain.HookRegistry[*Document]
}

// NewService creates a document service.
func NewService(cfg ServiceConfig) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Direct{}
	}
	return &Service{
		repo:      cfg.Repo,
		txManager: txm,
		audit:     cfg.Audit,
		guard:     idempotency.NewGuard[*Document](cfg.Numbers, cfg.PersistAttempts),
		linker:    NewLinker(cfg.Repo, txm),
		hooks:     domain.NewHookRegistry[*Document](),
	}
}

// Hooks returns the hook registry. After-create hooks run once per newly
// created document, after commit.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// Create returns the existing document for a retried request or creates a
// new one. Result.Created tells the two apart.
func (s *Service) Create(ctx context.Context, req CreateRequest) (idempotency.Result[*Document], error) {
	var zero idempotency.Result[*Document]

	req.Normalize()
	if err := req.Validate(); err != nil {
		return zero, err
	}
	def, err := Lookup(req.Kind)
	if err != nil {
		return zero, err
	}
	if req.EmployeeName == "" {
		req.EmployeeName = appctx.GetUserName(ctx)
	}
	createdBy := appctx.GetUserID(ctx)

	creation := idempotency.Creation[*Document]{
		Kind:        req.Kind,
		Granularity: req.Granularity,
		ExplicitKey: req.IdempotencyKey,
		Fields:      req.keyFields(def.Label),
		FindByKey: func(ctx context.Context, key string) (*Document, bool, error) {
			return s.repo.FindByIdempotencyKey(ctx, req.Kind, key)
		},
		Persist: func(ctx context.Context, number, key string) (*Document, error) {
			doc := newDocument(req, number, key, createdBy)
			if err := s.persist(ctx, def, doc); err != nil {
				return nil, err
			}
			return doc, nil
		},
	}
	if def.NaturalKey != nil {
		if nk, ok := def.NaturalKey(req); ok {
			creation.FindByNaturalKey = func(ctx context.Context) (*Document, bool, error) {
				return s.repo.FindByNaturalKey(ctx, req.Kind, nk)
			}
		}
	}

	res, err := s.guard.CreateOnce(ctx, creation)
	if err != nil {
		return zero, err
	}
	doc := res.Document

	if !res.Created {
		logger.Info(ctx, "document already exists, returning original",
			"kind", doc.Kind, "number", doc.Number, "id", doc.ID)
		return res, nil
	}

	logger.Info(ctx, "document created",
		"kind", doc.Kind, "number", doc.Number, "id", doc.ID)

	if req.Kind != numerator.KindQuotation && req.QuotationNumber != "" {
		s.linkQuotation(ctx, doc, req.QuotationNumber)
	}

	if err := s.hooks.RunAfterCreate(ctx, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "number", doc.Number, "error", err)
	}

	return res, nil
}

func (s *Service) persist(ctx context.Context, def Definition, doc *Document) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create %s: %w", def.Label, err)
		}
		if s.audit != nil {
			if err := s.audit.LogCreated(ctx, def.Table, doc.ID, doc); err != nil {
				return fmt.Errorf("audit %s: %w", def.Label, err)
			}
		}
		return nil
	})
}

// linkQuotation links a new document to the quotation it was issued from.
// The document stands even when linking fails.
func (s *Service) linkQuotation(ctx context.Context, doc *Document, quotationNumber string) {
	err := s.linker.Link(ctx, LinkRequest{
		SourceKind:   numerator.KindQuotation,
		SourceNumber: quotationNumber,
		TargetKind:   doc.Kind,
		TargetNumber: doc.Number,
	})
	if err != nil {
		logger.Warn(ctx, "linking document to quotation failed",
			"number", doc.Number, "quotation_number", quotationNumber, "error", err)
		return
	}
	if doc.Links == nil {
		doc.Links = Links{}
	}
	doc.Links[string(numerator.KindQuotation)] = quotationNumber
	doc.Touch()
}

// GetByNumber returns the document of kind with number.
func (s *Service) GetByNumber(ctx context.Context, kind numerator.Kind, number string) (*Document, error) {
	n, err := numerator.Parse(number)
	if err != nil {
		return nil, err
	}
	if n.Kind != kind {
		def, _ := Lookup(kind)
		return nil, apperror.NewNotFound(def.Title, number)
	}
	return s.repo.GetByNumber(ctx, kind, number)
}

// Link links two existing documents to each other.
func (s *Service) Link(ctx context.Context, req LinkRequest) error {
	return s.linker.Link(ctx, req)
}

// Linked returns a document with its linked siblings.
func (s *Service) Linked(ctx context.Context, kind numerator.Kind, number string) (*LinkedDocuments, error) {
	doc, err := s.GetByNumber(ctx, kind, number)
	if err != nil {
		return nil, err
	}
	return s.linker.Siblings(ctx, doc)
}

// History returns the audit trail of a document. It is empty when auditing
// is disabled.
func (s *Service) History(ctx context.Context, kind numerator.Kind, number string) ([]AuditRecord, error) {
	doc, err := s.GetByNumber(ctx, kind, number)
	if err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []AuditRecord{}, nil
	}
	def, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	records, err := s.audit.History(ctx, def.Table, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("read audit of %s: %w", number, err)
	}
	return records, nil
}
