package documents

import (
	"context"
	"fmt"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/core/tx"
	"salesdocs/pkg/logger"
)

// LinkRequest links two documents to each other.
type LinkRequest struct {
	SourceKind   numerator.Kind `json:"sourceKind"`
	SourceNumber string         `json:"sourceNumber"`
	TargetKind   numerator.Kind `json:"targetKind"`
	TargetNumber string         `json:"targetNumber"`
}

func (r LinkRequest) validate() error {
	if r.SourceKind == r.TargetKind {
		return apperror.NewValidation("cannot link documents of the same kind").
			WithDetail("field", "targetKind")
	}
	for _, side := range []struct {
		field  string
		kind   numerator.Kind
		number string
	}{
		{"sourceNumber", r.SourceKind, r.SourceNumber},
		{"targetNumber", r.TargetKind, r.TargetNumber},
	} {
		n, err := numerator.Parse(side.number)
		if err != nil {
			return err
		}
		if n.Kind != side.kind {
			return apperror.NewValidation(fmt.Sprintf("%s is not a %s number", side.number, side.kind)).
				WithDetail("field", side.field)
		}
	}
	return nil
}

// LinkedDocuments is a document with its linked siblings by kind.
type LinkedDocuments struct {
	Document *Document                    `json:"document"`
	Linked   map[numerator.Kind]*Document `json:"linked"`
}

// Linker maintains the bidirectional links between sibling documents.
type Linker struct {
	repo      Repository
	txManager tx.Manager
}

// NewLinker creates a Linker.
func NewLinker(repo Repository, txManager tx.Manager) *Linker {
	return &Linker{repo: repo, txManager: txManager}
}

// Link records each document's number on the other. Linking twice changes
// nothing. Linking a quotation to an invoice marks the quotation converted.
func (l *Linker) Link(ctx context.Context, req LinkRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := l.addLink(ctx, req.SourceKind, req.SourceNumber, req.TargetKind, req.TargetNumber); err != nil {
			return err
		}
		if err := l.addLink(ctx, req.TargetKind, req.TargetNumber, req.SourceKind, req.SourceNumber); err != nil {
			return err
		}

		if quotation, ok := convertedQuotation(req); ok {
			if err := l.repo.SetStatus(ctx, numerator.KindQuotation, quotation, StatusConverted); err != nil {
				return fmt.Errorf("mark quotation converted: %w", err)
			}
		}
		return nil
	})
}

func (l *Linker) addLink(ctx context.Context, kind numerator.Kind, number string, linkedKind numerator.Kind, linkedNumber string) error {
	found, err := l.repo.AddLink(ctx, kind, number, linkedKind, linkedNumber)
	if err != nil {
		return fmt.Errorf("link %s to %s: %w", number, linkedNumber, err)
	}
	if !found {
		def, _ := Lookup(kind)
		return apperror.NewNotFound(def.Title, number)
	}
	return nil
}

func convertedQuotation(req LinkRequest) (string, bool) {
	switch {
	case req.SourceKind == numerator.KindQuotation && req.TargetKind == numerator.KindInvoice:
		return req.SourceNumber, true
	case req.SourceKind == numerator.KindInvoice && req.TargetKind == numerator.KindQuotation:
		return req.TargetNumber, true
	}
	return "", false
}

// Siblings loads the documents linked from doc. Dangling links are skipped.
func (l *Linker) Siblings(ctx context.Context, doc *Document) (*LinkedDocuments, error) {
	out := &LinkedDocuments{Document: doc, Linked: make(map[numerator.Kind]*Document, len(doc.Links))}
	for k, number := range doc.Links {
		kind := numerator.Kind(k)
		if !kind.Valid() || number == "" {
			continue
		}
		sibling, err := l.repo.GetByNumber(ctx, kind, number)
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "linked document not found", "number", doc.Number, "linked_number", number)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load linked %s: %w", number, err)
		}
		out.Linked[kind] = sibling
	}
	return out, nil
}
