package documents

import (
	"context"
	"sync"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/id"
	"salesdocs/internal/core/numerator"
)

// memRepo is a Repository with the unique constraints of the real tables.
type memRepo struct {
	mu   sync.Mutex
	docs map[numerator.Kind][]*Document

	creates int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[numerator.Kind][]*Document)}
}

func clone(d *Document) *Document {
	c := *d
	c.Links = Links{}
	for k, v := range d.Links {
		c.Links[k] = v
	}
	return &c
}

func (r *memRepo) Create(_ context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs[doc.Kind] {
		if d.Number == doc.Number {
			return apperror.NewDuplicate("document", entity.ColumnNumber, doc.Number)
		}
		if doc.Key() != "" && d.Key() == doc.Key() {
			return apperror.NewDuplicate("document", entity.ColumnIdempotencyKey, doc.Key())
		}
	}
	r.creates++
	r.docs[doc.Kind] = append(r.docs[doc.Kind], clone(doc))
	return nil
}

func (r *memRepo) find(kind numerator.Kind, match func(*Document) bool) (*Document, bool) {
	docs := r.docs[kind]
	for i := len(docs) - 1; i >= 0; i-- {
		if match(docs[i]) {
			return docs[i], true
		}
	}
	return nil, false
}

func (r *memRepo) GetByNumber(_ context.Context, kind numerator.Kind, number string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.find(kind, func(d *Document) bool { return d.Number == number })
	if !ok {
		return nil, apperror.NewNotFound("document", number)
	}
	return clone(d), nil
}

func (r *memRepo) FindByIdempotencyKey(_ context.Context, kind numerator.Kind, key string) (*Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.find(kind, func(d *Document) bool { return d.Key() == key })
	if !ok {
		return nil, false, nil
	}
	return clone(d), true, nil
}

func (r *memRepo) FindByNaturalKey(_ context.Context, kind numerator.Kind, nk NaturalKey) (*Document, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.find(kind, func(d *Document) bool {
		return (nk.ContractNo == "" || d.ContractNo == nk.ContractNo) &&
			(nk.Subtype == "" || d.Subtype == nk.Subtype) &&
			(nk.QuotationNumber == "" || d.QuotationNumber == nk.QuotationNumber)
	})
	if !ok {
		return nil, false, nil
	}
	return clone(d), true, nil
}

func (r *memRepo) AddLink(_ context.Context, kind numerator.Kind, number string, linkedKind numerator.Kind, linkedNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.find(kind, func(d *Document) bool { return d.Number == number })
	if !ok {
		return false, nil
	}
	if d.Links == nil {
		d.Links = Links{}
	}
	if d.Links[string(linkedKind)] != linkedNumber {
		d.Links[string(linkedKind)] = linkedNumber
		d.Touch()
	}
	return true, nil
}

func (r *memRepo) SetStatus(_ context.Context, kind numerator.Kind, number string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.find(kind, func(d *Document) bool { return d.Number == number })
	if !ok {
		return apperror.NewNotFound("document", number)
	}
	d.Status = status
	return nil
}

type auditCall struct {
	entityType string
	entityID   id.ID
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
	err   error
}

func (a *recordingAudit) LogCreated(_ context.Context, entityType string, entityID id.ID, _ any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.calls = append(a.calls, auditCall{entityType: entityType, entityID: entityID})
	return nil
}

func (a *recordingAudit) History(_ context.Context, entityType string, entityID id.ID) ([]AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []AuditRecord{}
	for _, c := range a.calls {
		if c.entityType == entityType && c.entityID == entityID {
			out = append(out, AuditRecord{ID: id.New(), Action: "create"})
		}
	}
	return out, nil
}
