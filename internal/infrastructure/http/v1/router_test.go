package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/core/apperror"
	appctx "salesdocs/internal/core/context"
	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/idempotency"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/domain/auth"
	"salesdocs/internal/domain/documents"
	"salesdocs/internal/infrastructure/http/v1/handlers"
	"salesdocs/pkg/logger"
)

// fakeDocuments keys documents by idempotency key, falling back to the
// customer name, and numbers them sequentially.
type fakeDocuments struct {
	mu       sync.Mutex
	byKey    map[string]*documents.Document
	byNumber map[string]*documents.Document
	links    []documents.LinkRequest
	lastUser string
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{byKey: map[string]*documents.Document{}, byNumber: map[string]*documents.Document{}}
}

func (f *fakeDocuments) Create(ctx context.Context, req documents.CreateRequest) (idempotency.Result[*documents.Document], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUser = appctx.GetUserID(ctx)

	if req.Customer.Name == "" {
		return idempotency.Result[*documents.Document]{}, apperror.NewValidation("customer name, tax id or phone is required")
	}
	key := req.IdempotencyKey
	if key == "" {
		key = string(req.Kind) + "|" + req.Customer.Name
	}
	if doc, ok := f.byKey[key]; ok {
		return idempotency.Result[*documents.Document]{Document: doc}, nil
	}
	number := numerator.FormatSequence(req.Kind, "680816", int64(len(f.byNumber)+1))
	doc := &documents.Document{
		Document: entity.NewDocument(number, key),
		Kind:     req.Kind,
		Status:   documents.StatusIssued,
		Customer: req.Customer,
		Items:    req.Items,
		Subtotal: req.Summary.Subtotal,
		Total:    req.Summary.Total,
	}
	f.byKey[key] = doc
	f.byNumber[number] = doc
	return idempotency.Result[*documents.Document]{Document: doc, Created: true}, nil
}

func (f *fakeDocuments) GetByNumber(_ context.Context, kind numerator.Kind, number string) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.byNumber[number]
	if !ok || doc.Kind != kind {
		return nil, apperror.NewNotFound("document", number)
	}
	return doc, nil
}

func (f *fakeDocuments) Linked(ctx context.Context, kind numerator.Kind, number string) (*documents.LinkedDocuments, error) {
	doc, err := f.GetByNumber(ctx, kind, number)
	if err != nil {
		return nil, err
	}
	return &documents.LinkedDocuments{Document: doc, Linked: map[numerator.Kind]*documents.Document{}}, nil
}

func (f *fakeDocuments) History(ctx context.Context, kind numerator.Kind, number string) ([]documents.AuditRecord, error) {
	doc, err := f.GetByNumber(ctx, kind, number)
	if err != nil {
		return nil, err
	}
	return []documents.AuditRecord{{ID: doc.ID, Action: "create", CreatedAt: doc.CreatedAt}}, nil
}

func (f *fakeDocuments) Link(_ context.Context, req documents.LinkRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, req)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testNumbers() *numerator.Service {
	loc := numerator.BusinessLocation(numerator.DefaultTimezone)
	return numerator.NewService(numerator.NewMemoryCounterStore(), nil, numerator.DefaultConfig(),
		numerator.WithClock(func() time.Time { return time.Date(2025, 8, 16, 10, 0, 0, 0, loc) }))
}

func newTestRouter(docs *fakeDocuments, mutate func(*RouterConfig)) http.Handler {
	cfg := RouterConfig{
		Logger:       logger.Nop(),
		Documents:    docs,
		Numbers:      testNumbers(),
		HealthChecks: map[string]handlers.Pinger{"database": fakePinger{}},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func invoiceBody() map[string]any {
	return map[string]any{
		"branchCode": "00000",
		"customer":   map[string]any{"name": "Somchai Jaidee", "taxId": "1234567890123"},
		"items": []map[string]any{
			{"description": "Honda Wave 110i", "quantity": 1, "unitPrice": "45000.00"},
		},
		"summary": map[string]any{"subtotal": "45000.00", "docFee": "500", "total": "45500.00"},
	}
}

func TestCreateDocument_RetryReturnsExisting(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)

	first := do(t, router, http.MethodPost, "/api/v1/invoices", invoiceBody(), nil)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := decode(t, first)
	assert.Equal(t, true, created["created"])
	data := created["data"].(map[string]any)
	assert.Equal(t, "INV-680816-001", data["number"])
	assert.Equal(t, "INV", data["kind"])
	assert.NotEmpty(t, first.Header().Get("X-Request-ID"))

	second := do(t, router, http.MethodPost, "/api/v1/invoices", invoiceBody(), nil)
	require.Equal(t, http.StatusOK, second.Code)
	existing := decode(t, second)
	assert.Equal(t, false, existing["created"])
	assert.Contains(t, existing["message"], "already exists")
	assert.Equal(t, data["id"], existing["data"].(map[string]any)["id"])
}

func TestCreateDocument_HeaderKeyWins(t *testing.T) {
	docs := newFakeDocuments()
	router := newTestRouter(docs, nil)

	body := invoiceBody()
	body["idempotencyKey"] = "body-key"
	w := do(t, router, http.MethodPost, "/api/v1/receipts", body, map[string]string{handlers.HeaderIdempotencyKey: "header-key"})
	require.Equal(t, http.StatusCreated, w.Code)

	_, ok := docs.byKey["header-key"]
	assert.True(t, ok)
}

func TestCreateDocument_Errors(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])
	})

	t.Run("bad granularity", func(t *testing.T) {
		body := invoiceBody()
		body["granularity"] = "weekly"
		w := do(t, router, http.MethodPost, "/api/v1/quotations", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])
	})

	t.Run("service validation", func(t *testing.T) {
		body := invoiceBody()
		body["customer"] = map[string]any{}
		w := do(t, router, http.MethodPost, "/api/v1/tax-invoices", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetDocument(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)
	created := do(t, router, http.MethodPost, "/api/v1/installment-contracts", invoiceBody(), nil)
	require.Equal(t, http.StatusCreated, created.Code)

	w := do(t, router, http.MethodGet, "/api/v1/installment-contracts/INST-680816-001", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "INST-680816-001", decode(t, w)["number"])

	linked := do(t, router, http.MethodGet, "/api/v1/installment-contracts/INST-680816-001/linked", nil, nil)
	require.Equal(t, http.StatusOK, linked.Code)
	assert.Contains(t, decode(t, linked), "linked")

	missing := do(t, router, http.MethodGet, "/api/v1/installment-contracts/INST-680816-099", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, missing)["code"])
}

func TestDocumentAudit(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)
	created := do(t, router, http.MethodPost, "/api/v1/receipts", invoiceBody(), nil)
	require.Equal(t, http.StatusCreated, created.Code)

	w := do(t, router, http.MethodGet, "/api/v1/receipts/RE-680816-001/audit", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "create", records[0]["action"])

	missing := do(t, router, http.MethodGet, "/api/v1/receipts/RE-680816-099/audit", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, missing)["code"])
}

func TestLink(t *testing.T) {
	docs := newFakeDocuments()
	router := newTestRouter(docs, nil)

	w := do(t, router, http.MethodPost, "/api/v1/links", map[string]string{
		"sourceNumber": "QT-680816-001",
		"targetNumber": "INV-680816-001",
	}, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, docs.links, 1)
	assert.Equal(t, numerator.KindQuotation, docs.links[0].SourceKind)
	assert.Equal(t, numerator.KindInvoice, docs.links[0].TargetKind)

	bad := do(t, router, http.MethodPost, "/api/v1/links", map[string]string{
		"sourceNumber": "QT-1",
		"targetNumber": "INV-680816-001",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, apperror.CodeInvalidDocumentNumber, decode(t, bad)["code"])
}

func TestNumberEndpoints(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)

	preview := do(t, router, http.MethodGet, "/api/v1/numbers/qt/preview", nil, nil)
	require.Equal(t, http.StatusOK, preview.Code, preview.Body.String())
	assert.Equal(t, "QT-680816-001", decode(t, preview)["number"])

	monthly := do(t, router, http.MethodGet, "/api/v1/numbers/INV/preview?granularity=YYMM", nil, nil)
	require.Equal(t, http.StatusOK, monthly.Code)
	assert.Equal(t, "INV-6808-001", decode(t, monthly)["number"])

	unknown := do(t, router, http.MethodGet, "/api/v1/numbers/PO/preview", nil, nil)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)

	parsed := do(t, router, http.MethodGet, "/api/v1/numbers/parse/TX-680816-042", nil, nil)
	require.Equal(t, http.StatusOK, parsed.Code)
	body := decode(t, parsed)
	assert.Equal(t, "TX", body["prefix"])
	assert.Equal(t, float64(2568), body["year"])
	assert.Equal(t, float64(2025), body["gregorianYear"])
	assert.Equal(t, float64(42), body["sequence"])

	invalid := do(t, router, http.MethodGet, "/api/v1/numbers/parse/TX-68-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)

	stats := do(t, router, http.MethodGet, "/api/v1/numbers/stats", nil, nil)
	require.Equal(t, http.StatusOK, stats.Code)
	assert.Contains(t, decode(t, stats), "byKind")
}

func TestHealth(t *testing.T) {
	router := newTestRouter(newFakeDocuments(), nil)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health/live", nil, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health/ready", nil, nil).Code)

	down := newTestRouter(newFakeDocuments(), func(cfg *RouterConfig) {
		cfg.HealthChecks = map[string]handlers.Pinger{"database": fakePinger{err: errors.New("refused")}}
	})
	w := do(t, down, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("secret"))
	token, _, err := jwtService.GenerateAccessToken(appctx.UserContext{UserID: "emp-9", Name: "Malee"})
	require.NoError(t, err)

	t.Run("required", func(t *testing.T) {
		docs := newFakeDocuments()
		router := newTestRouter(docs, func(cfg *RouterConfig) {
			cfg.JWTValidator = jwtService
			cfg.AuthRequired = true
		})

		w := do(t, router, http.MethodPost, "/api/v1/quotations", invoiceBody(), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperror.CodeUnauthorized, decode(t, w)["code"])

		w = do(t, router, http.MethodPost, "/api/v1/quotations", invoiceBody(), map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "emp-9", docs.lastUser)

		// Health stays public.
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health/live", nil, nil).Code)
	})

	t.Run("optional", func(t *testing.T) {
		router := newTestRouter(newFakeDocuments(), func(cfg *RouterConfig) {
			cfg.JWTValidator = jwtService
		})

		assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/v1/quotations", invoiceBody(), nil).Code)
		w := do(t, router, http.MethodPost, "/api/v1/quotations", invoiceBody(), map[string]string{"Authorization": "Bearer broken"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
