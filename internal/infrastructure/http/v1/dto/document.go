package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"salesdocs/internal/core/numerator"
	"salesdocs/internal/core/types"
	"salesdocs/internal/domain/documents"
)

// CustomerDTO is the buyer of a document.
type CustomerDTO struct {
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// LineDTO is one item. Amounts accept JSON numbers or strings.
type LineDTO struct {
	Description string          `json:"description"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   types.Money     `json:"unitPrice"`
	Amount      types.Money     `json:"amount"`
}

// SummaryDTO carries document totals.
type SummaryDTO struct {
	Subtotal  types.Money `json:"subtotal"`
	DocFee    types.Money `json:"docFee"`
	VATAmount types.Money `json:"vatAmount"`
	Total     types.Money `json:"total"`
}

// CreateDocumentRequest is the body of POST /{collection}.
type CreateDocumentRequest struct {
	IdempotencyKey  string      `json:"idempotencyKey"`
	Granularity     string      `json:"granularity"`
	BranchCode      string      `json:"branchCode"`
	ContractNo      string      `json:"contractNo"`
	QuotationNumber string      `json:"quotationNumber"`
	Subtype         string      `json:"subtype"`
	EmployeeName    string      `json:"employeeName"`
	Customer        CustomerDTO `json:"customer"`
	Items           []LineDTO   `json:"items"`
	Summary         SummaryDTO  `json:"summary"`
}

// ToDomain maps the request to a creation of kind. headerKey, when set,
// takes precedence over the key in the body.
func (r CreateDocumentRequest) ToDomain(kind numerator.Kind, headerKey string) (documents.CreateRequest, error) {
	g, err := numerator.ParseGranularity(r.Granularity)
	if err != nil {
		return documents.CreateRequest{}, err
	}
	key := r.IdempotencyKey
	if headerKey != "" {
		key = headerKey
	}

	items := make([]documents.Line, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, documents.Line{
			Description: it.Description,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}

	return documents.CreateRequest{
		Kind:            kind,
		IdempotencyKey:  key,
		Granularity:     g,
		BranchCode:      r.BranchCode,
		ContractNo:      r.ContractNo,
		QuotationNumber: r.QuotationNumber,
		Subtype:         r.Subtype,
		EmployeeName:    r.EmployeeName,
		Customer: documents.Customer{
			Name:    r.Customer.Name,
			TaxID:   r.Customer.TaxID,
			Phone:   r.Customer.Phone,
			Address: r.Customer.Address,
		},
		Items: items,
		Summary: documents.Summary{
			Subtotal:  r.Summary.Subtotal,
			DocFee:    r.Summary.DocFee,
			VATAmount: r.Summary.VATAmount,
			Total:     r.Summary.Total,
		},
	}, nil
}

// DocumentResponse is a document as returned by the API.
type DocumentResponse struct {
	ID              string            `json:"id"`
	Number          string            `json:"number"`
	Kind            numerator.Kind    `json:"kind"`
	Subtype         string            `json:"subtype,omitempty"`
	Status          string            `json:"status"`
	BranchCode      string            `json:"branchCode"`
	ContractNo      string            `json:"contractNo,omitempty"`
	QuotationNumber string            `json:"quotationNumber,omitempty"`
	EmployeeName    string            `json:"employeeName,omitempty"`
	Customer        CustomerDTO       `json:"customer"`
	Items           []LineDTO         `json:"items"`
	Summary         SummaryDTO        `json:"summary"`
	Links           map[string]string `json:"links"`
	IdempotencyKey  string            `json:"idempotencyKey,omitempty"`
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	CreatedBy       string            `json:"createdBy,omitempty"`
}

// FromDocument maps a document to its response.
func FromDocument(d *documents.Document) DocumentResponse {
	items := make([]LineDTO, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, LineDTO{
			Description: it.Description,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		})
	}
	links := map[string]string(d.Links)
	if links == nil {
		links = map[string]string{}
	}
	return DocumentResponse{
		ID:              d.ID.String(),
		Number:          d.Number,
		Kind:            d.Kind,
		Subtype:         d.Subtype,
		Status:          string(d.Status),
		BranchCode:      d.BranchCode,
		ContractNo:      d.ContractNo,
		QuotationNumber: d.QuotationNumber,
		EmployeeName:    d.EmployeeName,
		Customer: CustomerDTO{
			Name:    d.Customer.Name,
			TaxID:   d.Customer.TaxID,
			Phone:   d.Customer.Phone,
			Address: d.Customer.Address,
		},
		Items: items,
		Summary: SummaryDTO{
			Subtotal:  d.Subtotal,
			DocFee:    d.DocFee,
			VATAmount: d.VATAmount,
			Total:     d.Total,
		},
		Links:          links,
		IdempotencyKey: d.Key(),
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		CreatedBy:      d.CreatedBy,
	}
}

// CreateDocumentResponse reports whether the document was created or
// already existed.
type CreateDocumentResponse struct {
	Created bool             `json:"created"`
	Message string           `json:"message"`
	Data    DocumentResponse `json:"data"`
}

// LinkedDocumentsResponse is a document with its linked siblings by prefix.
type LinkedDocumentsResponse struct {
	Document DocumentResponse            `json:"document"`
	Linked   map[string]DocumentResponse `json:"linked"`
}

// FromLinked maps linked documents to their response.
func FromLinked(l *documents.LinkedDocuments) LinkedDocumentsResponse {
	out := LinkedDocumentsResponse{
		Document: FromDocument(l.Document),
		Linked:   make(map[string]DocumentResponse, len(l.Linked)),
	}
	for kind, doc := range l.Linked {
		out.Linked[string(kind)] = FromDocument(doc)
	}
	return out
}

// LinkRequest is the body of POST /links.
type LinkRequest struct {
	SourceNumber string `json:"sourceNumber" binding:"required"`
	TargetNumber string `json:"targetNumber" binding:"required"`
}
