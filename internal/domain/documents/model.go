// Package documents provides the numbered sales documents: quotations,
// invoices, tax invoices, receipts and installment contracts.
package documents

import (
	"github.com/shopspring/decimal"

	"salesdocs/internal/core/entity"
	"salesdocs/internal/core/numerator"
	"salesdocs/internal/core/types"
)

// Status of a document.
type Status string

const (
	StatusIssued    Status = "issued"
	StatusConverted Status = "converted"
)

// Customer is the buyer a document is issued to.
type Customer struct {
	Name    string `json:"name"`
	TaxID   string `json:"taxId,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Line is one item of a document.
type Line struct {
	Description string          `json:"description"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   types.Money     `json:"unitPrice"`
	Amount      types.Money     `json:"amount"`
}

// Summary holds the monetary totals.
type Summary struct {
	Subtotal  types.Money `json:"subtotal"`
	DocFee    types.Money `json:"docFee"`
	VATAmount types.Money `json:"vatAmount"`
	Total     types.Money `json:"total"`
}

// Links maps a sibling kind to its document number.
type Links map[string]string

// Document is any of the numbered sales documents.
type Document struct {
	entity.Document

	Kind            numerator.Kind `db:"kind" json:"kind"`
	Subtype         string         `db:"subtype" json:"subtype,omitempty"`
	BranchCode      string         `db:"branch_code" json:"branchCode"`
	ContractNo      string         `db:"contract_no" json:"contractNo,omitempty"`
	QuotationNumber string         `db:"quotation_number" json:"quotationNumber,omitempty"`
	EmployeeName    string         `db:"employee_name" json:"employeeName,omitempty"`
	Status          Status         `db:"status" json:"status"`

	// Stored as JSONB
	Customer Customer `db:"customer" json:"customer"`
	Items    []Line   `db:"items" json:"items"`
	Links    Links    `db:"links" json:"links,omitempty"`

	Subtotal  types.Money `db:"subtotal" json:"subtotal"`
	DocFee    types.Money `db:"doc_fee" json:"docFee"`
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`
	Total     types.Money `db:"total" json:"total"`
}

// Summary returns the monetary totals.
func (d *Document) Summary() Summary {
	return Summary{Subtotal: d.Subtotal, DocFee: d.DocFee, VATAmount: d.VATAmount, Total: d.Total}
}

// LinkedNumber returns the number of the linked sibling of kind.
func (d *Document) LinkedNumber(kind numerator.Kind) (string, bool) {
	n, ok := d.Links[string(kind)]
	return n, ok && n != ""
}

// newDocument builds the document req describes under number and key.
func newDocument(req CreateRequest, number, key, createdBy string) *Document {
	base := entity.NewDocument(number, key)
	base.CreatedBy = createdBy
	items := req.Items
	if items == nil {
		items = []Line{}
	}
	return &Document{
		Document:        base,
		Kind:            req.Kind,
		Subtype:         req.Subtype,
		BranchCode:      req.BranchCode,
		ContractNo:      req.ContractNo,
		QuotationNumber: req.QuotationNumber,
		EmployeeName:    req.EmployeeName,
		Status:          StatusIssued,
		Customer:        req.Customer,
		Items:           items,
		Links:           Links{},
		Subtotal:        types.Round(req.Summary.Subtotal),
		DocFee:          types.Round(req.Summary.DocFee),
		VATAmount:       types.Round(req.Summary.VATAmount),
		Total:           types.Round(req.Summary.Total),
	}
}
