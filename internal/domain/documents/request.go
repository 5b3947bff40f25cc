package documents

import (
	"strings"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/idempotency"
	"salesdocs/internal/core/numerator"
)

// CreateRequest asks for a new document.
type CreateRequest struct {
	Kind numerator.Kind
	// IdempotencyKey is optional; a key is computed from the fields otherwise.
	IdempotencyKey  string
	Granularity     numerator.Granularity
	BranchCode      string
	ContractNo      string
	QuotationNumber string
	Subtype         string
	EmployeeName    string
	Customer        Customer
	Items           []Line
	Summary         Summary
}

// Normalize trims identifiers, defaults the branch and derives a missing total.
func (r *CreateRequest) Normalize() {
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	r.BranchCode = idempotency.BranchCode(r.BranchCode)
	r.ContractNo = strings.TrimSpace(r.ContractNo)
	r.QuotationNumber = strings.TrimSpace(r.QuotationNumber)
	r.Subtype = strings.TrimSpace(r.Subtype)
	r.EmployeeName = strings.TrimSpace(r.EmployeeName)
	r.Customer.Name = strings.TrimSpace(r.Customer.Name)
	r.Customer.TaxID = strings.TrimSpace(r.Customer.TaxID)
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)

	if r.Summary.Total.IsZero() {
		r.Summary.Total = r.Summary.Subtotal.Add(r.Summary.DocFee)
	}
	for i := range r.Items {
		if r.Items[i].Amount.IsZero() {
			r.Items[i].Amount = r.Items[i].UnitPrice.Mul(r.Items[i].Quantity)
		}
	}
}

// Validate checks the request before any key or number work is done.
func (r *CreateRequest) Validate() error {
	if !r.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").WithDetail("field", "kind")
	}
	if r.Customer.Name == "" && r.Customer.TaxID == "" && r.Customer.Phone == "" {
		return apperror.NewValidation("customer name, tax id or phone is required").
			WithDetail("field", "customer")
	}
	if r.QuotationNumber != "" {
		if n, err := numerator.Parse(r.QuotationNumber); err != nil || n.Kind != numerator.KindQuotation {
			return apperror.NewValidation("quotationNumber is not a quotation number").
				WithDetail("field", "quotationNumber")
		}
	}

	s := r.Summary
	for _, amount := range []struct {
		field    string
		negative bool
	}{
		{"summary.subtotal", s.Subtotal.IsNegative()},
		{"summary.docFee", s.DocFee.IsNegative()},
		{"summary.vatAmount", s.VATAmount.IsNegative()},
		{"summary.total", s.Total.IsNegative()},
	} {
		if amount.negative {
			return apperror.NewValidation(amount.field+" must not be negative").WithDetail("field", amount.field)
		}
	}

	for i, item := range r.Items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.NewValidation("item description is required").
				WithDetail("field", "items").WithDetail("index", i)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("field", "items").WithDetail("index", i)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("item unit price must not be negative").
				WithDetail("field", "items").WithDetail("index", i)
		}
	}
	return nil
}

func (r *CreateRequest) keyFields(label string) idempotency.KeyFields {
	return idempotency.KeyFields{
		Label:           label,
		BranchCode:      r.BranchCode,
		ContractNo:      r.ContractNo,
		QuotationNumber: r.QuotationNumber,
		Customer: idempotency.Customer{
			TaxID: r.Customer.TaxID,
			Phone: r.Customer.Phone,
			Name:  r.Customer.Name,
		},
		Total:    r.Summary.Total,
		DocFee:   r.Summary.DocFee,
		Subtotal: r.Summary.Subtotal,
	}
}
