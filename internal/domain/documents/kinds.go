package documents

import (
	"fmt"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/numerator"
)

// Subtypes that have a natural key.
const (
	SubtypeDownPaymentTaxInvoice = "down_payment_tax_invoice"
	SubtypeDownPaymentReceipt    = "down_payment_receipt"
)

// NaturalKey is a business identity that admits at most one document.
// Empty fields are not part of the lookup.
type NaturalKey struct {
	ContractNo      string
	Subtype         string
	QuotationNumber string
}

// Definition describes one document kind.
type Definition struct {
	Kind numerator.Kind
	// Label is the kind's name in idempotency keys.
	Label string
	// Collection is the kind's URL segment.
	Collection string
	// Title is used in client-facing messages.
	Title string
	// Table stores documents of the kind.
	Table string
	// NaturalKey returns the natural identity of a request, if it has one.
	NaturalKey func(req CreateRequest) (NaturalKey, bool)
}

var definitions = map[numerator.Kind]Definition{
	numerator.KindQuotation: {
		Kind:       numerator.KindQuotation,
		Label:      "quotation",
		Collection: "quotations",
		Title:      "Quotation",
		Table:      "doc_quotations",
	},
	numerator.KindInvoice: {
		Kind:       numerator.KindInvoice,
		Label:      "invoice",
		Collection: "invoices",
		Title:      "Invoice",
		Table:      "doc_invoices",
		NaturalKey: byQuotation,
	},
	numerator.KindTaxInvoice: {
		Kind:       numerator.KindTaxInvoice,
		Label:      "tax_invoice",
		Collection: "tax-invoices",
		Title:      "Tax invoice",
		Table:      "doc_tax_invoices",
		NaturalKey: byContractSubtype(SubtypeDownPaymentTaxInvoice),
	},
	numerator.KindReceipt: {
		Kind:       numerator.KindReceipt,
		Label:      "receipt",
		Collection: "receipts",
		Title:      "Receipt",
		Table:      "doc_receipts",
		NaturalKey: byContractSubtype(SubtypeDownPaymentReceipt),
	},
	numerator.KindInstallment: {
		Kind:       numerator.KindInstallment,
		Label:      "installment",
		Collection: "installment-contracts",
		Title:      "Installment contract",
		Table:      "doc_installment_contracts",
		NaturalKey: byQuotation,
	},
}

// byQuotation: one invoice or installment contract per quotation.
func byQuotation(req CreateRequest) (NaturalKey, bool) {
	if req.QuotationNumber == "" {
		return NaturalKey{}, false
	}
	return NaturalKey{QuotationNumber: req.QuotationNumber}, true
}

// byContractSubtype: one document of subtype per contract.
func byContractSubtype(subtype string) func(CreateRequest) (NaturalKey, bool) {
	return func(req CreateRequest) (NaturalKey, bool) {
		if req.Subtype != subtype || req.ContractNo == "" {
			return NaturalKey{}, false
		}
		return NaturalKey{ContractNo: req.ContractNo, Subtype: subtype}, true
	}
}

// Lookup returns the definition of kind.
func Lookup(kind numerator.Kind) (Definition, error) {
	def, ok := definitions[kind]
	if !ok {
		return Definition{}, apperror.NewValidation(fmt.Sprintf("unknown document kind %q", kind)).
			WithDetail("field", "kind")
	}
	return def, nil
}

// Definitions returns every definition in numbering display order.
func Definitions() []Definition {
	out := make([]Definition, 0, len(definitions))
	for _, k := range numerator.Kinds() {
		out = append(out, definitions[k])
	}
	return out
}

// Tables maps each kind to its table.
func Tables() map[numerator.Kind]string {
	out := make(map[numerator.Kind]string, len(definitions))
	for k, def := range definitions {
		out[k] = def.Table
	}
	return out
}
