// Package idempotency makes document creation safe to retry.
//
// Retried requests for the same logical document resolve to the original
// document: a stable key is derived from the business fields, existing
// documents are looked up before a number is drawn, and unique-key races at
// persist time converge on the winner.
package idempotency

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"salesdocs/internal/core/types"
)

const (
	// Delimiter joins key components.
	Delimiter = "|"
	// Unspecified stands in for a missing reference or customer.
	Unspecified = "N/A"
	// DefaultBranchCode is the head office branch.
	DefaultBranchCode = "00000"
)

// Customer carries the identity fields used in keys, most specific first.
type Customer struct {
	TaxID string
	Phone string
	Name  string
}

// KeyFields are the business fields a creation key is computed from.
type KeyFields struct {
	// Label names the document type, e.g. "tax_invoice".
	Label           string
	BranchCode      string
	ContractNo      string
	QuotationNumber string
	Customer        Customer
	Total           decimal.Decimal
	DocFee          decimal.Decimal
	Subtotal        decimal.Decimal
}

// ComputeKey derives label|branch|reference|customer|total|docFee|subtotal.
// Equal business fields give equal keys regardless of whitespace in the
// customer identity or trailing zeros in amounts.
func ComputeKey(f KeyFields) string {
	return strings.Join([]string{
		f.Label,
		BranchCode(f.BranchCode),
		reference(f.ContractNo, f.QuotationNumber),
		customerKey(f.Customer),
		types.FormatMoney(f.Total),
		types.FormatMoney(f.DocFee),
		types.FormatMoney(f.Subtotal),
	}, Delimiter)
}

// BranchCode returns the trimmed branch code or DefaultBranchCode.
func BranchCode(code string) string {
	if c := strings.TrimSpace(code); c != "" {
		return c
	}
	return DefaultBranchCode
}

func reference(contractNo, quotationNumber string) string {
	for _, v := range []string{contractNo, quotationNumber} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return Unspecified
}

func customerKey(c Customer) string {
	for _, v := range []string{c.TaxID, c.Phone, c.Name} {
		if s := stripSpace(v); s != "" {
			return s
		}
	}
	return Unspecified
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
