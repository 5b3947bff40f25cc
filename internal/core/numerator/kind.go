// Package numerator issues human-readable, date-scoped document numbers.
//
// A number looks like QT-680816-001: a kind prefix, the Thai Buddhist date
// bucket and a zero-padded sequence. Counters live in a CounterStore keyed by
// (counter kind, date prefix); several kinds may share one counter.
package numerator

import (
	"fmt"
	"strings"

	"salesdocs/internal/core/apperror"
)

// Kind is a document prefix.
type Kind string

const (
	KindQuotation   Kind = "QT"
	KindInvoice     Kind = "INV"
	KindTaxInvoice  Kind = "TX"
	KindReceipt     Kind = "RE"
	KindInstallment Kind = "INST"
)

// Kinds returns every known kind in display order.
func Kinds() []Kind {
	return []Kind{KindQuotation, KindInvoice, KindTaxInvoice, KindReceipt, KindInstallment}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindQuotation, KindInvoice, KindTaxInvoice, KindReceipt, KindInstallment:
		return true
	}
	return false
}

// ParseKind accepts a prefix in any letter case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", apperror.NewValidation(fmt.Sprintf("unknown document prefix %q", s)).
			WithDetail("field", "prefix")
	}
	return k, nil
}

// Granularity is the calendar resolution of the date prefix.
type Granularity string

const (
	// GranularityDefault selects the kind's configured granularity.
	GranularityDefault Granularity = ""
	GranularityDay     Granularity = "YYMMDD"
	GranularityMonth   Granularity = "YYMM"
)

// ParseGranularity accepts "", "YYMMDD"/"day" and "YYMM"/"month".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return GranularityDefault, nil
	case string(GranularityDay), "DAY", "DAILY":
		return GranularityDay, nil
	case string(GranularityMonth), "MONTH", "MONTHLY":
		return GranularityMonth, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown granularity %q", s)).
		WithDetail("field", "granularity")
}

// Scheme describes how numbers of one kind are drawn.
type Scheme struct {
	Kind Kind
	// CounterKind owns the counter the kind draws from.
	CounterKind Kind
	// Granularity used when callers pass GranularityDefault.
	Granularity Granularity
}

// Schemes maps every kind to its numbering scheme.
type Schemes map[Kind]Scheme

// DefaultSchemes returns the production numbering layout: quotations and
// invoices own their counters, tax invoices, receipts and installment
// contracts draw from the quotation counter. Every kind is numbered per day.
func DefaultSchemes() Schemes {
	return Schemes{
		KindQuotation:   {Kind: KindQuotation, CounterKind: KindQuotation, Granularity: GranularityDay},
		KindInvoice:     {Kind: KindInvoice, CounterKind: KindInvoice, Granularity: GranularityDay},
		KindTaxInvoice:  {Kind: KindTaxInvoice, CounterKind: KindQuotation, Granularity: GranularityDay},
		KindReceipt:     {Kind: KindReceipt, CounterKind: KindQuotation, Granularity: GranularityDay},
		KindInstallment: {Kind: KindInstallment, CounterKind: KindQuotation, Granularity: GranularityDay},
	}
}

// Lookup returns the scheme of k.
func (s Schemes) Lookup(k Kind) (Scheme, error) {
	scheme, ok := s[k]
	if !ok {
		return Scheme{}, apperror.NewValidation(fmt.Sprintf("no numbering scheme for %q", k)).
			WithDetail("field", "prefix")
	}
	if scheme.CounterKind == "" {
		scheme.CounterKind = k
	}
	if scheme.Granularity == GranularityDefault {
		scheme.Granularity = GranularityDay
	}
	return scheme, nil
}
