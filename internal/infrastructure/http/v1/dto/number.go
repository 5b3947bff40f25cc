package dto

import "salesdocs/internal/core/numerator"

// NumberResponse is a decomposed document number.
type NumberResponse struct {
	Number        string         `json:"number"`
	Prefix        numerator.Kind `json:"prefix"`
	DatePrefix    string         `json:"datePrefix"`
	Granularity   string         `json:"granularity"`
	Year          int            `json:"year"`
	GregorianYear int            `json:"gregorianYear"`
	Month         int            `json:"month"`
	Day           int            `json:"day,omitempty"`
	Sequence      int64          `json:"sequence"`
}

// FromNumber maps a parsed number.
func FromNumber(raw string, n numerator.Number) NumberResponse {
	return NumberResponse{
		Number:        raw,
		Prefix:        n.Kind,
		DatePrefix:    n.DatePrefix(),
		Granularity:   string(n.Granularity()),
		Year:          n.Year,
		GregorianYear: n.GregorianYear(),
		Month:         n.Month,
		Day:           n.Day,
		Sequence:      n.Sequence,
	}
}

// PreviewResponse is an advisory next number. It is not reserved.
type PreviewResponse struct {
	Prefix      numerator.Kind `json:"prefix"`
	Granularity string         `json:"granularity,omitempty"`
	Number      string         `json:"number"`
	Reserved    bool           `json:"reserved"`
}
