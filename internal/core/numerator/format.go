package numerator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"salesdocs/internal/core/apperror"
)

const (
	// CanonicalWidth is the zero-padding of every newly issued sequence.
	CanonicalWidth = 3

	// MaxSequence is the widest sequence Parse accepts. Next never issues
	// a number beyond it.
	MaxSequence = 999_999_999

	// BuddhistEraOffset converts a Gregorian year to the Thai Buddhist year.
	BuddhistEraOffset = 543

	// buddhistCentury is added to a two-digit year when parsing.
	buddhistCentury = 2500
)

var numberPattern = regexp.MustCompile(`^(QT|INV|TX|RE|INST)-(\d{6}|\d{4})-(\d{3,9})$`)

// Number is a decomposed document number.
type Number struct {
	Kind Kind `json:"prefix"`
	// Year is the full Buddhist year, e.g. 2568.
	Year  int `json:"year"`
	Month int `json:"month"`
	// Day is 0 for month-granularity numbers.
	Day      int   `json:"day,omitempty"`
	Sequence int64 `json:"sequence"`
	// Width is the zero-padded width of the sequence; 0 means CanonicalWidth.
	Width int `json:"-"`
}

// Granularity reports the date bucket resolution of n.
func (n Number) Granularity() Granularity {
	if n.Day == 0 {
		return GranularityMonth
	}
	return GranularityDay
}

// DatePrefix returns the YYMMDD or YYMM bucket of n.
func (n Number) DatePrefix() string {
	if n.Day == 0 {
		return fmt.Sprintf("%02d%02d", n.Year%100, n.Month)
	}
	return fmt.Sprintf("%02d%02d%02d", n.Year%100, n.Month, n.Day)
}

// GregorianYear converts the Buddhist year back.
func (n Number) GregorianYear() int {
	return n.Year - BuddhistEraOffset
}

// String implements fmt.Stringer.
func (n Number) String() string {
	return Format(n)
}

// Format renders n as PREFIX-DATE-SEQ.
func Format(n Number) string {
	width := n.Width
	if width <= 0 {
		width = CanonicalWidth
	}
	return fmt.Sprintf("%s-%s-%0*d", n.Kind, n.DatePrefix(), width, n.Sequence)
}

// FormatSequence renders a freshly drawn sequence in canonical width.
func FormatSequence(kind Kind, datePrefix string, seq int64) string {
	return fmt.Sprintf("%s-%s-%0*d", kind, datePrefix, CanonicalWidth, seq)
}

// DatePrefix returns the date bucket of t: Buddhist year modulo 100, month and,
// for day granularity, day. t is used in its own location.
func DatePrefix(t time.Time, g Granularity) string {
	yy := (t.Year() + BuddhistEraOffset) % 100
	if g == GranularityMonth {
		return fmt.Sprintf("%02d%02d", yy, int(t.Month()))
	}
	return fmt.Sprintf("%02d%02d%02d", yy, int(t.Month()), t.Day())
}

// ValidDatePrefix reports whether s is a well-formed YYMM or YYMMDD bucket.
func ValidDatePrefix(s string) bool {
	_, err := Parse(string(KindQuotation) + "-" + s + "-001")
	return err == nil
}

// Parse decomposes a document number. Legacy sequences wider than
// CanonicalWidth are accepted and keep their width, so Format(Parse(s)) == s.
func Parse(s string) (Number, error) {
	m := numberPattern.FindStringSubmatch(s)
	if m == nil {
		return Number{}, apperror.NewInvalidDocumentNumber(s, "expected PREFIX-YYMMDD-NNN or PREFIX-YYMM-NNN")
	}

	date := m[2]
	yy, _ := strconv.Atoi(date[0:2])
	month, _ := strconv.Atoi(date[2:4])
	day := 0
	if len(date) == 6 {
		day, _ = strconv.Atoi(date[4:6])
		if day < 1 || day > 31 {
			return Number{}, apperror.NewInvalidDocumentNumber(s, "day out of range")
		}
	}
	if month < 1 || month > 12 {
		return Number{}, apperror.NewInvalidDocumentNumber(s, "month out of range")
	}

	seq, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Number{}, apperror.NewInvalidDocumentNumber(s, "sequence is not a number").WithCause(err)
	}
	if seq == 0 {
		return Number{}, apperror.NewInvalidDocumentNumber(s, "sequence must be positive")
	}

	return Number{
		Kind:     Kind(m[1]),
		Year:     buddhistCentury + yy,
		Month:    month,
		Day:      day,
		Sequence: seq,
		Width:    len(m[3]),
	}, nil
}
