package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdocs/internal/core/apperror"
)

func TestDatePrefix(t *testing.T) {
	day := time.Date(2025, 8, 16, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "680816", DatePrefix(day, GranularityDay))
	assert.Equal(t, "6808", DatePrefix(day, GranularityMonth))
	assert.Equal(t, "680816", DatePrefix(day, GranularityDefault))
	assert.Equal(t, "690101", DatePrefix(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), GranularityDay))
}

func TestFormatSequence(t *testing.T) {
	assert.Equal(t, "QT-680816-001", FormatSequence(KindQuotation, "680816", 1))
	assert.Equal(t, "INST-6808-042", FormatSequence(KindInstallment, "6808", 42))
	assert.Equal(t, "RE-680816-1000", FormatSequence(KindReceipt, "680816", 1000))
}

func TestParse(t *testing.T) {
	n, err := Parse("TX-680816-007")
	require.NoError(t, err)
	assert.Equal(t, Number{Kind: KindTaxInvoice, Year: 2568, Month: 8, Day: 16, Sequence: 7, Width: 3}, n)
	assert.Equal(t, GranularityDay, n.Granularity())
	assert.Equal(t, 2025, n.GregorianYear())

	n, err = Parse("INV-6808-0012")
	require.NoError(t, err)
	assert.Equal(t, KindInvoice, n.Kind)
	assert.Equal(t, 0, n.Day)
	assert.Equal(t, int64(12), n.Sequence)
	assert.Equal(t, 4, n.Width)
	assert.Equal(t, GranularityMonth, n.Granularity())
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"QT-680816-01",
		"XX-680816-001",
		"qt-680816-001",
		"QT-68081-001",
		"QT-681316-001",
		"QT-680832-001",
		"QT-680800-001",
		"QT-680816-000",
		"QT-680816-001-1",
		"QT680816001",
	}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidDocumentNumber, appErr.Code)
			assert.Equal(t, s, appErr.Details["number"])
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	numbers := []string{
		"QT-680816-001",
		"INV-680816-999",
		"TX-6808-001",
		"RE-680101-1000",
		"INST-691231-0042",
		"QT-6812-00007",
	}
	for _, s := range numbers {
		n, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, Format(n))
	}

	for _, kind := range Kinds() {
		for _, seq := range []int64{1, 9, 10, 99, 100, 999, 1000, 123456} {
			s := FormatSequence(kind, "680816", seq)
			n, err := Parse(s)
			require.NoError(t, err, s)
			assert.Equal(t, seq, n.Sequence)
			assert.Equal(t, s, n.String())
		}
	}
}

func TestParseKindAndGranularity(t *testing.T) {
	k, err := ParseKind(" inst ")
	require.NoError(t, err)
	assert.Equal(t, KindInstallment, k)

	_, err = ParseKind("PO")
	assert.Error(t, err)

	g, err := ParseGranularity("yymm")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)

	g, err = ParseGranularity("")
	require.NoError(t, err)
	assert.Equal(t, GranularityDefault, g)

	_, err = ParseGranularity("weekly")
	assert.Error(t, err)
}

func TestValidDatePrefix(t *testing.T) {
	assert.True(t, ValidDatePrefix("680816"))
	assert.True(t, ValidDatePrefix("6808"))
	assert.False(t, ValidDatePrefix("681316"))
	assert.False(t, ValidDatePrefix("68-08"))
	assert.False(t, ValidDatePrefix(""))
}
