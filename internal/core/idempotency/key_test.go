package idempotency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeKey(t *testing.T) {
	key := ComputeKey(KeyFields{
		Label:      "invoice",
		BranchCode: "00000",
		ContractNo: "CT-001",
		Customer:   Customer{TaxID: "1234567890123", Name: "Somchai"},
		Total:      decimal.RequireFromString("39900"),
		DocFee:     decimal.RequireFromString("500"),
		Subtotal:   decimal.RequireFromString("39400"),
	})

	assert.Equal(t, "invoice|00000|CT-001|1234567890123|39900.00|500.00|39400.00", key)
}

func TestComputeKey_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		fields KeyFields
		want   string
	}{
		{
			name:   "empty",
			fields: KeyFields{Label: "receipt"},
			want:   "receipt|00000|N/A|N/A|0.00|0.00|0.00",
		},
		{
			name: "quotation reference and phone",
			fields: KeyFields{
				Label:           "tax_invoice",
				BranchCode:      " 00012 ",
				QuotationNumber: "QT-680816-001",
				Customer:        Customer{Phone: "081 234 5678", Name: "Somchai Jaidee"},
			},
			want: "tax_invoice|00012|QT-680816-001|0812345678|0.00|0.00|0.00",
		},
		{
			name: "contract wins over quotation, name stripped",
			fields: KeyFields{
				Label:           "installment",
				ContractNo:      "CT-9",
				QuotationNumber: "QT-680816-001",
				Customer:        Customer{Name: " Somchai  Jaidee "},
				Total:           decimal.RequireFromString("1000.005"),
			},
			want: "installment|00000|CT-9|SomchaiJaidee|1000.01|0.00|0.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeKey(tt.fields))
		})
	}
}

func TestComputeKey_Stable(t *testing.T) {
	a := KeyFields{
		Label:    "receipt",
		Customer: Customer{TaxID: "1234567890123"},
		Total:    decimal.RequireFromString("100.5"),
	}
	b := a
	b.Customer.TaxID = " 1234 5678 90123 "
	b.Total = decimal.RequireFromString("100.50")

	assert.Equal(t, ComputeKey(a), ComputeKey(b))

	b.Total = decimal.RequireFromString("100.51")
	assert.NotEqual(t, ComputeKey(a), ComputeKey(b))
}
