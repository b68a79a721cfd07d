package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/kas-cafe/internal/domain/catalog"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw   string
		want  int64
		state FieldState
	}{
		{raw: "", want: 0, state: FieldAbsent},
		{raw: "   ", want: 0, state: FieldAbsent},
		{raw: "2", want: 2, state: FieldValid},
		{raw: " 12 ", want: 12, state: FieldValid},
		{raw: "+3", want: 3, state: FieldValid},
		{raw: "-1", want: -1, state: FieldValid},
		{raw: "2.7", want: 2, state: FieldCoerced},
		{raw: "3 plates", want: 3, state: FieldCoerced},
		{raw: "abc", want: 0, state: FieldCoerced},
		{raw: "-", want: 0, state: FieldCoerced},
		{raw: "99999999999999999999", want: 0, state: FieldCoerced},
		{raw: "100000", want: MaxQuantity, state: FieldValid},
		{raw: "100001", want: 0, state: FieldCoerced},
		{raw: "999999999999999999", want: 0, state: FieldCoerced},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseQuantity(tt.raw)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.state, got.State, "state %s", got.State)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw   string
		want  int64
		state FieldState
	}{
		{raw: "", want: 0, state: FieldAbsent},
		{raw: "50", want: 50, state: FieldValid},
		{raw: "50.0", want: 50, state: FieldValid},
		{raw: "12.5", want: 13, state: FieldCoerced},
		{raw: "12.4", want: 12, state: FieldCoerced},
		{raw: "-20", want: 0, state: FieldCoerced},
		{raw: "free", want: 0, state: FieldCoerced},
		{raw: "1000000000", want: 1_000_000_000, state: FieldValid},
		{raw: "1000000000.4", want: 0, state: FieldCoerced},
		{raw: "1e19", want: 0, state: FieldCoerced},
		{raw: "1E2", want: 0, state: FieldCoerced},
		{raw: "1e100000000", want: 0, state: FieldCoerced},
		{raw: "123456789012345678901234567890123", want: 0, state: FieldCoerced},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseAmount(tt.raw)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.state, got.State, "state %s", got.State)
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		state FieldState
	}{
		{raw: "", want: "0", state: FieldAbsent},
		{raw: "10", want: "10", state: FieldValid},
		{raw: "12.5", want: "12.5", state: FieldValid},
		{raw: "-5", want: "0", state: FieldCoerced},
		{raw: "ten", want: "0", state: FieldCoerced},
		{raw: "12.34567", want: "12.34567", state: FieldValid},
		{raw: "1000", want: "1000", state: FieldValid},
		{raw: "1000.01", want: "0", state: FieldCoerced},
		{raw: "100000", want: "0", state: FieldCoerced},
		{raw: "1e100000000", want: "0", state: FieldCoerced},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParsePercent(tt.raw)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Value),
				"expected %s, got %s", tt.want, got.Value)
			assert.Equal(t, tt.state, got.State)
		})
	}
}

func TestNormalize_Coerced(t *testing.T) {
	cat := catalog.MustNew(
		catalog.Entry{ID: "tea", Label: "Tea", UnitPrice: 40},
		catalog.Entry{ID: "samosa", Label: "Samosa", UnitPrice: 30},
	)

	n := Normalize(Input{
		Quantities: map[string]string{"tea": "two", "samosa": "1", "pizza": "junk"},
		Service:    ServiceInput{Applied: true, Percent: "x"},
		Delivery:   &DeliveryInput{Fee: "-3"},
	}, cat)

	assert.Equal(t, []string{"quantity.tea", "service.percent", "delivery.fee"}, n.Coerced())
	assert.Equal(t, FieldValid, n.Quantities[1].Quantity.State)
}

func TestNormalize_NoDeliveryLeavesFeeAbsent(t *testing.T) {
	n := Normalize(Input{}, catalog.Default())

	assert.Equal(t, FieldAbsent, n.DeliveryFee.State)
	assert.Empty(t, n.Coerced())
	assert.Len(t, n.Quantities, 9)
}
