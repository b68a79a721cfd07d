package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		code string
		cart Cart
		want Resolution
	}{
		{
			name: "empty code is silent",
			code: "   ",
			cart: Cart{Subtotal: 500},
			want: Resolution{Status: StatusNone},
		},
		{
			name: "unknown code",
			code: "ZZZZ",
			cart: Cart{Subtotal: 500},
			want: Resolution{Note: "Invalid discount code", Status: StatusInvalid},
		},
		{
			name: "flat percent on subtotal plus service",
			code: "KAS10",
			cart: Cart{Subtotal: 110, Service: 11, Delivery: true, DeliveryFee: 50},
			want: Resolution{Code: "KAS10", Amount: 12, Note: "10% off subtotal", Status: StatusApplied},
		},
		{
			name: "code is trimmed and case-insensitive",
			code: "  kas10 ",
			cart: Cart{Subtotal: 100},
			want: Resolution{Code: "KAS10", Amount: 10, Note: "10% off subtotal", Status: StatusApplied},
		},
		{
			name: "minimum not met",
			code: "KAS20",
			cart: Cart{Subtotal: 999, Service: 100},
			want: Resolution{Note: "Code KAS20 requires minimum Rs.1000", Status: StatusBelowMinimum},
		},
		{
			name: "minimum met exactly",
			code: "KAS20",
			cart: Cart{Subtotal: 1000},
			want: Resolution{Code: "KAS20", Amount: 200, Note: "20% off orders >= Rs.1000", Status: StatusApplied},
		},
		{
			name: "free delivery without delivery",
			code: "FREEDEL",
			cart: Cart{Subtotal: 5000},
			want: Resolution{Note: "Code FREEDEL applies to delivery only.", Status: StatusDeliveryOnly},
		},
		{
			name: "free delivery offsets the fee exactly",
			code: "freedel",
			cart: Cart{Subtotal: 20, Delivery: true, DeliveryFee: 150},
			want: Resolution{Code: "FREEDEL", Amount: 150, Note: "Delivery fee waived", Status: StatusApplied},
		},
		{
			name: "free delivery with zero fee",
			code: "FREEDEL",
			cart: Cart{Subtotal: 20, Delivery: true},
			want: Resolution{Code: "FREEDEL", Amount: 0, Note: "Delivery fee waived", Status: StatusApplied},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Resolve(tt.code, tt.cart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{name: "empty code", rules: []Rule{{Code: " ", Kind: KindFreeDelivery}}},
		{name: "duplicate after normalization", rules: []Rule{
			{Code: "kas10", Kind: KindFreeDelivery},
			{Code: "KAS10 ", Kind: KindFreeDelivery},
		}},
		{name: "percent above 100", rules: []Rule{{Code: "X", Kind: KindPercent, Percent: decimal.NewFromInt(101)}}},
		{name: "negative percent", rules: []Rule{{Code: "X", Kind: KindPercent, Percent: decimal.NewFromInt(-1)}}},
		{name: "negative minimum", rules: []Rule{{Code: "X", Kind: KindPercent, Percent: decimal.NewFromInt(5), MinSubtotal: -1}}},
		{name: "unknown kind", rules: []Rule{{Code: "X", Kind: Kind("bogus")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.rules...)

			var invalid *InvalidRuleError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestTable_Describe(t *testing.T) {
	table := MustNewTable(
		Rule{Code: "KAS10", Kind: KindPercent, Percent: decimal.NewFromInt(10), Note: "10% off subtotal"},
		Rule{Code: "QUIET", Kind: KindFreeDelivery},
	)

	msg, ok := table.Describe("kas10")
	assert.True(t, ok)
	assert.Equal(t, "10% off subtotal", msg)

	msg, ok = table.Describe("quiet")
	assert.True(t, ok)
	assert.Equal(t, "Valid code", msg)

	msg, ok = table.Describe("nope")
	assert.False(t, ok)
	assert.Equal(t, "Invalid code", msg)

	msg, ok = table.Describe("")
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestTable_RulesKeepOrder(t *testing.T) {
	codes := make([]string, 0, 3)
	for _, r := range Default().Rules() {
		codes = append(codes, r.Code)
	}
	assert.Equal(t, []string{"KAS10", "KAS20", "FREEDEL"}, codes)
}
