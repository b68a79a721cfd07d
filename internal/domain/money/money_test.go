package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name    string
		base    int64
		percent string
		want    int64
	}{
		{name: "exact", base: 1000, percent: "20", want: 200},
		{name: "rounds down below half", base: 121, percent: "10", want: 12},
		{name: "half rounds away from zero", base: 25, percent: "10", want: 3},
		{name: "another half", base: 105, percent: "10", want: 11},
		{name: "fractional percent", base: 110, percent: "12.5", want: 14},
		{name: "zero percent", base: 500, percent: "0", want: 0},
		{name: "zero base", base: 0, percent: "10", want: 0},
		{name: "negative percent clamps", base: 100, percent: "-10", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentOf(tt.base, decimal.RequireFromString(tt.percent))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Rs.0", Format(0))
	assert.Equal(t, "Rs.1000", Format(1000))
}
