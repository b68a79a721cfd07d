package order

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/kas-cafe/internal/domain/catalog"
	"github.com/xenking/kas-cafe/internal/domain/money"
)

// Input is the raw snapshot of the order form exactly as the customer left
// it: every numeric field is kept as the text that was typed. The same shape
// is persisted as the draft, so reloading a draft and resolving it again
// reproduces the same order.
type Input struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Payment string `json:"payment"`

	// Quantities and Notes are keyed by catalog item id. Keys that are not
	// in the catalog are ignored.
	Quantities map[string]string `json:"quantities"`
	Notes      map[string]string `json:"notes"`

	// Delivery is nil when delivery was not requested.
	Delivery *DeliveryInput `json:"delivery"`
	Service  ServiceInput   `json:"service"`

	DiscountCode string `json:"discountCode"`

	// AcceptTerms is the terms checkbox. It gates submission and is not
	// kept in the draft.
	AcceptTerms bool `json:"-"`
}

// DeliveryInput holds the raw delivery sub-form.
type DeliveryInput struct {
	Address string `json:"address"`
	Note    string `json:"note"`
	Time    string `json:"time"`
	Fee     string `json:"fee"`
}

// ServiceInput holds the service charge toggle and its raw percentage.
type ServiceInput struct {
	Applied bool   `json:"applied"`
	Percent string `json:"percent"`
}

// FieldState tells how a raw field turned into its value.
type FieldState uint8

const (
	// FieldAbsent means the field was empty; the zero value was used.
	FieldAbsent FieldState = iota
	// FieldCoerced means the field was malformed and was normalized.
	FieldCoerced
	// FieldValid means the field parsed cleanly.
	FieldValid
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldCoerced:
		return "coerced"
	case FieldValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Parsed is a normalized field value together with how it was obtained.
type Parsed[T any] struct {
	Value T
	State FieldState
}

// Bounds for form numbers. Anything outside them is coerced to 0, which keeps
// every derived amount far from int64 overflow and keeps decimal arithmetic
// cheap.
const (
	MaxQuantity = 100_000
	// maxNumberLength limits the text of decimal fields.
	maxNumberLength = 32
)

// MaxPercent is the largest accepted service percentage.
var MaxPercent = decimal.NewFromInt(1000)

var maxAmount = decimal.NewFromInt(money.MaxAmount)

// ParseQuantity reads an item quantity. Like a browser's parseInt it takes the
// leading integer of the text ("3 plates" is 3, "2.7" is 2); text without a
// leading integer is 0. Quantities above MaxQuantity are coerced to 0.
func ParseQuantity(raw string) Parsed[int64] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Parsed[int64]{State: FieldAbsent}
	}

	end := 0
	if s[0] == '+' || s[0] == '-' {
		end = 1
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return Parsed[int64]{State: FieldCoerced}
	}

	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || v > MaxQuantity {
		return Parsed[int64]{State: FieldCoerced}
	}
	if end != len(s) {
		return Parsed[int64]{Value: v, State: FieldCoerced}
	}
	return Parsed[int64]{Value: v, State: FieldValid}
}

// ParseAmount reads a whole-rupee amount such as the delivery fee.
// Non-numeric, negative and out-of-range input (above money.MaxAmount)
// becomes 0; fractions are rounded half away from zero.
func ParseAmount(raw string) Parsed[int64] {
	d := parseNumber(raw)
	if d.State != FieldValid {
		return Parsed[int64]{State: d.State}
	}
	if d.Value.IsNegative() || d.Value.GreaterThan(maxAmount) {
		return Parsed[int64]{State: FieldCoerced}
	}

	rounded := d.Value.Round(0)
	if !rounded.Equal(d.Value) {
		return Parsed[int64]{Value: rounded.IntPart(), State: FieldCoerced}
	}
	return Parsed[int64]{Value: rounded.IntPart(), State: FieldValid}
}

// ParsePercent reads a percentage. Non-numeric, negative and out-of-range
// input (above MaxPercent) becomes 0.
func ParsePercent(raw string) Parsed[decimal.Decimal] {
	d := parseNumber(raw)
	if d.State == FieldValid && (d.Value.IsNegative() || d.Value.GreaterThan(MaxPercent)) {
		return Parsed[decimal.Decimal]{Value: zeroPercent, State: FieldCoerced}
	}
	return d
}

var zeroPercent = decimal.RequireFromString("0")

// parseNumber accepts plain decimal notation only. Exponents are rejected
// because "1e100000000" is short text with an enormous scale.
func parseNumber(raw string) Parsed[decimal.Decimal] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Parsed[decimal.Decimal]{Value: zeroPercent, State: FieldAbsent}
	}
	if len(s) > maxNumberLength || strings.ContainsAny(s, "eE") {
		return Parsed[decimal.Decimal]{Value: zeroPercent, State: FieldCoerced}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Parsed[decimal.Decimal]{Value: zeroPercent, State: FieldCoerced}
	}
	return Parsed[decimal.Decimal]{Value: d, State: FieldValid}
}

// Normalized is the parsed view of an Input.
type Normalized struct {
	// Quantities holds one entry per catalog item, in catalog order.
	Quantities     []ParsedQuantity
	ServicePercent Parsed[decimal.Decimal]
	DeliveryFee    Parsed[int64]
}

// ParsedQuantity pairs a catalog item with its parsed quantity.
type ParsedQuantity struct {
	Entry    catalog.Entry
	Quantity Parsed[int64]
}

// Normalize parses every numeric field of in against cat.
func Normalize(in Input, cat *catalog.Catalog) Normalized {
	entries := cat.Entries()
	n := Normalized{
		Quantities:     make([]ParsedQuantity, len(entries)),
		ServicePercent: ParsePercent(in.Service.Percent),
	}
	for i, e := range entries {
		n.Quantities[i] = ParsedQuantity{Entry: e, Quantity: ParseQuantity(in.Quantities[e.ID])}
	}
	if in.Delivery != nil {
		n.DeliveryFee = ParseAmount(in.Delivery.Fee)
	}
	return n
}

// Coerced lists the fields whose raw text was malformed, e.g. "quantity.tea"
// or "delivery.fee".
func (n Normalized) Coerced() []string {
	var out []string
	for _, q := range n.Quantities {
		if q.Quantity.State == FieldCoerced {
			out = append(out, "quantity."+q.Entry.ID)
		}
	}
	if n.ServicePercent.State == FieldCoerced {
		out = append(out, "service.percent")
	}
	if n.DeliveryFee.State == FieldCoerced {
		out = append(out, "delivery.fee")
	}
	return out
}
