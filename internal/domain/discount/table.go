package discount

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Table is an immutable set of discount rules keyed by normalized code.
type Table struct {
	rules map[string]Rule
	order []string
}

// NewTable validates rules and builds a Table. Codes are stored upper-cased.
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{
		rules: make(map[string]Rule, len(rules)),
		order: make([]string, 0, len(rules)),
	}
	for _, r := range rules {
		code := NormalizeCode(r.Code)
		if code == "" {
			return nil, &InvalidRuleError{Code: r.Code, Reason: "empty code"}
		}
		if _, dup := t.rules[code]; dup {
			return nil, &InvalidRuleError{Code: code, Reason: "duplicate code"}
		}
		switch r.Kind {
		case KindPercent:
			if r.Percent.IsNegative() || r.Percent.GreaterThan(hundred) {
				return nil, &InvalidRuleError{Code: code, Reason: "percent must be within [0, 100]"}
			}
			if r.MinSubtotal < 0 {
				return nil, &InvalidRuleError{Code: code, Reason: "negative minimum subtotal"}
			}
		case KindFreeDelivery:
		default:
			return nil, &InvalidRuleError{Code: code, Reason: "unsupported kind " + string(r.Kind)}
		}
		r.Code = code
		t.rules[code] = r
		t.order = append(t.order, code)
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on invalid rules.
func MustNewTable(rules ...Rule) *Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the rule for a user-entered code. The code is trimmed and
// matched case-insensitively.
func (t *Table) Lookup(code string) (Rule, bool) {
	r, ok := t.rules[NormalizeCode(code)]
	return r, ok
}

// Rules returns all rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.rules[code])
	}
	return out
}

// Describe returns the feedback shown next to the code field while the
// customer types: the rule note for known codes, "Invalid code" otherwise,
// and nothing for an empty field.
func (t *Table) Describe(code string) (msg string, valid bool) {
	if NormalizeCode(code) == "" {
		return "", false
	}
	r, ok := t.Lookup(code)
	if !ok {
		return "Invalid code", false
	}
	if r.Note == "" {
		return "Valid code", true
	}
	return r.Note, true
}

// Default returns the cafe's standard discount codes.
func Default() *Table {
	return MustNewTable(
		Rule{Code: "KAS10", Kind: KindPercent, Percent: decimal.NewFromInt(10), Note: "10% off subtotal"},
		Rule{Code: "KAS20", Kind: KindPercent, Percent: decimal.NewFromInt(20), MinSubtotal: 1000, Note: "20% off orders >= Rs.1000"},
		Rule{Code: "FREEDEL", Kind: KindFreeDelivery, Note: "Delivery fee waived"},
	)
}
