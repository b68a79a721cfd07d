package discount

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	// KindPercent takes a percentage off subtotal plus service charge.
	KindPercent Kind = "percent"
	// KindFreeDelivery waives the delivery fee.
	KindFreeDelivery Kind = "free_delivery"
)

// Status records which resolution path a code took.
type Status string

const (
	// StatusNone means no code was entered.
	StatusNone Status = "none"
	// StatusApplied means the code was accepted.
	StatusApplied Status = "applied"
	// StatusInvalid means the code is not in the rule table.
	StatusInvalid Status = "invalid"
	// StatusBelowMinimum means the subtotal did not reach the rule's minimum.
	StatusBelowMinimum Status = "below_minimum"
	// StatusDeliveryOnly means a free-delivery code was used without delivery.
	StatusDeliveryOnly Status = "delivery_only"
)

// Rule defines a discount code's behaviour and eligibility constraints.
type Rule struct {
	Code        string
	Kind        Kind
	Percent     decimal.Decimal
	MinSubtotal int64
	Note        string
}

// Resolution is the outcome of applying (or failing to apply) a code to an
// order. Amount is zero unless Status is StatusApplied. Empty Code and Note
// are written as JSON null.
type Resolution struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
	Status Status `json:"status"`
}

type resolutionJSON struct {
	Code   *string `json:"code"`
	Amount int64   `json:"amount"`
	Note   *string `json:"note"`
	Status Status  `json:"status"`
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(resolutionJSON{
		Code:   nullable(r.Code),
		Amount: r.Amount,
		Note:   nullable(r.Note),
		Status: r.Status,
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Applied reports whether the resolution carries a discount.
func (r Resolution) Applied() bool { return r.Status == StatusApplied }

// Cart is the subset of a priced order a rule needs to decide eligibility.
type Cart struct {
	Subtotal    int64
	Service     int64
	Delivery    bool
	DeliveryFee int64
}

// InvalidRuleError indicates a rule rejected when building a Table.
type InvalidRuleError struct {
	Code   string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid discount rule %q: %s", e.Code, e.Reason)
}

// NormalizeCode trims and upper-cases a user-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
