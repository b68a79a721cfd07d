package discount

import (
	"fmt"

	"github.com/xenking/kas-cafe/internal/domain/money"
)

// InvalidCodeNote is the note attached to codes missing from the table.
const InvalidCodeNote = "Invalid discount code"

// Resolve applies the rule matching code to cart. It never fails: unknown or
// ineligible codes resolve to a zero amount with an explanatory note.
//
// Percent rules use subtotal plus service charge as their base; the delivery
// fee is never discounted by a percentage. Free-delivery rules offset the
// delivery fee exactly.
func (t *Table) Resolve(code string, cart Cart) Resolution {
	code = NormalizeCode(code)
	if code == "" {
		return Resolution{Status: StatusNone}
	}

	rule, ok := t.rules[code]
	if !ok {
		return Resolution{Note: InvalidCodeNote, Status: StatusInvalid}
	}

	switch rule.Kind {
	case KindPercent:
		return applyPercent(rule, cart)
	case KindFreeDelivery:
		return applyFreeDelivery(rule, cart)
	default:
		// NewTable rejects unknown kinds.
		return Resolution{Note: InvalidCodeNote, Status: StatusInvalid}
	}
}

func applyPercent(rule Rule, cart Cart) Resolution {
	if rule.MinSubtotal > 0 && cart.Subtotal < rule.MinSubtotal {
		return Resolution{
			Note:   fmt.Sprintf("Code %s requires minimum %s", rule.Code, money.Format(rule.MinSubtotal)),
			Status: StatusBelowMinimum,
		}
	}

	base := cart.Subtotal + cart.Service
	return Resolution{
		Code:   rule.Code,
		Amount: money.PercentOf(base, rule.Percent),
		Note:   rule.Note,
		Status: StatusApplied,
	}
}

func applyFreeDelivery(rule Rule, cart Cart) Resolution {
	if !cart.Delivery {
		return Resolution{
			Note:   fmt.Sprintf("Code %s applies to delivery only.", rule.Code),
			Status: StatusDeliveryOnly,
		}
	}
	return Resolution{
		Code:   rule.Code,
		Amount: max(cart.DeliveryFee, 0),
		Note:   rule.Note,
		Status: StatusApplied,
	}
}
