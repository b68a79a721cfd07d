package order

import (
	"strings"
	"time"

	"github.com/xenking/kas-cafe/internal/domain/catalog"
	"github.com/xenking/kas-cafe/internal/domain/discount"
	"github.com/xenking/kas-cafe/internal/domain/money"
)

// Resolve turns a raw form snapshot into a priced Order. It has no side
// effects and never fails: malformed numbers are treated as 0.
//
// The stages run in a fixed order because each feeds the next: line items,
// service charge on the subtotal, delivery, discount on subtotal plus
// service, and finally the total clamped at zero.
func Resolve(in Input, cat *catalog.Catalog, rules *discount.Table, at Timestamp) *Order {
	return resolveNormalized(in, Normalize(in, cat), rules, at)
}

func resolveNormalized(in Input, n Normalized, rules *discount.Table, at Timestamp) *Order {
	o := &Order{
		Name:      strings.TrimSpace(in.Name),
		Contact:   strings.TrimSpace(in.Contact),
		Payment:   strings.TrimSpace(in.Payment),
		Items:     make([]LineItem, 0, len(n.Quantities)),
		CreatedAt: at,
	}

	for _, q := range n.Quantities {
		qty := q.Quantity.Value
		if qty <= 0 {
			continue
		}
		cost := qty * q.Entry.UnitPrice
		o.Items = append(o.Items, LineItem{
			ID:        q.Entry.ID,
			Label:     labelOf(q.Entry),
			Quantity:  qty,
			UnitPrice: q.Entry.UnitPrice,
			Cost:      cost,
			Note:      strings.TrimSpace(in.Notes[q.Entry.ID]),
		})
		o.Subtotal += cost
	}

	o.Service = ServiceCharge{
		Applied: in.Service.Applied,
		Percent: n.ServicePercent.Value,
	}
	if o.Service.Applied {
		o.Service.Amount = money.PercentOf(o.Subtotal, o.Service.Percent)
	}

	if in.Delivery != nil {
		o.Delivery = &Delivery{
			Address: strings.TrimSpace(in.Delivery.Address),
			Note:    strings.TrimSpace(in.Delivery.Note),
			Time:    strings.TrimSpace(in.Delivery.Time),
			Fee:     n.DeliveryFee.Value,
		}
	}

	o.Discount = rules.Resolve(in.DiscountCode, discount.Cart{
		Subtotal:    o.Subtotal,
		Service:     o.Service.Amount,
		Delivery:    o.Delivery != nil,
		DeliveryFee: o.DeliveryFee(),
	})

	o.Total = expectedTotal(o.Subtotal, o.Service.Amount, o.DeliveryFee(), o.Discount.Amount)
	return o
}

func labelOf(e catalog.Entry) string {
	if e.Label == "" {
		return e.ID
	}
	return e.Label
}

// Engine resolves orders against a fixed catalog and rule table using an
// injected clock.
type Engine struct {
	catalog *catalog.Catalog
	rules   *discount.Table
	format  DisplayFormat
	now     func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now as the source of order timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. A zero DisplayFormat renders local time with
// DefaultDisplayLayout.
func NewEngine(cat *catalog.Catalog, rules *discount.Table, format DisplayFormat, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: cat,
		rules:   rules,
		format:  format,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the menu the engine prices against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Rules returns the discount table the engine applies.
func (e *Engine) Rules() *discount.Table { return e.rules }

// Resolve prices in at the current instant.
func (e *Engine) Resolve(in Input) *Order {
	o, _ := e.resolve(in)
	return o
}

// resolve also returns the normalized input so callers can report coerced
// fields without parsing twice.
func (e *Engine) resolve(in Input) (*Order, Normalized) {
	n := Normalize(in, e.catalog)
	at := NewTimestamp(e.now(), e.format)
	return resolveNormalized(in, n, e.rules, at), n
}
