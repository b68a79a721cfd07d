package order

import (
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kas-cafe/internal/domain/discount"
)

// Order is a fully resolved bill. It is built once per submission and never
// mutated afterwards; a new submission produces a new Order.
type Order struct {
	Name      string              `json:"name"`
	Contact   string              `json:"contact"`
	Payment   string              `json:"payment"`
	Items     []LineItem          `json:"items"`
	Subtotal  int64               `json:"subtotal"`
	Service   ServiceCharge       `json:"service"`
	Delivery  *Delivery           `json:"delivery"`
	Discount  discount.Resolution `json:"discount"`
	Total     int64               `json:"total"`
	CreatedAt Timestamp           `json:"createdAt"`
}

// LineItem is one ordered menu item. Cost is Quantity * UnitPrice.
type LineItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Cost      int64  `json:"cost"`
	Note      string `json:"note"`
}

// ServiceCharge is the optional percentage added on top of the subtotal.
// Percent is written as a JSON number; quoted strings are still read.
type ServiceCharge struct {
	Applied bool            `json:"applied"`
	Percent decimal.Decimal `json:"percent"`
	Amount  int64           `json:"amount"`
}

func (s ServiceCharge) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Applied bool        `json:"applied"`
		Percent json.Number `json:"percent"`
		Amount  int64       `json:"amount"`
	}{s.Applied, json.Number(s.Percent.String()), s.Amount})
}

// Delivery holds delivery details. A nil *Delivery means pickup.
type Delivery struct {
	Address string `json:"address"`
	Note    string `json:"note"`
	Time    string `json:"time"`
	Fee     int64  `json:"fee"`
}

// DeliveryFee returns the fee, or 0 when no delivery was requested.
func (o *Order) DeliveryFee() int64 {
	if o.Delivery == nil {
		return 0
	}
	return o.Delivery.Fee
}

// Timestamp is the creation instant in two renderings taken from a single
// clock read: a sortable ISO-8601 UTC string and a localized display string.
type Timestamp struct {
	ISO     string `json:"iso"`
	Display string `json:"display"`
}

// isoLayout matches what browsers produce for Date.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// DefaultDisplayLayout mirrors an en-US toLocaleString rendering.
const DefaultDisplayLayout = "1/2/2006, 3:04:05 PM"

// DisplayFormat controls how the display half of a Timestamp is rendered.
type DisplayFormat struct {
	Layout   string
	Location *time.Location
}

// NewTimestamp renders t in both forms.
func NewTimestamp(t time.Time, f DisplayFormat) Timestamp {
	layout := f.Layout
	if layout == "" {
		layout = DefaultDisplayLayout
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return Timestamp{
		ISO:     t.UTC().Format(isoLayout),
		Display: t.In(loc).Format(layout),
	}
}

// Time parses the ISO half back into a time.Time.
func (ts Timestamp) Time() (time.Time, error) {
	return time.Parse(isoLayout, ts.ISO)
}

// Validate checks the arithmetic invariants of a resolved order. Orders built
// by Resolve always pass; the check guards the persistence boundary against
// hand-built or corrupted records.
func (o *Order) Validate() error {
	var subtotal int64
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return errors.Errorf("item %q: quantity %d must be positive", it.ID, it.Quantity)
		}
		if it.UnitPrice < 0 {
			return errors.Errorf("item %q: negative unit price", it.ID)
		}
		if it.Cost != it.Quantity*it.UnitPrice {
			return errors.Errorf("item %q: cost %d != %d x %d", it.ID, it.Cost, it.Quantity, it.UnitPrice)
		}
		subtotal += it.Cost
	}
	if subtotal != o.Subtotal {
		return errors.Errorf("subtotal %d != sum of items %d", o.Subtotal, subtotal)
	}
	if !o.Service.Applied && o.Service.Amount != 0 {
		return errors.Errorf("service amount %d without service applied", o.Service.Amount)
	}
	if o.Service.Amount < 0 || o.DeliveryFee() < 0 || o.Discount.Amount < 0 {
		return errors.Errorf("negative charge")
	}
	if want := expectedTotal(o.Subtotal, o.Service.Amount, o.DeliveryFee(), o.Discount.Amount); o.Total != want {
		return errors.Errorf("total %d != %d", o.Total, want)
	}
	return nil
}

func expectedTotal(subtotal, service, deliveryFee, discountAmount int64) int64 {
	return max(0, subtotal+service+deliveryFee-discountAmount)
}
