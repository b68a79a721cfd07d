// Package receipt renders orders as plain-text receipts for printing.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kas-cafe/internal/domain/money"
	"github.com/xenking/kas-cafe/internal/domain/order"
)

// DefaultShopName is printed in the header when Options.ShopName is empty.
const DefaultShopName = "KAS Cafe"

// Options controls receipt rendering.
type Options struct {
	ShopName string
}

// Render writes the receipt for o to w.
func Render(w io.Writer, o *order.Order, opts Options) error {
	var b bytes.Buffer
	write(&b, o, opts)
	if _, err := b.WriteTo(w); err != nil {
		return errors.Wrap(err, "write receipt")
	}
	return nil
}

// String returns the receipt for o.
func String(o *order.Order, opts Options) string {
	var b bytes.Buffer
	write(&b, o, opts)
	return b.String()
}

func write(b *bytes.Buffer, o *order.Order, opts Options) {
	shop := strings.TrimSpace(opts.ShopName)
	if shop == "" {
		shop = DefaultShopName
	}

	fmt.Fprintf(b, "%s - RECEIPT\n", strings.ToUpper(shop))
	fmt.Fprintf(b, "Date: %s\n", o.CreatedAt.Display)
	fmt.Fprintf(b, "Name: %s\n", o.Name)
	fmt.Fprintf(b, "Contact: %s\n", o.Contact)
	fmt.Fprintf(b, "Payment: %s\n", o.Payment)

	b.WriteString("\nItems:\n")
	if len(o.Items) == 0 {
		b.WriteString("- None\n")
	}
	for _, it := range o.Items {
		fmt.Fprintf(b, "- %s x %d = %s\n", it.Label, it.Quantity, money.Format(it.Cost))
		if it.Note != "" {
			fmt.Fprintf(b, "  Note: %s\n", it.Note)
		}
	}

	fmt.Fprintf(b, "\nSubtotal: %s\n", money.Format(o.Subtotal))
	if o.Service.Applied {
		fmt.Fprintf(b, "Service (%s%%): %s\n", o.Service.Percent.String(), money.Format(o.Service.Amount))
	}
	if d := o.Delivery; d != nil {
		addr := d.Address
		if addr == "" {
			addr = "-"
		}
		fmt.Fprintf(b, "Delivery: %s | Fee %s\n", addr, money.Format(d.Fee))
		if d.Time != "" {
			fmt.Fprintf(b, "Delivery time: %s\n", d.Time)
		}
		if d.Note != "" {
			fmt.Fprintf(b, "Delivery note: %s\n", d.Note)
		}
	}
	switch {
	case o.Discount.Amount > 0:
		fmt.Fprintf(b, "Discount (%s): -%s\n", o.Discount.Code, money.Format(o.Discount.Amount))
	case o.Discount.Note != "":
		fmt.Fprintf(b, "Discount: %s\n", o.Discount.Note)
	}

	fmt.Fprintf(b, "\nTOTAL: %s\n", money.Format(o.Total))
}
