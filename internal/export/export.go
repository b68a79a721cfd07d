// Package export encodes orders and the history log as JSON.
package export

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/kas-cafe/internal/domain/discount"
	"github.com/xenking/kas-cafe/internal/domain/order"
)

// FileName is the suggested name of an exported history file.
const FileName = "kas-cafe-history.json"

// EncodeOrder writes o using the same field names as the persisted history.
func EncodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(o.Name) })
		e.Field("contact", func(e *jx.Encoder) { e.Str(o.Contact) })
		e.Field("payment", func(e *jx.Encoder) { e.Str(o.Payment) })
		e.Field("items", func(e *jx.Encoder) {
			if len(o.Items) == 0 {
				e.ArrEmpty()
				return
			}
			e.ArrStart()
			for i := range o.Items {
				encodeItem(e, &o.Items[i])
			}
			e.ArrEnd()
		})
		e.Field("subtotal", func(e *jx.Encoder) { e.Int64(o.Subtotal) })
		e.Field("service", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("applied", func(e *jx.Encoder) { e.Bool(o.Service.Applied) })
				e.Field("percent", func(e *jx.Encoder) { e.Num(jx.Num(o.Service.Percent.String())) })
				e.Field("amount", func(e *jx.Encoder) { e.Int64(o.Service.Amount) })
			})
		})
		e.Field("delivery", func(e *jx.Encoder) {
			d := o.Delivery
			if d == nil {
				e.Null()
				return
			}
			e.Obj(func(e *jx.Encoder) {
				e.Field("address", func(e *jx.Encoder) { e.Str(d.Address) })
				e.Field("note", func(e *jx.Encoder) { e.Str(d.Note) })
				e.Field("time", func(e *jx.Encoder) { e.Str(d.Time) })
				e.Field("fee", func(e *jx.Encoder) { e.Int64(d.Fee) })
			})
		})
		e.Field("discount", func(e *jx.Encoder) { EncodeResolution(e, o.Discount) })
		e.Field("total", func(e *jx.Encoder) { e.Int64(o.Total) })
		e.Field("createdAt", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("iso", func(e *jx.Encoder) { e.Str(o.CreatedAt.ISO) })
				e.Field("display", func(e *jx.Encoder) { e.Str(o.CreatedAt.Display) })
			})
		})
	})
}

func encodeItem(e *jx.Encoder, it *order.LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("label", func(e *jx.Encoder) { e.Str(it.Label) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int64(it.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { e.Int64(it.UnitPrice) })
		e.Field("cost", func(e *jx.Encoder) { e.Int64(it.Cost) })
		e.Field("note", func(e *jx.Encoder) { e.Str(it.Note) })
	})
}

// EncodeResolution writes a discount outcome. Empty code and note are null.
func EncodeResolution(e *jx.Encoder, r discount.Resolution) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { strOrNull(e, r.Code) })
		e.Field("amount", func(e *jx.Encoder) { e.Int64(r.Amount) })
		e.Field("note", func(e *jx.Encoder) { strOrNull(e, r.Note) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(r.Status)) })
	})
}

func strOrNull(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

// EncodeEntry writes one history entry.
func EncodeEntry(e *jx.Encoder, entry *order.HistoryEntry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(entry.ID) })
		e.Field("order", func(e *jx.Encoder) { EncodeOrder(e, &entry.Order) })
	})
}

// EncodeEntries writes entries as a JSON array.
func EncodeEntries(e *jx.Encoder, entries []order.HistoryEntry) {
	if len(entries) == 0 {
		e.ArrEmpty()
		return
	}
	e.ArrStart()
	for i := range entries {
		EncodeEntry(e, &entries[i])
	}
	e.ArrEnd()
}

// WriteHistory writes entries to w as an indented JSON array.
func WriteHistory(w io.Writer, entries []order.HistoryEntry) error {
	var e jx.Encoder
	e.SetIdent(2)
	EncodeEntries(&e, entries)
	e.RawStr("\n")

	if _, err := e.WriteTo(w); err != nil {
		return errors.Wrap(err, "write history")
	}
	return nil
}

// WriteHistoryGzip writes the same document as WriteHistory, gzip-compressed.
func WriteHistoryGzip(w io.Writer, entries []order.HistoryEntry) error {
	zw := pgzip.NewWriter(w)
	if err := WriteHistory(zw, entries); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	return nil
}
