package handler

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kas-cafe/internal/domain/catalog"
	"github.com/xenking/kas-cafe/internal/domain/order"
	"github.com/xenking/kas-cafe/internal/export"
)

// decodeInput reads an order form. Numeric fields are taken as raw text, so
// both "2" and 2 are accepted; the pricing engine decides what they mean.
func decodeInput(d *jx.Decoder) (order.Input, error) {
	var in order.Input
	if d.Next() != jx.Object {
		return in, errors.New("order form must be a JSON object")
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, err = decodeText(d)
		case "contact":
			in.Contact, err = decodeText(d)
		case "payment":
			in.Payment, err = decodeText(d)
		case "quantities":
			in.Quantities, err = decodeTextMap(d)
		case "notes":
			in.Notes, err = decodeTextMap(d)
		case "delivery":
			in.Delivery, err = decodeDelivery(d)
		case "service":
			in.Service, err = decodeService(d)
		case "discountCode":
			in.DiscountCode, err = decodeText(d)
		case "acceptTerms":
			var v string
			v, err = decodeText(d)
			in.AcceptTerms = isChecked(v)
		default:
			return d.Skip()
		}
		return errors.Wrap(err, key)
	})
	return in, err
}

// decodeText reads a scalar as the text a form field would hold.
func decodeText(d *jx.Decoder) (string, error) {
	switch t := d.Next(); t {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Null:
		return "", d.Null()
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default:
		return "", errors.Errorf("unexpected %s", t)
	}
}

func decodeTextMap(d *jx.Decoder) (map[string]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	m := make(map[string]string)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeText(d)
		if err != nil {
			return errors.Wrap(err, key)
		}
		m[key] = v
		return nil
	})
	return m, err
}

// decodeDelivery accepts null or false for pickup, true for delivery with
// empty details, or an object.
func decodeDelivery(d *jx.Decoder) (*order.DeliveryInput, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.Bool:
		on, err := d.Bool()
		if err != nil || !on {
			return nil, err
		}
		return &order.DeliveryInput{}, nil
	}

	var di order.DeliveryInput
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "address":
			di.Address, err = decodeText(d)
		case "note":
			di.Note, err = decodeText(d)
		case "time":
			di.Time, err = decodeText(d)
		case "fee":
			di.Fee, err = decodeText(d)
		default:
			return d.Skip()
		}
		return errors.Wrap(err, key)
	})
	if err != nil {
		return nil, err
	}
	return &di, nil
}

func decodeService(d *jx.Decoder) (order.ServiceInput, error) {
	var si order.ServiceInput
	if d.Next() == jx.Null {
		return si, d.Null()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "applied":
			v, err := decodeText(d)
			if err != nil {
				return errors.Wrap(err, key)
			}
			si.Applied = isChecked(v)
			return nil
		case "percent":
			v, err := decodeText(d)
			si.Percent = v
			return errors.Wrap(err, key)
		default:
			return d.Skip()
		}
	})
	return si, err
}

// isChecked interprets a checkbox value.
func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// decodeField reads a single string field from an object body such as
// {"consent":"yes"}.
func decodeField(d *jx.Decoder, name string) (string, error) {
	if d.Next() != jx.Object {
		return "", errors.New("body must be a JSON object")
	}
	var v string
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		s, err := decodeText(d)
		v = s
		return errors.Wrap(err, key)
	})
	return v, err
}

func encodeInput(e *jx.Encoder, in *order.Input) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(in.Name) })
		e.Field("contact", func(e *jx.Encoder) { e.Str(in.Contact) })
		e.Field("payment", func(e *jx.Encoder) { e.Str(in.Payment) })
		e.Field("quantities", func(e *jx.Encoder) { encodeTextMap(e, in.Quantities) })
		e.Field("notes", func(e *jx.Encoder) { encodeTextMap(e, in.Notes) })
		e.Field("delivery", func(e *jx.Encoder) {
			di := in.Delivery
			if di == nil {
				e.Null()
				return
			}
			e.Obj(func(e *jx.Encoder) {
				e.Field("address", func(e *jx.Encoder) { e.Str(di.Address) })
				e.Field("note", func(e *jx.Encoder) { e.Str(di.Note) })
				e.Field("time", func(e *jx.Encoder) { e.Str(di.Time) })
				e.Field("fee", func(e *jx.Encoder) { e.Str(di.Fee) })
			})
		})
		e.Field("service", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("applied", func(e *jx.Encoder) { e.Bool(in.Service.Applied) })
				e.Field("percent", func(e *jx.Encoder) { e.Str(in.Service.Percent) })
			})
		})
		e.Field("discountCode", func(e *jx.Encoder) { e.Str(in.DiscountCode) })
	})
}

func encodeTextMap(e *jx.Encoder, m map[string]string) {
	if len(m) == 0 {
		e.ObjEmpty()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		for k, v := range m {
			e.Field(k, func(e *jx.Encoder) { e.Str(v) })
		}
	})
}

func encodeEntry(e *jx.Encoder, c catalog.Entry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("label", func(e *jx.Encoder) { e.Str(c.Label) })
		e.Field("unitPrice", func(e *jx.Encoder) { e.Int64(c.UnitPrice) })
	})
}

func encodeSubmit(e *jx.Encoder, res *order.SubmitResult) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("order", func(e *jx.Encoder) { export.EncodeOrder(e, res.Order) })
		e.Field("consent", func(e *jx.Encoder) { encodeConsent(e, res.Consent) })
		e.Field("consentRequired", func(e *jx.Encoder) { e.Bool(res.ConsentRequired) })
		if res.Entry != nil {
			e.Field("entryId", func(e *jx.Encoder) { e.Str(res.Entry.ID) })
		}
	})
}

// encodeConsent writes null for an unanswered question.
func encodeConsent(e *jx.Encoder, c order.Consent) {
	if c == order.ConsentUnset {
		e.Null()
		return
	}
	e.Str(string(c))
}
