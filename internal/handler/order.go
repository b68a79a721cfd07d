package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kas-cafe/internal/export"
)

// Menu lists catalog entries, optionally filtered by the q query parameter.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	cat := h.orders.Engine().Catalog()
	entries := cat.Search(r.URL.Query().Get("q"))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.ArrStart()
				for _, c := range entries {
					encodeEntry(e, c)
				}
				e.ArrEnd()
			})
		})
	})
}

// DescribeDiscount gives live feedback on a discount code while it is typed.
func (h *Handler) DescribeDiscount(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	msg, valid := h.orders.Engine().Rules().Describe(code)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(code) })
			e.Field("valid", func(e *jx.Encoder) { e.Bool(valid) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// PreviewOrder prices the posted form without saving anything.
func (h *Handler) PreviewOrder(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	in, err := decodeInput(d)
	if err != nil {
		badRequest(w, err)
		return
	}

	o := h.orders.Preview(r.Context(), in)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { export.EncodeOrder(e, o) })
}

// SubmitOrder prices the posted form, saves it as the draft and records it
// in history when consent allows.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	in, err := decodeInput(d)
	if err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.orders.Submit(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeSubmit(e, res) })
}

// GetDraft returns the saved form together with its re-priced order.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	in, o, err := h.orders.ReloadDraft(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("draft", func(e *jx.Encoder) { encodeInput(e, in) })
			e.Field("order", func(e *jx.Encoder) { export.EncodeOrder(e, o) })
		})
	})
}

func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.ClearDraft(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
