package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kas-cafe/internal/domain/order"
)

func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.prefs.Theme(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeTheme(w, t)
}

func (h *Handler) PutTheme(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	v, err := decodeField(d, "theme")
	if err != nil {
		badRequest(w, err)
		return
	}
	t, err := order.ParseTheme(v)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.prefs.SetTheme(r.Context(), t); err != nil {
		fail(w, r, err)
		return
	}
	writeTheme(w, t)
}

func writeTheme(w http.ResponseWriter, t order.Theme) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("theme", func(e *jx.Encoder) { e.Str(string(t)) })
		})
	})
}
