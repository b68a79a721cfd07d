package handler

import (
	"bytes"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kas-cafe/internal/domain/order"
	"github.com/xenking/kas-cafe/internal/export"
	"github.com/xenking/kas-cafe/internal/receipt"
)

// ListHistory returns history entries newest first. The q parameter filters
// by customer name or item label.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.orders.History(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("entries", func(e *jx.Encoder) { export.EncodeEntries(e, entries) })
		})
	})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.ClearHistory(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteHistoryEntry(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Receipt renders one history entry as a printable plain-text receipt.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	entry, err := h.orders.HistoryEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := receipt.Render(w, &entry.Order, receipt.Options{ShopName: h.shopName}); err != nil {
		fail(w, r, err)
	}
}

// ExportHistory downloads the whole log as a JSON file.
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.orders.History(r.Context(), "")
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, entries); err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) GetConsent(w http.ResponseWriter, r *http.Request) {
	c, err := h.orders.HistoryConsent(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("consent", func(e *jx.Encoder) { encodeConsent(e, c) })
		})
	})
}

// PutConsent answers the history question. Answering "yes" records the
// order submitted while the question was open.
func (h *Handler) PutConsent(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	v, err := decodeField(d, "consent")
	if err != nil {
		badRequest(w, err)
		return
	}
	c, err := order.ParseConsent(v)
	if err != nil {
		fail(w, r, err)
		return
	}

	entry, err := h.orders.AnswerConsent(r.Context(), c)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("consent", func(e *jx.Encoder) { encodeConsent(e, c) })
			if entry != nil {
				e.Field("entryId", func(e *jx.Encoder) { e.Str(entry.ID) })
			}
		})
	})
}
