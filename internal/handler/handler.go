// Package handler exposes the order service over HTTP with JSON bodies.
package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kas-cafe/internal/domain/order"
)

// maxBodySize caps request bodies. An order form is a few hundred bytes.
const maxBodySize = 64 << 10

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ShopName is printed in receipt headers.
	ShopName string
}

// Handler serves the POS API, delegating pricing and persistence to the
// order service.
type Handler struct {
	orders   *order.Service
	prefs    order.PreferenceStore
	shopName string
}

// New constructs a Handler.
func New(cfg Config, orders *order.Service, prefs order.PreferenceStore) *Handler {
	return &Handler{
		orders:   orders,
		prefs:    prefs,
		shopName: cfg.ShopName,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.Menu)
	mux.HandleFunc("GET /api/discounts/{code}", h.DescribeDiscount)

	mux.HandleFunc("POST /api/orders/preview", h.PreviewOrder)
	mux.HandleFunc("POST /api/orders", h.SubmitOrder)

	mux.HandleFunc("GET /api/draft", h.GetDraft)
	mux.HandleFunc("DELETE /api/draft", h.ClearDraft)

	mux.HandleFunc("GET /api/history", h.ListHistory)
	mux.HandleFunc("DELETE /api/history", h.ClearHistory)
	mux.HandleFunc("GET /api/history/export", h.ExportHistory)
	mux.HandleFunc("GET /api/history/consent", h.GetConsent)
	mux.HandleFunc("PUT /api/history/consent", h.PutConsent)
	mux.HandleFunc("DELETE /api/history/{id}", h.DeleteHistoryEntry)
	mux.HandleFunc("GET /api/history/{id}/receipt", h.Receipt)

	mux.HandleFunc("GET /api/preferences/theme", h.GetTheme)
	mux.HandleFunc("PUT /api/preferences/theme", h.PutTheme)
}

// readBody reads a JSON request body into a decoder.
func readBody(w http.ResponseWriter, r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(data), nil
}

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	f(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {"code","message"} error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, err.Error())
}

// fail maps domain errors to HTTP statuses. Unknown errors are logged and
// reported as 500 without details.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNoDraft),
		errors.Is(err, order.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidConsent),
		errors.Is(err, order.ErrInvalidTheme),
		errors.Is(err, order.ErrTermsNotAccepted):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
