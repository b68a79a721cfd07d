package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNoDraft is returned when no draft is stored, or the stored draft
	// could not be read.
	ErrNoDraft = errors.New("no saved draft")
	// ErrEntryNotFound is returned when a history entry id does not exist.
	ErrEntryNotFound = errors.New("history entry not found")
	// ErrInvalidConsent is returned for consent answers other than yes/no.
	ErrInvalidConsent = errors.New("consent must be \"yes\" or \"no\"")
	// ErrInvalidTheme is returned for themes other than light/dark.
	ErrInvalidTheme = errors.New("theme must be \"light\" or \"dark\"")
	// ErrTermsNotAccepted is returned when an order is submitted without
	// accepting the terms.
	ErrTermsNotAccepted = errors.New("terms must be accepted")
)

// HistoryEntry is one finalized order in the history log.
type HistoryEntry struct {
	ID    string `json:"id"`
	Order Order  `json:"order"`
}

// Consent is the one-time answer to "keep order history on this device?".
type Consent string

const (
	// ConsentUnset means the question has not been answered yet.
	ConsentUnset Consent = ""
	// ConsentYes allows appending finalized orders to history.
	ConsentYes Consent = "yes"
	// ConsentNo disables history.
	ConsentNo Consent = "no"
)

// ParseConsent validates an answer.
func ParseConsent(s string) (Consent, error) {
	switch c := Consent(strings.ToLower(strings.TrimSpace(s))); c {
	case ConsentYes, ConsentNo:
		return c, nil
	default:
		return ConsentUnset, ErrInvalidConsent
	}
}

// Theme is the persisted UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", ErrInvalidTheme
	}
}

// Store persists the single draft slot, the order waiting for history
// consent, the history log and the history consent flag.
//
// Read paths are tolerant: corrupt stored state is treated as absent
// (LoadDraft returns ErrNoDraft, LoadHistory returns the readable entries).
type Store interface {
	SaveDraft(ctx context.Context, in Input) error
	LoadDraft(ctx context.Context) (*Input, error)
	ClearDraft(ctx context.Context) error

	// HoldPending keeps o until consent is answered, replacing any order
	// held before.
	HoldPending(ctx context.Context, o *Order) error
	// TakePending removes and returns the held order, or nil when nothing
	// is held. Concurrent callers never receive the same order.
	TakePending(ctx context.Context) (*Order, error)

	// AppendHistory assigns a unique id and prepends o to the log.
	AppendHistory(ctx context.Context, o *Order) (*HistoryEntry, error)
	// LoadHistory returns the log newest first.
	LoadHistory(ctx context.Context) ([]HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error

	HistoryConsent(ctx context.Context) (Consent, error)
	SetHistoryConsent(ctx context.Context, c Consent) error
}

// PreferenceStore persists UI preferences.
type PreferenceStore interface {
	// Theme returns ThemeLight when nothing is stored.
	Theme(ctx context.Context) (Theme, error)
	SetTheme(ctx context.Context, t Theme) error
}

// FilterHistory returns entries whose customer name or any item label
// contains query, ignoring case. Order is preserved; an empty query returns
// entries unchanged.
func FilterHistory(entries []HistoryEntry, query string) []HistoryEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if matchesQuery(&e.Order, q) {
			out = append(out, e)
		}
	}
	return out
}

func matchesQuery(o *Order, q string) bool {
	if strings.Contains(strings.ToLower(o.Name), q) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.Label), q) {
			return true
		}
	}
	return false
}
