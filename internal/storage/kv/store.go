package kv

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/kas-cafe/internal/domain/order"
)

// Keys of the persisted documents.
const (
	KeyDraft   = "kasCafeOrder"
	KeyPending = "kasCafePendingOrder"
	KeyHistory = "kasCafeOrders"
	KeyConsent = "kasCafeHistoryPermission"
	KeyTheme   = "kasCafeTheme"
)

var (
	_ order.Store           = (*Store)(nil)
	_ order.PreferenceStore = (*Store)(nil)
)

// Store implements order.Store and order.PreferenceStore over a Backend.
//
// The history is a single JSON array, newest first. Entries that fail to
// decode are skipped on read but kept byte-for-byte on write, so one corrupt
// record never takes the rest of the log with it.
type Store struct {
	backend Backend
	newID   func() string
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		newID:   uuid.NewString,
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }

func (s *Store) SaveDraft(ctx context.Context, in order.Input) error {
	data, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal draft")
	}
	if err := s.backend.Set(ctx, KeyDraft, data); err != nil {
		return errors.Wrap(err, "set draft")
	}
	return nil
}

func (s *Store) LoadDraft(ctx context.Context) (*order.Input, error) {
	data, err := s.backend.Get(ctx, KeyDraft)
	if errors.Is(err, ErrNotFound) {
		return nil, order.ErrNoDraft
	}
	if err != nil {
		return nil, errors.Wrap(err, "get draft")
	}

	var in order.Input
	if err := json.Unmarshal(data, &in); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable draft", zap.Error(err))
		return nil, order.ErrNoDraft
	}
	return &in, nil
}

func (s *Store) ClearDraft(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyDraft); err != nil {
		return errors.Wrap(err, "delete draft")
	}
	return nil
}

func (s *Store) HoldPending(ctx context.Context, o *order.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "marshal pending order")
	}
	if err := s.backend.Set(ctx, KeyPending, data); err != nil {
		return errors.Wrap(err, "set pending order")
	}
	return nil
}

// TakePending empties the pending key in one Update, so two consent answers
// racing for the same order see it at most once.
func (s *Store) TakePending(ctx context.Context) (*order.Order, error) {
	var held []byte
	err := s.backend.Update(ctx, KeyPending, func(old []byte) ([]byte, error) {
		held = old
		return []byte{}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "take pending order")
	}
	if len(held) == 0 {
		return nil, nil
	}

	var o order.Order
	if err := json.Unmarshal(held, &o); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable pending order", zap.Error(err))
		return nil, nil
	}
	return &o, nil
}

func (s *Store) AppendHistory(ctx context.Context, o *order.Order) (*order.HistoryEntry, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid order")
	}

	entry := order.HistoryEntry{ID: s.newID(), Order: *o}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, errors.Wrap(err, "marshal history entry")
	}

	err = s.backend.Update(ctx, KeyHistory, func(old []byte) ([]byte, error) {
		records := decodeRecords(ctx, old)
		next := make([]json.RawMessage, 0, len(records)+1)
		next = append(next, raw)
		next = append(next, records...)
		return json.Marshal(next)
	})
	if err != nil {
		return nil, errors.Wrap(err, "update history")
	}
	return &entry, nil
}

func (s *Store) LoadHistory(ctx context.Context) ([]order.HistoryEntry, error) {
	data, err := s.backend.Get(ctx, KeyHistory)
	if errors.Is(err, ErrNotFound) {
		return []order.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get history")
	}

	records := decodeRecords(ctx, data)
	entries := make([]order.HistoryEntry, 0, len(records))
	for i, r := range records {
		var e order.HistoryEntry
		if err := json.Unmarshal(r, &e); err != nil {
			zctx.From(ctx).Warn("Skipping unreadable history entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) DeleteHistoryEntry(ctx context.Context, id string) error {
	found := false
	err := s.backend.Update(ctx, KeyHistory, func(old []byte) ([]byte, error) {
		found = false
		records := decodeRecords(ctx, old)
		next := make([]json.RawMessage, 0, len(records))
		for _, r := range records {
			if !found && recordID(r) == id {
				found = true
				continue
			}
			next = append(next, r)
		}
		return json.Marshal(next)
	})
	if err != nil {
		return errors.Wrap(err, "update history")
	}
	if !found {
		return order.ErrEntryNotFound
	}
	return nil
}

func (s *Store) ClearHistory(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyHistory); err != nil {
		return errors.Wrap(err, "delete history")
	}
	return nil
}

func (s *Store) HistoryConsent(ctx context.Context) (order.Consent, error) {
	data, err := s.backend.Get(ctx, KeyConsent)
	if errors.Is(err, ErrNotFound) {
		return order.ConsentUnset, nil
	}
	if err != nil {
		return order.ConsentUnset, errors.Wrap(err, "get consent")
	}

	c, err := order.ParseConsent(string(data))
	if err != nil {
		zctx.From(ctx).Warn("Ignoring unknown consent value", zap.ByteString("value", data))
		return order.ConsentUnset, nil
	}
	return c, nil
}

func (s *Store) SetHistoryConsent(ctx context.Context, c order.Consent) error {
	if _, err := order.ParseConsent(string(c)); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, KeyConsent, []byte(c)); err != nil {
		return errors.Wrap(err, "set consent")
	}
	return nil
}

func (s *Store) Theme(ctx context.Context) (order.Theme, error) {
	data, err := s.backend.Get(ctx, KeyTheme)
	if errors.Is(err, ErrNotFound) {
		return order.ThemeLight, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "get theme")
	}

	t, err := order.ParseTheme(string(data))
	if err != nil {
		zctx.From(ctx).Warn("Ignoring unknown theme value", zap.ByteString("value", data))
		return order.ThemeLight, nil
	}
	return t, nil
}

func (s *Store) SetTheme(ctx context.Context, t order.Theme) error {
	if _, err := order.ParseTheme(string(t)); err != nil {
		return err
	}
	if err := s.backend.Set(ctx, KeyTheme, []byte(t)); err != nil {
		return errors.Wrap(err, "set theme")
	}
	return nil
}

// decodeRecords splits a stored history array into raw records. A value that
// is not a JSON array is treated as an empty log.
func decodeRecords(ctx context.Context, data []byte) []json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable history log", zap.Error(err))
		return nil
	}
	return records
}

func recordID(r json.RawMessage) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r, &head); err != nil {
		return ""
	}
	return head.ID
}
