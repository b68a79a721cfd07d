package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/kas-cafe/internal/domain/order"
)

// Slots of order_drafts: the form draft and the order waiting for consent.
const (
	draftSlot   = "default"
	pendingSlot = "pending"
)

const (
	prefConsent = "history_consent"
	prefTheme   = "theme"
)

const (
	upsertDraftSQL = `INSERT INTO order_drafts (slot, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

	getDraftSQL = `SELECT payload FROM order_drafts WHERE slot = $1`

	deleteDraftSQL = `DELETE FROM order_drafts WHERE slot = $1`

	takeDraftSQL = `DELETE FROM order_drafts WHERE slot = $1 RETURNING payload`

	insertHistorySQL = `INSERT INTO order_history (id, customer_name, subtotal, service_percent, total, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listHistorySQL = `SELECT id, payload FROM order_history ORDER BY seq DESC`

	deleteHistorySQL = `DELETE FROM order_history WHERE id = $1`

	clearHistorySQL = `DELETE FROM order_history`

	getPreferenceSQL = `SELECT value FROM preferences WHERE key = $1`

	upsertPreferenceSQL = `INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

var (
	_ order.Store           = (*Store)(nil)
	_ order.PreferenceStore = (*Store)(nil)
)

// Store keeps history entries as rows, so concurrent appends from several
// terminals never overwrite each other.
type Store struct {
	pool  *pgxpool.Pool
	newID func() string
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, newID: uuid.NewString}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) SaveDraft(ctx context.Context, in order.Input) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal draft")
	}
	if _, err := s.pool.Exec(ctx, upsertDraftSQL, draftSlot, payload); err != nil {
		return errors.Wrap(err, "save draft")
	}
	return nil
}

func (s *Store) LoadDraft(ctx context.Context) (*order.Input, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, getDraftSQL, draftSlot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNoDraft
	}
	if err != nil {
		return nil, errors.Wrap(err, "load draft")
	}

	var in order.Input
	if err := json.Unmarshal(payload, &in); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable draft", zap.Error(err))
		return nil, order.ErrNoDraft
	}
	return &in, nil
}

func (s *Store) ClearDraft(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, deleteDraftSQL, draftSlot); err != nil {
		return errors.Wrap(err, "clear draft")
	}
	return nil
}

func (s *Store) HoldPending(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "marshal pending order")
	}
	if _, err := s.pool.Exec(ctx, upsertDraftSQL, pendingSlot, payload); err != nil {
		return errors.Wrap(err, "hold pending order")
	}
	return nil
}

func (s *Store) TakePending(ctx context.Context) (*order.Order, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, takeDraftSQL, pendingSlot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "take pending order")
	}

	var o order.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		zctx.From(ctx).Warn("Discarding unreadable pending order", zap.Error(err))
		return nil, nil
	}
	return &o, nil
}

func (s *Store) AppendHistory(ctx context.Context, o *order.Order) (*order.HistoryEntry, error) {
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid order")
	}

	payload, err := json.Marshal(o)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order")
	}
	createdAt, err := o.CreatedAt.Time()
	if err != nil {
		createdAt = time.Now()
	}

	entry := &order.HistoryEntry{ID: s.newID(), Order: *o}
	_, err = s.pool.Exec(ctx, insertHistorySQL,
		entry.ID, o.Name, o.Subtotal, o.Service.Percent, o.Total, createdAt, payload,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert history entry %s", entry.ID)
	}
	return entry, nil
}

func (s *Store) LoadHistory(ctx context.Context) ([]order.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, listHistorySQL)
	if err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	defer rows.Close()

	entries := make([]order.HistoryEntry, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}

		var o order.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			zctx.From(ctx).Warn("Skipping unreadable history entry",
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, order.HistoryEntry{ID: id, Order: o})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}
	return entries, nil
}

func (s *Store) DeleteHistoryEntry(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteHistorySQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete history entry %s", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrEntryNotFound
	}
	return nil
}

func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, clearHistorySQL); err != nil {
		return errors.Wrap(err, "clear history")
	}
	return nil
}

func (s *Store) HistoryConsent(ctx context.Context) (order.Consent, error) {
	v, ok, err := s.preference(ctx, prefConsent)
	if err != nil || !ok {
		return order.ConsentUnset, err
	}
	c, err := order.ParseConsent(v)
	if err != nil {
		zctx.From(ctx).Warn("Ignoring unknown consent value", zap.String("value", v))
		return order.ConsentUnset, nil
	}
	return c, nil
}

func (s *Store) SetHistoryConsent(ctx context.Context, c order.Consent) error {
	if _, err := order.ParseConsent(string(c)); err != nil {
		return err
	}
	return s.setPreference(ctx, prefConsent, string(c))
}

func (s *Store) Theme(ctx context.Context) (order.Theme, error) {
	v, ok, err := s.preference(ctx, prefTheme)
	if err != nil {
		return "", err
	}
	if !ok {
		return order.ThemeLight, nil
	}
	t, err := order.ParseTheme(v)
	if err != nil {
		zctx.From(ctx).Warn("Ignoring unknown theme value", zap.String("value", v))
		return order.ThemeLight, nil
	}
	return t, nil
}

func (s *Store) SetTheme(ctx context.Context, t order.Theme) error {
	if _, err := order.ParseTheme(string(t)); err != nil {
		return err
	}
	return s.setPreference(ctx, prefTheme, string(t))
}

func (s *Store) preference(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.pool.QueryRow(ctx, getPreferenceSQL, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get preference %s", key)
	}
	return v, true, nil
}

func (s *Store) setPreference(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, upsertPreferenceSQL, key, value); err != nil {
		return errors.Wrapf(err, "set preference %s", key)
	}
	return nil
}
