package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kas-cafe/internal/domain/catalog"
	"github.com/xenking/kas-cafe/internal/domain/discount"
	"github.com/xenking/kas-cafe/internal/domain/order"
)

func newOrder(name string, qty map[string]string) *order.Order {
	at := order.NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), order.DisplayFormat{Location: time.UTC})
	return order.Resolve(order.Input{Name: name, Quantities: qty}, catalog.Default(), discount.Default(), at)
}

func TestStore_Draft(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	_, err := s.LoadDraft(ctx)
	require.ErrorIs(t, err, order.ErrNoDraft)

	in := order.Input{
		Name:         "Kiran",
		Quantities:   map[string]string{"tea": "2", "samosa": "1x"},
		Notes:        map[string]string{"tea": "strong"},
		Delivery:     &order.DeliveryInput{Address: "HSR", Fee: "40"},
		Service:      order.ServiceInput{Applied: true, Percent: "7.5"},
		DiscountCode: "kas10",
	}
	require.NoError(t, s.SaveDraft(ctx, in))

	got, err := s.LoadDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, *got)

	// A later save overwrites the single slot.
	in.Name = "Kiran R"
	require.NoError(t, s.SaveDraft(ctx, in))
	got, err = s.LoadDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kiran R", got.Name)

	require.NoError(t, s.ClearDraft(ctx))
	_, err = s.LoadDraft(ctx)
	require.ErrorIs(t, err, order.ErrNoDraft)
}

func TestStore_CorruptDraft(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Set(ctx, KeyDraft, []byte("{not json")))

	_, err := NewStore(b).LoadDraft(ctx)
	require.ErrorIs(t, err, order.ErrNoDraft)
}

func TestStore_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	empty, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := s.AppendHistory(ctx, newOrder("Asha", map[string]string{"tea": "1"}))
	require.NoError(t, err)
	second, err := s.AppendHistory(ctx, newOrder("Bala", map[string]string{"burger": "2"}))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, "Bala", entries[0].Order.Name)
	assert.Equal(t, int64(200), entries[0].Order.Total)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, "2026-01-02T03:04:05.000Z", entries[1].Order.CreatedAt.ISO)
}

func TestStore_AppendRejectsInvalidOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	o := newOrder("Asha", map[string]string{"tea": "1"})
	o.Total = 999

	_, err := s.AppendHistory(ctx, o)
	require.Error(t, err)

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_DeletePreservesOtherRecords(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	s := NewStore(b)

	ids := make([]string, 0, 3)
	for i := range 3 {
		e, err := s.AppendHistory(ctx, newOrder(fmt.Sprintf("c%d", i), map[string]string{"tea": "1"}))
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	// Splice an unreadable record into the middle of the log.
	raw, err := b.Get(ctx, KeyHistory)
	require.NoError(t, err)
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &records))
	garbage := json.RawMessage(`{"id":"legacy","order":"???"}`)
	records = append(records[:1], append([]json.RawMessage{garbage}, records[1:]...)...)
	raw, err = json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, KeyHistory, raw))

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3, "unreadable entry is skipped")

	require.NoError(t, s.DeleteHistoryEntry(ctx, ids[1]))
	require.ErrorIs(t, s.DeleteHistoryEntry(ctx, "missing"), order.ErrEntryNotFound)

	entries, err = s.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[0], entries[1].ID)

	raw, err = b.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `{"id":"legacy","order":"???"}`)
}

func TestStore_CorruptHistoryLog(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Set(ctx, KeyHistory, []byte(`{"oops":true}`)))
	s := NewStore(b)

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.AppendHistory(ctx, newOrder("Asha", map[string]string{"tea": "1"}))
	require.NoError(t, err)

	entries, err = s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_ClearHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	_, err := s.AppendHistory(ctx, newOrder("Asha", map[string]string{"tea": "1"}))
	require.NoError(t, err)
	require.NoError(t, s.ClearHistory(ctx))

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	const n = 32
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendHistory(ctx, newOrder(fmt.Sprintf("c%d", i), map[string]string{"tea": "1"}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := s.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestStore_Consent(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	s := NewStore(b)

	c, err := s.HistoryConsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ConsentUnset, c)

	require.ErrorIs(t, s.SetHistoryConsent(ctx, order.Consent("later")), order.ErrInvalidConsent)

	require.NoError(t, s.SetHistoryConsent(ctx, order.ConsentNo))
	c, err = s.HistoryConsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ConsentNo, c)

	raw, err := b.Get(ctx, KeyConsent)
	require.NoError(t, err)
	assert.Equal(t, "no", string(raw))

	require.NoError(t, b.Set(ctx, KeyConsent, []byte("perhaps")))
	c, err = s.HistoryConsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ConsentUnset, c)
}

func TestStore_Theme(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())

	th, err := s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ThemeLight, th)

	require.NoError(t, s.SetTheme(ctx, order.ThemeDark))
	th, err = s.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ThemeDark, th)

	require.ErrorIs(t, s.SetTheme(ctx, order.Theme("sepia")), order.ErrInvalidTheme)
}

func TestMemory_UpdateErrorLeavesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("v1")))

	err := m.Update(ctx, "k", func(old []byte) ([]byte, error) {
		assert.Equal(t, "v1", string(old))
		return nil, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v))

	_, err = m.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PendingOrder(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	s := NewStore(b)

	none, err := s.TakePending(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.HoldPending(ctx, newOrder("Asha", map[string]string{"tea": "1"})))
	held := newOrder("Bala", map[string]string{"burger": "2"})
	require.NoError(t, s.HoldPending(ctx, held))

	// Another store over the same backend sees the latest held order.
	got, err := NewStore(b).TakePending(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Bala", got.Name)
	assert.Equal(t, held.Total, got.Total)
	assert.Equal(t, held.Items, got.Items)

	again, err := s.TakePending(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestStore_PendingTakenOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemory())
	require.NoError(t, s.HoldPending(ctx, newOrder("Asha", map[string]string{"tea": "1"})))

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := s.TakePending(ctx)
			assert.NoError(t, err)
			if o != nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, taken)
}

func TestStore_CorruptPendingOrder(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	require.NoError(t, b.Set(ctx, KeyPending, []byte("[1,")))

	o, err := NewStore(b).TakePending(ctx)
	require.NoError(t, err)
	assert.Nil(t, o)
}
