package catalog

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantID  string
	}{
		{
			name:    "empty id",
			entries: []Entry{{ID: " ", Label: "Blank", UnitPrice: 10}},
			wantID:  " ",
		},
		{
			name:    "negative price",
			entries: []Entry{{ID: "tea", Label: "Tea", UnitPrice: -1}},
			wantID:  "tea",
		},
		{
			name:    "price too large",
			entries: []Entry{{ID: "gold", Label: "Gold", UnitPrice: 1_000_000_001}},
			wantID:  "gold",
		},
		{
			name: "duplicate id",
			entries: []Entry{
				{ID: "tea", Label: "Tea", UnitPrice: 40},
				{ID: "tea", Label: "Chai", UnitPrice: 45},
			},
			wantID: "tea",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries...)

			var invalid *InvalidEntryError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.wantID, invalid.ID)
		})
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := MustNew(
		Entry{ID: "tea", Label: "Tea", UnitPrice: 40},
		Entry{ID: "mystery", UnitPrice: 5},
	)

	price, ok := c.Price("tea")
	require.True(t, ok)
	assert.Equal(t, int64(40), price)

	_, ok = c.Price("coffee")
	assert.False(t, ok)

	assert.Equal(t, "Tea", c.Label("tea"))
	assert.Equal(t, "mystery", c.Label("mystery"), "unlabeled item falls back to id")
	assert.Equal(t, "coffee", c.Label("coffee"), "unknown item falls back to id")

	_, err := c.Get("coffee")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalog_EntriesKeepDeclarationOrder(t *testing.T) {
	c := Default()
	require.Equal(t, 9, c.Len())

	ids := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{
		"tea", "samosa", "biscuit", "sandwich", "burger",
		"shawarma", "kasta_quarter", "milk_glass", "gulab_jamun_quarter",
	}, ids)

	// Mutating the returned slice must not leak into the catalog.
	entries := c.Entries()
	entries[0].UnitPrice = 0
	price, _ := c.Price("tea")
	assert.Equal(t, int64(40), price)
}

func TestCatalog_Search(t *testing.T) {
	c := Default()

	got := c.Search("  GULAB ")
	require.Len(t, got, 1)
	assert.Equal(t, "gulab_jamun_quarter", got[0].ID)

	assert.Len(t, c.Search("(1/4)"), 2)
	assert.Len(t, c.Search(""), 9)
	assert.Empty(t, c.Search("pizza"))
}
