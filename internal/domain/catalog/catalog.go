package catalog

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kas-cafe/internal/domain/money"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Entry is a single menu item available for ordering.
type Entry struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	UnitPrice int64  `json:"unitPrice"`
}

// InvalidEntryError indicates a catalog entry rejected at load time.
type InvalidEntryError struct {
	ID     string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid menu item %q: %s", e.ID, e.Reason)
}

// Catalog is an ordered, immutable set of menu items. Iteration order is
// declaration order, which also drives the order of line items on a bill.
type Catalog struct {
	entries []Entry
	byID    map[string]int
}

// New validates entries and builds a Catalog from them.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		switch {
		case strings.TrimSpace(e.ID) == "":
			return nil, &InvalidEntryError{ID: e.ID, Reason: "empty id"}
		case e.UnitPrice < 0:
			return nil, &InvalidEntryError{ID: e.ID, Reason: "negative unit price"}
		case e.UnitPrice > money.MaxAmount:
			return nil, &InvalidEntryError{ID: e.ID, Reason: "unit price too large"}
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, &InvalidEntryError{ID: e.ID, Reason: "duplicate id"}
		}
		c.byID[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// MustNew is like New but panics on invalid entries. Intended for static
// tables declared in code.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns a copy of all entries in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of menu items.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Get is like Lookup but reports a missing item as ErrNotFound.
func (c *Catalog) Get(id string) (Entry, error) {
	e, ok := c.Lookup(id)
	if !ok {
		return Entry{}, errors.Wrapf(ErrNotFound, "get %q", id)
	}
	return e, nil
}

// Price returns the unit price for id.
func (c *Catalog) Price(id string) (int64, bool) {
	e, ok := c.Lookup(id)
	return e.UnitPrice, ok
}

// Label returns the display label for id, falling back to the raw id when
// the item is unknown or unlabeled.
func (c *Catalog) Label(id string) string {
	if e, ok := c.Lookup(id); ok && e.Label != "" {
		return e.Label
	}
	return id
}

// Search returns entries whose label or id contains query, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Entries()
	}
	var out []Entry
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Label), q) || strings.Contains(strings.ToLower(e.ID), q) {
			out = append(out, e)
		}
	}
	return out
}
