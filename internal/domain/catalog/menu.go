package catalog

// Default returns the cafe's standard menu.
func Default() *Catalog {
	return MustNew(
		Entry{ID: "tea", Label: "Tea", UnitPrice: 40},
		Entry{ID: "samosa", Label: "Samosa", UnitPrice: 30},
		Entry{ID: "biscuit", Label: "Biscuit", UnitPrice: 20},
		Entry{ID: "sandwich", Label: "Sandwich", UnitPrice: 120},
		Entry{ID: "burger", Label: "Burger", UnitPrice: 100},
		Entry{ID: "shawarma", Label: "Shawarma", UnitPrice: 150},
		Entry{ID: "kasta_quarter", Label: "Kasta (1/4)", UnitPrice: 100},
		Entry{ID: "milk_glass", Label: "Milk (Glass)", UnitPrice: 50},
		Entry{ID: "gulab_jamun_quarter", Label: "Gulab Jamun (1/4)", UnitPrice: 150},
	)
}
