package ledger

// Category is the closed set of spending categories the classifier emits.
type Category string

const (
	CategoryGroceries     Category = "Groceries"
	CategoryBills         Category = "Bills"
	CategoryRent          Category = "Rent"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealthcare    Category = "Healthcare"
	CategoryShopping      Category = "Shopping"
	CategoryDining        Category = "Dining"
	CategorySubscriptions Category = "Subscriptions"
	CategoryIncome        Category = "Income"
	CategoryOther         Category = "Other"

	// CategoryInternalTransfer tags movements between the holder's own accounts.
	// It is assigned by the transfer detector, never by keyword rules.
	CategoryInternalTransfer Category = "internal-transfer"
)

// Categories lists the classifier's closed set in display order.
var Categories = []Category{
	CategoryGroceries,
	CategoryBills,
	CategoryRent,
	CategoryTransport,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryShopping,
	CategoryDining,
	CategorySubscriptions,
	CategoryIncome,
	CategoryOther,
}

// Valid reports whether c belongs to the classifier's closed set.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}
