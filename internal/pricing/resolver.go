package pricing

// Quote is the effective price for one size and quantity.
type Quote struct {
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Resolver composes a price table and a penalty rule set to answer
// "effective price for size S, quantity Q".
type Resolver struct {
	table *Table
	rules *RuleSet
}

func NewResolver(table *Table, rules *RuleSet) *Resolver {
	return &Resolver{table: table, rules: rules}
}

// QuotePrice resolves the base price for size, applies penalties, and scales
// by quantity. A size outside the table's bounds propagates OutOfRangeError;
// it is never silently clamped.
func (r *Resolver) QuotePrice(size, quantity float64) (Quote, error) {
	base, err := r.table.ResolvePrice(size)
	if err != nil {
		return Quote{}, err
	}
	unit, err := r.rules.Apply(base, size)
	if err != nil {
		return Quote{}, err
	}
	return Quote{UnitPrice: unit, TotalPrice: unit * quantity}, nil
}
