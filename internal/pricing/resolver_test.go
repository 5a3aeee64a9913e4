package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/hartawan/tambak-contracts/internal/model"
)

// bandClassifier matches "lo-hi" labels inclusively, mirroring the service
// side convention.
func bandClassifier(label string, size float64) bool {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return false
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return size >= lo && size <= hi
}

func TestQuotePriceEndToEnd(t *testing.T) {
	t.Parallel()

	table := testTable(t,
		model.PricePoint{Size: 20, Price: 150000},
		model.PricePoint{Size: 30, Price: 120000},
	)

	// Base only: midpoint interpolation.
	bare := NewResolver(table, NewRuleSet(nil, bandClassifier, nil))
	quote, err := bare.QuotePrice(25, 1)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if math.Abs(quote.UnitPrice-135000) > epsilon {
		t.Fatalf("unit price %g, want 135000", quote.UnitPrice)
	}

	// With a matching surcharge and quantity 2.
	rules := NewRuleSet([]model.PenaltyRule{
		{Range: "20-30", Amount: 5000, Unit: model.PenaltyUnitPerSizeAlt},
	}, bandClassifier, nil)
	resolver := NewResolver(table, rules)

	quote, err = resolver.QuotePrice(25, 2)
	if err != nil {
		t.Fatalf("quote with penalty: %v", err)
	}
	if math.Abs(quote.UnitPrice-140000) > epsilon {
		t.Fatalf("unit price %g, want 140000", quote.UnitPrice)
	}
	if math.Abs(quote.TotalPrice-280000) > epsilon {
		t.Fatalf("total price %g, want 280000", quote.TotalPrice)
	}
}

func TestQuotePricePropagatesOutOfRange(t *testing.T) {
	t.Parallel()

	table := testTable(t,
		model.PricePoint{Size: 20, Price: 150000},
		model.PricePoint{Size: 30, Price: 120000},
	)
	resolver := NewResolver(table, NewRuleSet(nil, bandClassifier, nil))

	_, err := resolver.QuotePrice(35, 1)
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
}
