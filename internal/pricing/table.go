package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/hartawan/tambak-contracts/internal/model"
)

// Table is a sparse size-indexed price table. Points are kept sorted by size
// ascending and sizes are unique; ResolvePrice is pure, so the same table and
// size always yield the same price.
type Table struct {
	points []model.PricePoint
}

// NewTable builds a table from the given points. Duplicate sizes are
// rejected; insertion order is irrelevant.
func NewTable(points []model.PricePoint) (*Table, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("price table requires at least one point")
	}
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Size == sorted[i-1].Size {
			return nil, fmt.Errorf("duplicate size %g in price table", sorted[i].Size)
		}
	}
	return &Table{points: sorted}, nil
}

// Points returns the table's anchors sorted by size ascending.
func (t *Table) Points() []model.PricePoint {
	out := make([]model.PricePoint, len(t.points))
	copy(out, t.points)
	return out
}

// Bounds returns the smallest and largest priced size.
func (t *Table) Bounds() (min, max float64) {
	return t.points[0].Size, t.points[len(t.points)-1].Size
}

// ResolvePrice returns the price for an exact anchor, or the linear
// interpolation between the two anchors bracketing size. Sizes outside the
// defined bounds fail with OutOfRangeError.
func (t *Table) ResolvePrice(size float64) (float64, error) {
	min, max := t.Bounds()
	// NaN compares false against both bounds and would walk past the
	// slice in sort.Search.
	if math.IsNaN(size) || math.IsInf(size, 0) || size < min || size > max {
		return 0, &OutOfRangeError{Size: size, Min: min, Max: max}
	}

	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].Size >= size })
	if t.points[idx].Size == size {
		return t.points[idx].Price, nil
	}

	lo, hi := t.points[idx-1], t.points[idx]
	return lo.Price + (hi.Price-lo.Price)*(size-lo.Size)/(hi.Size-lo.Size), nil
}

// UpsertPoint adds a new anchor or overwrites the price of an existing size.
func (t *Table) UpsertPoint(point model.PricePoint) {
	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].Size >= point.Size })
	if idx < len(t.points) && t.points[idx].Size == point.Size {
		t.points[idx].Price = point.Price
		return
	}
	t.points = append(t.points, model.PricePoint{})
	copy(t.points[idx+1:], t.points[idx:])
	t.points[idx] = point
}

// RemovePoint deletes the anchor at the given size. Removing the last
// remaining point is refused so the table never becomes empty.
func (t *Table) RemovePoint(size float64) error {
	idx := sort.Search(len(t.points), func(i int) bool { return t.points[i].Size >= size })
	if idx == len(t.points) || t.points[idx].Size != size {
		return fmt.Errorf("no price point at size %g", size)
	}
	if len(t.points) == 1 {
		return fmt.Errorf("cannot remove the last price point")
	}
	t.points = append(t.points[:idx], t.points[idx+1:]...)
	return nil
}
