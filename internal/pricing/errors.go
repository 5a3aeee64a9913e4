package pricing

import "fmt"

// OutOfRangeError reports a size outside the table's defined bounds. The
// engine never extrapolates; callers choose their own clamp or reject policy
// using the bounds carried here.
type OutOfRangeError struct {
	Size float64
	Min  float64
	Max  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("size %g outside priced range [%g, %g]", e.Size, e.Min, e.Max)
}

// Nearest returns the defined bound closest to the requested size.
func (e *OutOfRangeError) Nearest() float64 {
	if e.Size < e.Min {
		return e.Min
	}
	return e.Max
}

// UnsupportedUnitError reports a penalty rule carrying an unrecognized unit.
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported penalty unit %q", e.Unit)
}
