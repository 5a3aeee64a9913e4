package service

import (
	"strconv"
	"strings"
)

// MatchSizeRange resolves the price-sheet range label convention to a
// numeric predicate. Supported labels: "lo-hi" (inclusive band), "lo+"
// (open upper end), and a bare number for an exact size. Anything else
// matches nothing.
func MatchSizeRange(label string, size float64) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return false
	}

	if strings.HasSuffix(label, "+") {
		lo, err := strconv.ParseFloat(strings.TrimSuffix(label, "+"), 64)
		if err != nil {
			return false
		}
		return size >= lo
	}

	if lo, hi, found := strings.Cut(label, "-"); found {
		loVal, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		hiVal, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err1 != nil || err2 != nil {
			return false
		}
		return size >= loVal && size <= hiVal
	}

	exact, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return false
	}
	return size == exact
}

// WeightPerSizeUnit converts a size to the weight of one size unit in kg.
// Size is a count-per-kg classifier, so one unit weighs 1/size kg.
func WeightPerSizeUnit(size float64) float64 {
	if size <= 0 {
		return 0
	}
	return 1 / size
}
