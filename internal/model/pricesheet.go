package model

import "time"

// PriceSheetRow is one anchor of the pricing table together with the
// penalty-adjusted price at that size.
type PriceSheetRow struct {
	Size           float64
	BasePrice      float64
	EffectivePrice float64
}

// PriceSheet is the export view of a contract's negotiated pricing.
type PriceSheet struct {
	Contract    Contract
	Rows        []PriceSheetRow
	GeneratedAt time.Time
}

// ContractDocument is the printable contract rendition (PDF export).
type ContractDocument struct {
	Contract    Contract
	Rows        []PriceSheetRow
	GeneratedAt time.Time
}
