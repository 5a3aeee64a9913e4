package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContractStatus string

const (
	ContractStatusOpen   ContractStatus = "OPEN"
	ContractStatusClosed ContractStatus = "CLOSED"
)

type ContractType string

const (
	ContractTypeNew    ContractType = "NEW"
	ContractTypeAdd    ContractType = "ADD"
	ContractTypeChange ContractType = "CHANGE"
)

type PenaltyUnit string

const (
	PenaltyUnitPerSize    PenaltyUnit = "Rp/s"
	PenaltyUnitPerKg      PenaltyUnit = "Rp/kg"
	PenaltyUnitPerSizeAlt PenaltyUnit = "Rp/sz"
)

type DeliveryUnit string

const (
	DeliveryUnitMT  DeliveryUnit = "mt"
	DeliveryUnitKg  DeliveryUnit = "kg"
	DeliveryUnitTon DeliveryUnit = "ton"
)

// PricePoint is one (size, price) anchor in a contract's interpolation table.
type PricePoint struct {
	Size  float64 `json:"size"`
	Price float64 `json:"price"`
}

// PenaltyRule is a surcharge or discount applied on top of the interpolated
// base price for a size band. Range is an opaque label ("20-30", "40+")
// matched by the caller's classifier.
type PenaltyRule struct {
	Range  string      `json:"range"`
	Amount float64     `json:"amount"`
	Unit   PenaltyUnit `json:"unit"`
}

type Delivery struct {
	Date      string       `json:"date"`
	Quantity  float64      `json:"quantity"`
	Unit      DeliveryUnit `json:"unit"`
	SizeRange string       `json:"size_range"`
}

// Contract is the negotiated purchase agreement between the GM and a
// supplier. Pricing, penalties and deliveries persist as JSONB documents so
// arbitrary size sets need no schema migration; status and identifiers are
// fixed columns.
type Contract struct {
	ID              uuid.UUID                        `json:"id"`
	ContractNumber  string                           `json:"contract_number"`
	ContractType    ContractType                     `json:"contract_type"`
	SupplierID      *uuid.UUID                       `json:"supplier_id,omitempty"`
	SupplierName    *string                          `json:"supplier_name,omitempty"`
	Status          ContractStatus                   `json:"status"`
	BasePricing     datatypes.JSONSlice[PricePoint]  `json:"base_pricing"`
	SizePenalties   datatypes.JSONSlice[PenaltyRule] `json:"size_penalties"`
	Deliveries      datatypes.JSONSlice[Delivery]    `json:"deliveries"`
	// Version starts at 1 and bumps on every successful update. Mutating
	// requests must echo the version they read back.
	Version int64 `json:"version"`
	CreatedByUserID uuid.UUID                        `json:"created_by_user_id"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

func (s ContractStatus) Valid() bool {
	return s == ContractStatusOpen || s == ContractStatusClosed
}

func (t ContractType) Valid() bool {
	return t == ContractTypeNew || t == ContractTypeAdd || t == ContractTypeChange
}

func (u PenaltyUnit) Valid() bool {
	return u == PenaltyUnitPerSize || u == PenaltyUnitPerKg || u == PenaltyUnitPerSizeAlt
}

func (u DeliveryUnit) Valid() bool {
	return u == DeliveryUnitMT || u == DeliveryUnitKg || u == DeliveryUnitTon
}
