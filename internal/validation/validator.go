package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hartawan/tambak-contracts/internal/model"
)

const (
	maxSize        = 1000
	maxPrice       = 1_000_000
	maxRangeLength = 50

	// A price that climbs by this fraction or more toward a larger size is
	// tolerated but flagged; suppliers may legitimately charge a premium
	// for large-count batches.
	defaultPriceJumpWarn = 0.5
)

var contractNumberPattern = regexp.MustCompile(`^L\d{8}\.\d{3}\.00$`)

// FieldError describes one violated constraint. Errors accumulate across the
// whole payload so a caller can surface every bad field at once.
type FieldError struct {
	Field      string `json:"field"`
	Value      any    `json:"value,omitempty"`
	Constraint string `json:"constraint"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
}

// Warning is an advisory annotation attached to an otherwise valid payload.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ContractPayload is a raw contract-creation payload before normalization.
type ContractPayload struct {
	ContractNumber string
	ContractType   model.ContractType
	SupplierID     *uuid.UUID
	SupplierName   *string
	BasePricing    []model.PricePoint
	SizePenalties  []model.PenaltyRule
	Deliveries     []model.Delivery
}

// Result carries either the normalized payload or the accumulated field
// errors, plus any advisory warnings.
type Result struct {
	Payload  ContractPayload
	Errors   []FieldError
	Warnings []Warning
}

func (r Result) Ok() bool { return len(r.Errors) == 0 }

type Validator struct {
	priceJumpWarn float64
}

func NewValidator(priceJumpWarn float64) *Validator {
	if priceJumpWarn <= 0 {
		priceJumpWarn = defaultPriceJumpWarn
	}
	return &Validator{priceJumpWarn: priceJumpWarn}
}

// Validate checks a full contract payload. Validation never short-circuits;
// every violation is reported. On success the returned payload has trimmed
// strings and base pricing sorted by size ascending.
func (v *Validator) Validate(payload ContractPayload) Result {
	result := Result{Payload: payload}

	result.Payload.ContractNumber = strings.TrimSpace(payload.ContractNumber)
	if result.Payload.ContractNumber != "" && !contractNumberPattern.MatchString(result.Payload.ContractNumber) {
		result.Errors = append(result.Errors, FieldError{
			Field:      "contract_number",
			Value:      result.Payload.ContractNumber,
			Constraint: "must match L00000000.000.00",
		})
	}

	if !payload.ContractType.Valid() {
		result.Errors = append(result.Errors, FieldError{
			Field:      "contract_type",
			Value:      string(payload.ContractType),
			Constraint: "must be one of NEW, ADD, CHANGE",
		})
	}

	result.Errors = append(result.Errors, v.validateSupplierRef(&result.Payload)...)

	pricingErrs, warnings := v.ValidatePricing(payload.BasePricing, payload.SizePenalties)
	result.Errors = append(result.Errors, pricingErrs...)
	result.Warnings = append(result.Warnings, warnings...)

	result.Errors = append(result.Errors, v.ValidateDeliveries(payload.Deliveries)...)

	if result.Ok() {
		sorted := make([]model.PricePoint, len(payload.BasePricing))
		copy(sorted, payload.BasePricing)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })
		result.Payload.BasePricing = sorted
	}
	return result
}

// ValidatePricing checks a base pricing table and its penalty rules. The
// monotonicity check is soft: jumps emit warnings, never errors.
func (v *Validator) ValidatePricing(points []model.PricePoint, rules []model.PenaltyRule) ([]FieldError, []Warning) {
	var errs []FieldError
	var warnings []Warning

	if len(points) == 0 {
		errs = append(errs, FieldError{
			Field:      "base_pricing",
			Constraint: "at least one price point is required",
		})
	}

	seen := map[float64]bool{}
	for i, point := range points {
		field := fmt.Sprintf("base_pricing[%d]", i)
		if point.Size <= 0 || point.Size > maxSize {
			errs = append(errs, FieldError{
				Field:      field + ".size",
				Value:      point.Size,
				Constraint: fmt.Sprintf("must be greater than 0 and at most %d", maxSize),
			})
		}
		if point.Price < 0 || point.Price > maxPrice {
			errs = append(errs, FieldError{
				Field:      field + ".price",
				Value:      point.Price,
				Constraint: fmt.Sprintf("must be between 0 and %d", maxPrice),
			})
		}
		if seen[point.Size] {
			errs = append(errs, FieldError{
				Field:      field + ".size",
				Value:      point.Size,
				Constraint: "duplicate size in base_pricing",
			})
		}
		seen[point.Size] = true
	}

	warnings = append(warnings, v.priceJumpWarnings(points)...)

	for i, rule := range rules {
		field := fmt.Sprintf("size_penalties[%d]", i)
		if strings.TrimSpace(rule.Range) == "" || len(rule.Range) > maxRangeLength {
			errs = append(errs, FieldError{
				Field:      field + ".range",
				Value:      rule.Range,
				Constraint: fmt.Sprintf("must be non-empty and at most %d characters", maxRangeLength),
			})
		}
		if rule.Amount < 0 {
			errs = append(errs, FieldError{
				Field:      field + ".amount",
				Value:      rule.Amount,
				Constraint: "must be non-negative",
			})
		}
		if !rule.Unit.Valid() {
			errs = append(errs, FieldError{
				Field:      field + ".unit",
				Value:      string(rule.Unit),
				Constraint: "must be one of Rp/s, Rp/kg, Rp/sz",
			})
		}
	}

	return errs, warnings
}

// ValidateDeliveries checks a delivery schedule.
func (v *Validator) ValidateDeliveries(deliveries []model.Delivery) []FieldError {
	var errs []FieldError
	for i, delivery := range deliveries {
		field := fmt.Sprintf("deliveries[%d]", i)
		if strings.TrimSpace(delivery.Date) == "" {
			errs = append(errs, FieldError{
				Field:      field + ".date",
				Constraint: "is required",
			})
		}
		if delivery.Quantity <= 0 {
			errs = append(errs, FieldError{
				Field:      field + ".quantity",
				Value:      delivery.Quantity,
				Constraint: "must be greater than 0",
			})
		}
		if !delivery.Unit.Valid() {
			errs = append(errs, FieldError{
				Field:      field + ".unit",
				Value:      string(delivery.Unit),
				Constraint: "must be one of mt, kg, ton",
			})
		}
	}
	return errs
}

func (v *Validator) validateSupplierRef(payload *ContractPayload) []FieldError {
	hasID := payload.SupplierID != nil && *payload.SupplierID != uuid.Nil
	hasName := false
	if payload.SupplierName != nil {
		trimmed := strings.TrimSpace(*payload.SupplierName)
		payload.SupplierName = &trimmed
		hasName = trimmed != ""
	}

	if hasID == hasName {
		constraint := "exactly one of supplier_id and supplier_name is required"
		return []FieldError{{Field: "supplier_id", Constraint: constraint}}
	}
	return nil
}

func (v *Validator) priceJumpWarnings(points []model.PricePoint) []Warning {
	if len(points) < 2 {
		return nil
	}
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })

	var warnings []Warning
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Price <= 0 {
			continue
		}
		if cur.Price >= prev.Price*(1+v.priceJumpWarn) {
			warnings = append(warnings, Warning{
				Field: "base_pricing",
				Message: fmt.Sprintf("price rises from %g to %g between sizes %g and %g; verify with the supplier",
					prev.Price, cur.Price, prev.Size, cur.Size),
			})
		}
	}
	return warnings
}
