package lifecycle

import (
	"fmt"

	"github.com/hartawan/tambak-contracts/internal/model"
)

// Fields whose mutation is frozen once a contract closes. Metadata fields
// stay editable, which is why the guard is field-scoped rather than global.
var frozenFields = map[string]bool{
	"base_pricing":   true,
	"size_penalties": true,
	"deliveries":     true,
}

// InvalidTransitionError reports a disallowed status transition.
type InvalidTransitionError struct {
	From model.ContractStatus
	To   model.ContractStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition contract from %s to %s", e.From, e.To)
}

// ContractClosedError reports an attempt to mutate frozen data on a closed
// contract.
type ContractClosedError struct {
	Field string
}

func (e *ContractClosedError) Error() string {
	return fmt.Sprintf("contract is closed; %s can no longer change", e.Field)
}

// Close transitions an open contract to the terminal Closed state. There is
// no way back to Open.
func Close(contract *model.Contract) error {
	if contract.Status != model.ContractStatusOpen {
		return &InvalidTransitionError{From: contract.Status, To: model.ContractStatusClosed}
	}
	contract.Status = model.ContractStatusClosed
	return nil
}

// GuardEdit rejects edits to pricing or delivery fields on a closed
// contract; other fields pass through regardless of status.
func GuardEdit(contract *model.Contract, field string) error {
	if contract.Status == model.ContractStatusClosed && frozenFields[field] {
		return &ContractClosedError{Field: field}
	}
	return nil
}
