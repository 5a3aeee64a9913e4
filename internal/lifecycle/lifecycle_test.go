package lifecycle

import (
	"errors"
	"testing"

	"github.com/hartawan/tambak-contracts/internal/model"
)

func TestCloseOpenContract(t *testing.T) {
	t.Parallel()

	contract := &model.Contract{Status: model.ContractStatusOpen}
	if err := Close(contract); err != nil {
		t.Fatalf("close open contract: %v", err)
	}
	if contract.Status != model.ContractStatusClosed {
		t.Fatalf("status = %s, want CLOSED", contract.Status)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	t.Parallel()

	contract := &model.Contract{Status: model.ContractStatusClosed}
	err := Close(contract)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != model.ContractStatusClosed {
		t.Fatalf("unexpected transition source: %+v", invalid)
	}
}

func TestGuardEditFreezesPricingAfterClose(t *testing.T) {
	t.Parallel()

	contract := &model.Contract{Status: model.ContractStatusOpen}
	if err := GuardEdit(contract, "base_pricing"); err != nil {
		t.Fatalf("open contract must accept pricing edits: %v", err)
	}

	if err := Close(contract); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, field := range []string{"base_pricing", "size_penalties", "deliveries"} {
		err := GuardEdit(contract, field)
		var closed *ContractClosedError
		if !errors.As(err, &closed) {
			t.Fatalf("expected ContractClosedError for %s, got %v", field, err)
		}
		if closed.Field != field {
			t.Fatalf("error field = %s, want %s", closed.Field, field)
		}
	}

	// Metadata stays editable after close.
	if err := GuardEdit(contract, "supplier_name"); err != nil {
		t.Fatalf("metadata edit should pass on closed contract: %v", err)
	}
}
