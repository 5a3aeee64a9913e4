package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartawan/tambak-contracts/internal/config"
	"github.com/hartawan/tambak-contracts/internal/lifecycle"
	"github.com/hartawan/tambak-contracts/internal/model"
	"github.com/hartawan/tambak-contracts/internal/pricing"
	"github.com/hartawan/tambak-contracts/internal/repository"
)

type stubRepo struct {
	contracts  map[uuid.UUID]*model.Contract
	createErr  error
	updateErr  error
	seq        int
	lastFilter repository.ListFilter
}

func newStubRepo() *stubRepo {
	return &stubRepo{contracts: map[uuid.UUID]*model.Contract{}, seq: 1}
}

func (s *stubRepo) Create(ctx context.Context, contract *model.Contract) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.contracts[contract.ID] = contract
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, ok := s.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *contract
	return &copied, nil
}

func (s *stubRepo) GetByNumber(ctx context.Context, number string) (*model.Contract, error) {
	for _, contract := range s.contracts {
		if contract.ContractNumber == number {
			copied := *contract
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Update(ctx context.Context, contract *model.Contract) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	contract.Version++
	s.contracts[contract.ID] = contract
	return nil
}

func (s *stubRepo) List(ctx context.Context, filter repository.ListFilter) ([]model.Contract, int64, error) {
	s.lastFilter = filter
	var out []model.Contract
	for _, contract := range s.contracts {
		out = append(out, *contract)
	}
	return out, int64(len(out)), nil
}

func (s *stubRepo) NextSequence(ctx context.Context, prefix string) (int, error) {
	return s.seq, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Contracts: config.ContractsConfig{
			PriceJumpWarnThreshold: 0.5,
			MaxPageSize:            100,
		},
	}
}

func newTestService(repo ContractRepo) *ContractService {
	return NewContractService(repo, nil, nil, testConfig())
}

func gmPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleGM}
}

func supplierPrincipal(supplierID uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleSupplier, SupplierID: &supplierID}
}

func createInput() CreateContractInput {
	name := "CV Mina Jaya"
	return CreateContractInput{
		ContractType: model.ContractTypeNew,
		SupplierName: &name,
		BasePricing: []model.PricePoint{
			{Size: 20, Price: 150000},
			{Size: 30, Price: 120000},
		},
		SizePenalties: []model.PenaltyRule{
			{Range: "20-30", Amount: 5000, Unit: model.PenaltyUnitPerSizeAlt},
		},
	}
}

func mustCreate(t *testing.T, svc *ContractService, repo *stubRepo) *model.Contract {
	t.Helper()
	result, err := svc.Create(context.Background(), createInput(), gmPrincipal())
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return result.Contract
}

func TestCreateRequiresGM(t *testing.T) {
	t.Parallel()

	svc := newTestService(newStubRepo())
	_, err := svc.Create(context.Background(), createInput(), supplierPrincipal(uuid.New()))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateReturnsValidationErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(newStubRepo())
	input := createInput()
	input.SupplierName = nil // neither supplier form

	_, err := svc.Create(context.Background(), input, gmPrincipal())
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Fields) == 0 {
		t.Fatal("expected field errors")
	}
}

func TestCreateGeneratesContractNumber(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.seq = 3
	svc := newTestService(repo)

	contract := mustCreate(t, svc, repo)
	want := fmt.Sprintf("L%s.003.00", time.Now().UTC().Format("20060102"))
	if contract.ContractNumber != want {
		t.Fatalf("contract number %q, want %q", contract.ContractNumber, want)
	}
	if contract.Status != model.ContractStatusOpen {
		t.Fatalf("new contract status %s, want OPEN", contract.Status)
	}
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	existing := mustCreate(t, svc, repo)

	input := createInput()
	input.ContractNumber = existing.ContractNumber
	_, err := svc.Create(context.Background(), input, gmPrincipal())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	// A concurrent insert can slip between the duplicate pre-check and the
	// write; the unique-index error must still surface as invalid input.
	repo := newStubRepo()
	repo.createErr = gorm.ErrDuplicatedKey
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createInput(), gmPrincipal())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdatePricingRejectedAfterClose(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)
	gm := gmPrincipal()

	if _, err := svc.Close(context.Background(), contract.ID, contract.Version, gm); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := svc.UpdatePricing(context.Background(), contract.ID, UpdatePricingInput{
		BasePricing: []model.PricePoint{{Size: 20, Price: 140000}},
		Version:     contract.Version + 1,
	}, gm)
	var closed *lifecycle.ContractClosedError
	if !errors.As(err, &closed) {
		t.Fatalf("expected ContractClosedError, got %v", err)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)
	gm := gmPrincipal()

	closedContract, err := svc.Close(context.Background(), contract.ID, contract.Version, gm)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closedContract.Status != model.ContractStatusClosed {
		t.Fatalf("status %s, want CLOSED", closedContract.Status)
	}

	_, err = svc.Close(context.Background(), contract.ID, closedContract.Version, gm)
	var invalid *lifecycle.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestUpdateDeliveriesRequiresOwningSupplier(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)

	supplierID := uuid.New()
	input := createInput()
	input.SupplierName = nil
	input.SupplierID = &supplierID
	result, err := svc.Create(context.Background(), input, gmPrincipal())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deliveries := UpdateDeliveriesInput{
		Deliveries: []model.Delivery{
			{Date: "2026-09-15", Quantity: 2, Unit: model.DeliveryUnitMT, SizeRange: "20-30"},
		},
		Version: result.Contract.Version,
	}

	_, err = svc.UpdateDeliveries(context.Background(), result.Contract.ID, deliveries, supplierPrincipal(uuid.New()))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for foreign supplier, got %v", err)
	}

	updated, err := svc.UpdateDeliveries(context.Background(), result.Contract.ID, deliveries, supplierPrincipal(supplierID))
	if err != nil {
		t.Fatalf("owning supplier update: %v", err)
	}
	if len(updated.Deliveries) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(updated.Deliveries))
	}
}

func TestUpdateDeliveriesVersionConflict(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)
	repo.updateErr = repository.ErrVersionConflict

	_, err := svc.UpdateDeliveries(context.Background(), contract.ID, UpdateDeliveriesInput{
		Deliveries: []model.Delivery{
			{Date: "2026-09-15", Quantity: 1, Unit: model.DeliveryUnitKg, SizeRange: "20-30"},
		},
		Version: contract.Version,
	}, gmPrincipal())
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestMutationsRequireVersionToken(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)
	gm := gmPrincipal()

	if contract.Version != 1 {
		t.Fatalf("new contract version %d, want 1", contract.Version)
	}

	_, err := svc.UpdatePricing(context.Background(), contract.ID, UpdatePricingInput{
		BasePricing: []model.PricePoint{{Size: 20, Price: 140000}},
	}, gm)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("pricing without version: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.UpdateDeliveries(context.Background(), contract.ID, UpdateDeliveriesInput{
		Deliveries: []model.Delivery{
			{Date: "2026-09-15", Quantity: 1, Unit: model.DeliveryUnitKg, SizeRange: "20-30"},
		},
	}, gm)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("deliveries without version: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.Close(context.Background(), contract.ID, 0, gm)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("close without version: expected ErrInvalidInput, got %v", err)
	}
}

func TestQuoteAppliesStoredPenalties(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)

	quote, err := svc.Quote(context.Background(), contract.ID, 25, 2, gmPrincipal())
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if math.Abs(quote.UnitPrice-140000) > 1e-9 {
		t.Fatalf("unit price %g, want 140000", quote.UnitPrice)
	}
	if math.Abs(quote.TotalPrice-280000) > 1e-9 {
		t.Fatalf("total price %g, want 280000", quote.TotalPrice)
	}
}

func TestQuoteOutOfRangePropagates(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)

	_, err := svc.Quote(context.Background(), contract.ID, 50, 1, gmPrincipal())
	var oor *pricing.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
}

func TestQuoteRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)

	for _, quantity := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := svc.Quote(context.Background(), contract.ID, 25, quantity, gmPrincipal())
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("quantity %g: expected ErrInvalidInput, got %v", quantity, err)
		}
	}
}

func TestQuoteRejectsNonFiniteSize(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)

	for _, size := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := svc.Quote(context.Background(), contract.ID, size, 1, gmPrincipal())
		var oor *pricing.OutOfRangeError
		if !errors.As(err, &oor) {
			t.Fatalf("size %g: expected OutOfRangeError, got %v", size, err)
		}
	}
}

func TestListScopesSupplier(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	supplierID := uuid.New()

	_, err := svc.List(context.Background(), ListQuery{Status: "open"}, supplierPrincipal(supplierID))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.SupplierID == nil || *repo.lastFilter.SupplierID != supplierID {
		t.Fatalf("expected supplier scope in filter, got %+v", repo.lastFilter)
	}
	if repo.lastFilter.Status != model.ContractStatusOpen {
		t.Fatalf("expected status filter OPEN, got %q", repo.lastFilter.Status)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := newTestService(newStubRepo())
	_, err := svc.List(context.Background(), ListQuery{Status: "ARCHIVED"}, gmPrincipal())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetHiddenFromForeignSupplier(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(repo)
	contract := mustCreate(t, svc, repo)

	_, err := svc.Get(context.Background(), contract.ID, supplierPrincipal(uuid.New()))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New(), gmPrincipal())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
