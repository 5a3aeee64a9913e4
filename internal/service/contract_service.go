package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hartawan/tambak-contracts/internal/config"
	"github.com/hartawan/tambak-contracts/internal/lifecycle"
	"github.com/hartawan/tambak-contracts/internal/model"
	"github.com/hartawan/tambak-contracts/internal/pricing"
	"github.com/hartawan/tambak-contracts/internal/repository"
	"github.com/hartawan/tambak-contracts/internal/validation"
)

type ContractRepo interface {
	Create(ctx context.Context, contract *model.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	GetByNumber(ctx context.Context, number string) (*model.Contract, error)
	Update(ctx context.Context, contract *model.Contract) error
	List(ctx context.Context, filter repository.ListFilter) ([]model.Contract, int64, error)
	NextSequence(ctx context.Context, prefix string) (int, error)
}

type ExcelGenerator interface {
	Generate(sheet model.PriceSheet) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type ContractService struct {
	repo      ContractRepo
	excel     ExcelGenerator
	pdf       PDFGenerator
	validator *validation.Validator
	cfg       *config.Config
}

func NewContractService(repo ContractRepo, excel ExcelGenerator, pdf PDFGenerator, cfg *config.Config) *ContractService {
	return &ContractService{
		repo:      repo,
		excel:     excel,
		pdf:       pdf,
		validator: validation.NewValidator(cfg.Contracts.PriceJumpWarnThreshold),
		cfg:       cfg,
	}
}

type CreateContractInput struct {
	ContractNumber string
	ContractType   model.ContractType
	SupplierID     *uuid.UUID
	SupplierName   *string
	BasePricing    []model.PricePoint
	SizePenalties  []model.PenaltyRule
	Deliveries     []model.Delivery
}

type CreateContractResult struct {
	Contract *model.Contract
	Warnings []validation.Warning
}

func (s *ContractService) Create(ctx context.Context, input CreateContractInput, principal model.Principal) (*CreateContractResult, error) {
	if !principal.IsGM() {
		return nil, ErrPermissionDenied
	}

	result := s.validator.Validate(validation.ContractPayload{
		ContractNumber: input.ContractNumber,
		ContractType:   input.ContractType,
		SupplierID:     input.SupplierID,
		SupplierName:   input.SupplierName,
		BasePricing:    input.BasePricing,
		SizePenalties:  input.SizePenalties,
		Deliveries:     input.Deliveries,
	})
	if !result.Ok() {
		return nil, &ValidationError{Fields: result.Errors, Warnings: result.Warnings}
	}
	payload := result.Payload

	number := payload.ContractNumber
	if number == "" {
		generated, err := s.nextContractNumber(ctx)
		if err != nil {
			return nil, err
		}
		number = generated
	} else {
		if _, err := s.repo.GetByNumber(ctx, number); err == nil {
			return nil, fmt.Errorf("%w: contract number %s already in use", ErrInvalidInput, number)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	contract := &model.Contract{
		ID:              uuid.New(),
		ContractNumber:  number,
		ContractType:    payload.ContractType,
		SupplierID:      payload.SupplierID,
		SupplierName:    payload.SupplierName,
		Status:          model.ContractStatusOpen,
		Version:         1,
		BasePricing:     datatypes.NewJSONSlice(payload.BasePricing),
		SizePenalties:   datatypes.NewJSONSlice(payload.SizePenalties),
		Deliveries:      datatypes.NewJSONSlice(payload.Deliveries),
		CreatedByUserID: principal.UserID,
	}
	if err := s.repo.Create(ctx, contract); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: contract number %s already in use", ErrInvalidInput, number)
		}
		return nil, err
	}

	return &CreateContractResult{Contract: contract, Warnings: result.Warnings}, nil
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	return s.loadVisible(ctx, id, principal)
}

type ListQuery struct {
	Status  string
	Page    int
	Limit   int
	OrderBy string
	Order   string
}

type ListResult struct {
	Contracts []model.Contract
	Total     int64
	Page      int
	Limit     int
}

func (s *ContractService) List(ctx context.Context, query ListQuery, principal model.Principal) (*ListResult, error) {
	filter := repository.ListFilter{
		Page:    query.Page,
		Limit:   query.Limit,
		OrderBy: query.OrderBy,
		Order:   query.Order,
	}

	if query.Status != "" {
		status := model.ContractStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, query.Status)
		}
		filter.Status = status
	}

	if principal.IsSupplier() {
		if principal.SupplierID == nil {
			return &ListResult{Contracts: []model.Contract{}, Page: 1, Limit: filter.Limit}, nil
		}
		filter.SupplierID = principal.SupplierID
	}

	if filter.Limit < 1 {
		filter.Limit = 25
	}
	if filter.Limit > s.cfg.Contracts.MaxPageSize {
		filter.Limit = s.cfg.Contracts.MaxPageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	contracts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Contracts: contracts, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

type UpdatePricingInput struct {
	BasePricing   []model.PricePoint
	SizePenalties []model.PenaltyRule
	Version       int64
}

func (s *ContractService) UpdatePricing(ctx context.Context, id uuid.UUID, input UpdatePricingInput, principal model.Principal) (*CreateContractResult, error) {
	if !principal.IsGM() {
		return nil, ErrPermissionDenied
	}
	if input.Version < 1 {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidInput)
	}

	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.GuardEdit(contract, "base_pricing"); err != nil {
		return nil, err
	}

	errs, warnings := s.validator.ValidatePricing(input.BasePricing, input.SizePenalties)
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs, Warnings: warnings}
	}

	contract.BasePricing = datatypes.NewJSONSlice(sortedPoints(input.BasePricing))
	contract.SizePenalties = datatypes.NewJSONSlice(input.SizePenalties)
	contract.Version = input.Version
	if err := s.persist(ctx, contract); err != nil {
		return nil, err
	}
	return &CreateContractResult{Contract: contract, Warnings: warnings}, nil
}

type UpdateDeliveriesInput struct {
	Deliveries []model.Delivery
	Version    int64
}

func (s *ContractService) UpdateDeliveries(ctx context.Context, id uuid.UUID, input UpdateDeliveriesInput, principal model.Principal) (*model.Contract, error) {
	if input.Version < 1 {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidInput)
	}

	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsGM() && !principal.OwnsContract(contract) {
		return nil, ErrPermissionDenied
	}
	if err := lifecycle.GuardEdit(contract, "deliveries"); err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateDeliveries(input.Deliveries); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	contract.Deliveries = datatypes.NewJSONSlice(input.Deliveries)
	contract.Version = input.Version
	if err := s.persist(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) Close(ctx context.Context, id uuid.UUID, version int64, principal model.Principal) (*model.Contract, error) {
	if !principal.IsGM() {
		return nil, ErrPermissionDenied
	}
	if version < 1 {
		return nil, fmt.Errorf("%w: version is required", ErrInvalidInput)
	}

	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Close(contract); err != nil {
		return nil, err
	}

	contract.Version = version
	if err := s.persist(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) Quote(ctx context.Context, id uuid.UUID, size, quantity float64, principal model.Principal) (*pricing.Quote, error) {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, fmt.Errorf("%w: quantity must be a finite number greater than 0", ErrInvalidInput)
	}

	contract, err := s.loadVisible(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	resolver, err := s.resolverFor(contract)
	if err != nil {
		return nil, err
	}
	quote, err := resolver.QuotePrice(size, quantity)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *ContractService) ExportPriceSheet(ctx context.Context, id uuid.UUID, principal model.Principal) (*ExportResult, error) {
	contract, err := s.loadVisible(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	rows, err := s.priceSheetRows(contract)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(model.PriceSheet{
		Contract:    *contract,
		Rows:        rows,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s-pricesheet.xlsx", sanitizeFileName(contract.ContractNumber)),
		Content:  content,
	}, nil
}

func (s *ContractService) ExportContract(ctx context.Context, id uuid.UUID, principal model.Principal) (*ExportResult, error) {
	contract, err := s.loadVisible(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	rows, err := s.priceSheetRows(contract)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(model.ContractDocument{
		Contract:    *contract,
		Rows:        rows,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s.pdf", sanitizeFileName(contract.ContractNumber)),
		Content:  content,
	}, nil
}

func (s *ContractService) load(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return contract, nil
}

func (s *ContractService) loadVisible(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	contract, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsGM() && !principal.OwnsContract(contract) {
		return nil, ErrPermissionDenied
	}
	return contract, nil
}

func (s *ContractService) persist(ctx context.Context, contract *model.Contract) error {
	if err := s.repo.Update(ctx, contract); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrVersionConflict
		}
		return err
	}
	return nil
}

func (s *ContractService) resolverFor(contract *model.Contract) (*pricing.Resolver, error) {
	table, err := pricing.NewTable(contract.BasePricing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rules := pricing.NewRuleSet(contract.SizePenalties, MatchSizeRange, WeightPerSizeUnit)
	return pricing.NewResolver(table, rules), nil
}

func (s *ContractService) priceSheetRows(contract *model.Contract) ([]model.PriceSheetRow, error) {
	resolver, err := s.resolverFor(contract)
	if err != nil {
		return nil, err
	}
	rows := make([]model.PriceSheetRow, 0, len(contract.BasePricing))
	for _, point := range contract.BasePricing {
		quote, err := resolver.QuotePrice(point.Size, 1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.PriceSheetRow{
			Size:           point.Size,
			BasePrice:      point.Price,
			EffectivePrice: quote.UnitPrice,
		})
	}
	return rows, nil
}

func (s *ContractService) nextContractNumber(ctx context.Context) (string, error) {
	date := time.Now().UTC().Format("20060102")
	prefix := fmt.Sprintf("L%s.", date)
	seq, err := s.repo.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("L%s.%03d.00", date, seq), nil
}

func sortedPoints(points []model.PricePoint) []model.PricePoint {
	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })
	return sorted
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_', r == '.':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
