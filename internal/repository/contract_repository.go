package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hartawan/tambak-contracts/internal/model"
)

// ErrVersionConflict is returned when an update carries a stale version,
// i.e. another writer committed since the caller read the contract.
var ErrVersionConflict = errors.New("contract version conflict")

var orderColumns = map[string]string{
	"created_at":      "created_at",
	"contract_number": "contract_number",
	"status":          "status",
}

type ListFilter struct {
	Status     model.ContractStatus
	SupplierID *uuid.UUID
	Page       int
	Limit      int
	OrderBy    string
	Order      string
}

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetByNumber(ctx context.Context, number string) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).First(&contract, "contract_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

// Update persists the contract only if the stored version still matches the
// version the caller read, then bumps it. A stale version fails with
// ErrVersionConflict instead of silently overwriting a concurrent edit.
func (r *ContractRepository) Update(ctx context.Context, contract *model.Contract) error {
	expected := contract.Version
	contract.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ? AND version = ?", contract.ID, expected).
		Select("contract_type", "supplier_id", "supplier_name", "status",
			"base_pricing", "size_penalties", "deliveries", "version", "updated_at").
		Updates(contract)
	if result.Error != nil {
		contract.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		contract.Version = expected
		return ErrVersionConflict
	}
	return nil
}

func (r *ContractRepository) List(ctx context.Context, filter ListFilter) ([]model.Contract, int64, error) {
	applyFilter := func(query *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.SupplierID != nil {
			query = query.Where("supplier_id = ?", *filter.SupplierID)
		}
		return query
	}

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&model.Contract{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := orderColumns[filter.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(filter.Order, "desc") || filter.Order == "" {
		direction = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 25
	}

	var contracts []model.Contract
	err := applyFilter(r.db.WithContext(ctx).Model(&model.Contract{})).
		Order(fmt.Sprintf("%s %s", column, direction)).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

// NextSequence returns the next contract number sequence for the given day
// prefix ("L20260830."). The sequence derives from the highest existing
// suffix, not the row count, so caller-supplied numbers with gaps never
// collide with generated ones.
func (r *ContractRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	var last sql.NullString
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("contract_number LIKE ?", prefix+"%").
		Select("MAX(contract_number)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	if !last.Valid || last.String == "" {
		return 1, nil
	}

	suffix := strings.TrimPrefix(last.String, prefix)
	seq, err := strconv.Atoi(strings.SplitN(suffix, ".", 2)[0])
	if err != nil {
		return 0, fmt.Errorf("malformed contract number %q: %w", last.String, err)
	}
	return seq + 1, nil
}
