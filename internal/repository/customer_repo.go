package repository

import (
	"context"

	"salesledger/internal/model"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	UpdateCurrentBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return translateError(GetDB(ctx, r.db).Create(customer).Error)
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

// FindByIDForUpdate locks the customer row until the surrounding transaction ends.
func (r *customerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&customer, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Customer{})
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	offset := (page - 1) * limit
	if err := db.Order("code ASC").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return customers, total, nil
}

func (r *customerRepository) UpdateCurrentBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error {
	return translateError(GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("current_balance", balance).Error)
}
