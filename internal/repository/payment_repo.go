package repository

import (
	"context"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Payment, error)
	ListAllocationsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PaymentAllocation, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts the payment and its Allocations.
func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return translateError(GetDB(ctx, r.db).Create(payment).Error)
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).Preload("Allocations").First(&payment, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &payment, nil
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).
		Preload("Allocations").
		Where("customer_id = ?", customerID).
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, translateError(err)
	}
	return payments, nil
}

func (r *paymentRepository) ListAllocationsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PaymentAllocation, error) {
	var allocations []model.PaymentAllocation
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, translateError(err)
	}
	return allocations, nil
}
