package repository

import (
	"context"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	Statuses   []model.OrderStatus
	CustomerID *uuid.UUID
	BranchID   *uuid.UUID
	Page       int
	Limit      int
}

// ProductionStatuses are the statuses that make up a branch's production queue.
var ProductionStatuses = []model.OrderStatus{
	model.OrderStatusApproved,
	model.OrderStatusInProduction,
	model.OrderStatusProduced,
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.CreditOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error)
	Update(ctx context.Context, order *model.CreditOrder) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.OrderLineItem) error
	List(ctx context.Context, filter OrderFilter) ([]model.CreditOrder, int64, error)
	ProductionQueue(ctx context.Context, branchID *uuid.UUID) ([]model.CreditOrder, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its Items.
func (r *orderRepository) Create(ctx context.Context, order *model.CreditOrder) error {
	return translateError(GetDB(ctx, r.db).Omit("Customer").Create(order).Error)
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error) {
	var order model.CreditOrder
	if err := GetDB(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// FindByIDForUpdate locks the order header row. Items load in a separate unlocked query
// because they only change through ReplaceItems under the same header lock.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error) {
	var order model.CreditOrder
	db := GetDB(ctx, r.db)
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := db.Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// Update saves the header columns. Items are left untouched.
func (r *orderRepository) Update(ctx context.Context, order *model.CreditOrder) error {
	return translateError(GetDB(ctx, r.db).Omit(clause.Associations).Save(order).Error)
}

func (r *orderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.OrderLineItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderLineItem{}).Error; err != nil {
		return translateError(err)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
		items[i].ID = uuid.Nil
	}
	return translateError(db.Create(&items).Error)
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.CreditOrder, int64, error) {
	var orders []model.CreditOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.CreditOrder{})
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.BranchID != nil {
		db = db.Where("branch_id = ?", *filter.BranchID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return orders, total, nil
}

// ProductionQueue orders by priority (highest first) then earliest required date.
func (r *orderRepository) ProductionQueue(ctx context.Context, branchID *uuid.UUID) ([]model.CreditOrder, error) {
	var orders []model.CreditOrder
	db := GetDB(ctx, r.db).Where("status IN ?", ProductionStatuses)
	if branchID != nil {
		db = db.Where("branch_id = ?", *branchID)
	}
	if err := db.
		Preload("Items").
		Order("production_priority DESC").
		Order("required_date ASC NULLS LAST").
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}
