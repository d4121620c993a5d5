package repository

import (
	"context"
	"errors"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	Append(ctx context.Context, entry *model.CustomerLedgerEntry) error
	// LatestForCustomer returns nil, nil when the customer has no entries yet.
	LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerLedgerEntry, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.CustomerLedgerEntry, error)
	ExistsForReference(ctx context.Context, txType, refType string, refID uuid.UUID) (bool, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *model.CustomerLedgerEntry) error {
	return translateError(GetDB(ctx, r.db).Create(entry).Error)
}

func (r *ledgerRepository) LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerLedgerEntry, error) {
	var entry model.CustomerLedgerEntry
	err := GetDB(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("seq DESC").
		Limit(1).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

// ListByCustomer returns the full chain in insertion order.
func (r *ledgerRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.CustomerLedgerEntry, error) {
	var entries []model.CustomerLedgerEntry
	if err := GetDB(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("seq ASC").
		Find(&entries).Error; err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}

func (r *ledgerRepository) ExistsForReference(ctx context.Context, txType, refType string, refID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.CustomerLedgerEntry{}).
		Where("transaction_type = ? AND reference_type = ? AND reference_id = ?", txType, refType, refID).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}
