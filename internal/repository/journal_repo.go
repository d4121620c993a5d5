package repository

import (
	"context"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JournalRepository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.JournalEntry, error)
}

type journalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

// Create inserts the entry and its Lines.
func (r *journalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	return translateError(GetDB(ctx, r.db).Create(entry).Error)
}

func (r *journalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := GetDB(ctx, r.db).Preload("Lines").First(&entry, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (r *journalRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}
