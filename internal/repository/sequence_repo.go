package repository

import (
	"context"

	"gorm.io/gorm"
)

type SequenceRepository interface {
	// Next atomically increments and returns the counter for prefix, starting at 1.
	Next(ctx context.Context, prefix string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next relies on the upsert row lock: concurrent callers on the same prefix queue
// behind each other until the holder's transaction ends.
func (r *sequenceRepository) Next(ctx context.Context, prefix string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO document_sequences (prefix, last_value) VALUES (?, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`, prefix).Scan(&value).Error
	if err != nil {
		return 0, translateError(err)
	}
	return value, nil
}
