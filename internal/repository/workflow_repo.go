package repository

import (
	"context"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkflowRepository interface {
	Append(ctx context.Context, event *model.WorkflowEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.WorkflowEvent, error)
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) Append(ctx context.Context, event *model.WorkflowEvent) error {
	return translateError(GetDB(ctx, r.db).Create(event).Error)
}

func (r *workflowRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.WorkflowEvent, error) {
	var events []model.WorkflowEvent
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, translateError(err)
	}
	return events, nil
}
