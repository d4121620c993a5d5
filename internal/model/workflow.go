package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowEvent records one status transition of an order. Append-only.
type WorkflowEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(30)" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(30);not null" json:"to_status"`
	Action     string      `gorm:"type:varchar(30);not null" json:"action"`
	ActorID    uuid.UUID   `gorm:"type:uuid;not null" json:"actor_id"`
	ActorRole  string      `gorm:"type:varchar(50)" json:"actor_role"`
	Comment    string      `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}
