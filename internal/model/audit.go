package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionCreateOrder    = "CREATE_ORDER"
	ActionEditOrder      = "EDIT_ORDER"
	ActionRecordPayment  = "RECORD_PAYMENT"
	ActionShipOrder      = "SHIP_ORDER"
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionCreateAccount  = "CREATE_ACCOUNT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserRole   string     `gorm:"type:varchar(50)" json:"user_role"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload, before/after for edits
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
