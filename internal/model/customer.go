package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

// Customer is a credit customer. CreditLimit 0 means unlimited.
// CurrentBalance is a cache of the latest ledger balance_after.
type Customer struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code           string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name           string       `gorm:"type:varchar(255);not null" json:"name"`
	Phone          string       `gorm:"type:varchar(50)" json:"phone"`
	Email          string       `gorm:"type:varchar(255)" json:"email"`
	CreditLimit    money.Amount `gorm:"type:bigint;not null;default:0" json:"credit_limit"`
	InitialDue     money.Amount `gorm:"type:bigint;not null;default:0" json:"initial_due"`
	CurrentBalance money.Amount `gorm:"type:bigint;not null;default:0" json:"current_balance"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
