package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

// Product is the catalog snapshot read when building order lines.
type Product struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU             string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name            string       `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice       money.Amount `gorm:"type:bigint;not null" json:"unit_price"`
	UnitWeightGrams int64        `gorm:"not null;default:0" json:"unit_weight_grams"`
	IsActive        bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
