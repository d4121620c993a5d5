package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle position of a CreditOrder.
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "draft"
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusEscalated       OrderStatus = "escalated"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusInProduction    OrderStatus = "in_production"
	OrderStatusProduced        OrderStatus = "produced"
	OrderStatusReadyToShip     OrderStatus = "ready_to_ship"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// CreditOrder is a sales order sold on credit.
// BalanceDue == TotalAmount - AmountPaid - AdvancePaid after every committed change.
type CreditOrder struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber        string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer           *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Subtotal           money.Amount    `gorm:"type:bigint;not null;default:0" json:"subtotal"`
	Discount           money.Amount    `gorm:"type:bigint;not null;default:0" json:"discount"`
	Tax                money.Amount    `gorm:"type:bigint;not null;default:0" json:"tax"`
	TotalAmount        money.Amount    `gorm:"type:bigint;not null;default:0" json:"total_amount"`
	AdvancePaid        money.Amount    `gorm:"type:bigint;not null;default:0" json:"advance_paid"`
	AmountPaid         money.Amount    `gorm:"type:bigint;not null;default:0" json:"amount_paid"`
	BalanceDue         money.Amount    `gorm:"type:bigint;not null;default:0" json:"balance_due"`
	Status             OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	BranchID           *uuid.UUID      `gorm:"type:uuid;index" json:"branch_id"`
	RequiredDate       *time.Time      `json:"required_date"`
	ProductionPriority int             `gorm:"not null;default:0" json:"production_priority"`
	Notes              string          `gorm:"type:text" json:"notes"`
	CreatedBy          uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	ApprovedBy         *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	ShippedAt          *time.Time      `json:"shipped_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	Items              []OrderLineItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaidTotal is everything already collected against the order.
func (o *CreditOrder) PaidTotal() money.Amount {
	return o.AmountPaid + o.AdvancePaid
}

// RecomputeBalance restores BalanceDue from the totals, floored at zero.
func (o *CreditOrder) RecomputeBalance() {
	o.BalanceDue = money.MaxZero(o.TotalAmount - o.PaidTotal())
}

// OrderLineItem is one product line. LineTotal = Quantity*UnitPrice - Discount + Tax.
type OrderLineItem struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       *uuid.UUID   `gorm:"type:uuid" json:"variant_id"`
	Description     string       `gorm:"type:varchar(255)" json:"description"`
	Quantity        int64        `gorm:"not null" json:"quantity"`
	UnitPrice       money.Amount `gorm:"type:bigint;not null" json:"unit_price"`
	Discount        money.Amount `gorm:"type:bigint;not null;default:0" json:"discount"`
	Tax             money.Amount `gorm:"type:bigint;not null;default:0" json:"tax"`
	LineTotal       money.Amount `gorm:"type:bigint;not null" json:"line_total"`
	UnitWeightGrams int64        `gorm:"not null;default:0" json:"unit_weight_grams"`
}

// ComputeLineTotal fills LineTotal from quantity, price, discount and tax.
// It fails with money.ErrOutOfRange when the total does not fit.
func (li *OrderLineItem) ComputeLineTotal() error {
	gross, err := li.UnitPrice.Mul(li.Quantity)
	if err != nil {
		return err
	}
	net, err := gross.Sub(li.Discount)
	if err != nil {
		return err
	}
	total, err := net.Add(li.Tax)
	if err != nil {
		return err
	}
	li.LineTotal = total
	return nil
}
