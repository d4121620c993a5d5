package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCheque       = "cheque"
)

const (
	PaymentStatusAllocated   = "allocated"
	PaymentStatusUnallocated = "unallocated"
)

const (
	AllocationAdvance = "advance"
	AllocationInvoice = "invoice"
)

// Payment is money received from a customer. Status is allocated when any allocation exists.
type Payment struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentNumber    string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"payment_number"`
	CustomerID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount           money.Amount        `gorm:"type:bigint;not null" json:"amount"`
	Method           string              `gorm:"type:varchar(20);not null" json:"method"`
	Reference        string              `gorm:"type:varchar(100)" json:"reference"`
	DepositAccountID uuid.UUID           `gorm:"type:uuid;not null" json:"deposit_account_id"`
	Status           string              `gorm:"type:varchar(20);not null" json:"status"`
	PaymentDate      time.Time           `gorm:"not null" json:"payment_date"`
	LedgerEntryID    *uuid.UUID          `gorm:"type:uuid" json:"ledger_entry_id"`
	JournalEntryID   *uuid.UUID          `gorm:"type:uuid" json:"journal_entry_id"`
	Notes            string              `gorm:"type:text" json:"notes"`
	RecordedBy       uuid.UUID           `gorm:"type:uuid;not null" json:"recorded_by"`
	Allocations      []PaymentAllocation `gorm:"foreignKey:PaymentID" json:"allocations"`
	CreatedAt        time.Time           `json:"created_at"`
}

// PaymentAllocation applies part of a payment to one order.
type PaymentAllocation struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PaymentID uuid.UUID    `gorm:"type:uuid;not null;index" json:"payment_id"`
	OrderID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	Amount    money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Kind      string       `gorm:"type:varchar(20);not null" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}
