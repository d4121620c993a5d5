package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

const (
	LedgerTxInvoice        = "invoice"
	LedgerTxPayment        = "payment"
	LedgerTxAdvancePayment = "advance_payment"
)

const (
	RefTypeOrder   = "order"
	RefTypePayment = "payment"
)

// CustomerLedgerEntry is one row of a customer's running-balance ledger.
// Append-only. BalanceAfter chains from the previous entry (or Customer.InitialDue).
// The (transaction_type, reference_type, reference_id) index makes each posting one-shot.
type CustomerLedgerEntry struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Seq             int64        `gorm:"autoIncrement;uniqueIndex;not null" json:"seq"`
	CustomerID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"customer_id"`
	TransactionDate time.Time    `gorm:"not null" json:"transaction_date"`
	TransactionType string       `gorm:"type:varchar(30);not null;uniqueIndex:uq_ledger_posting" json:"transaction_type"`
	ReferenceType   string       `gorm:"type:varchar(20);not null;uniqueIndex:uq_ledger_posting" json:"reference_type"`
	ReferenceID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_ledger_posting" json:"reference_id"`
	DebitAmount     money.Amount `gorm:"type:bigint;not null;default:0" json:"debit_amount"`
	CreditAmount    money.Amount `gorm:"type:bigint;not null;default:0" json:"credit_amount"`
	BalanceAfter    money.Amount `gorm:"type:bigint;not null" json:"balance_after"`
	JournalEntryID  *uuid.UUID   `gorm:"type:uuid" json:"journal_entry_id"`
	Description     string       `gorm:"type:text" json:"description"`
	CreatedBy       uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
}
