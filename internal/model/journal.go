package model

import (
	"time"

	"salesledger/pkg/money"

	"github.com/google/uuid"
)

// Account tags used to resolve the chart of accounts.
const (
	AccountTagReceivable      = "accounts_receivable"
	AccountTagRevenue         = "revenue"
	AccountTagCash            = "cash"
	AccountTagBank            = "bank"
	AccountTagUndepositedFund = "undeposited_funds"
)

// Account is a chart-of-accounts row. A nil BranchID marks the company-wide default.
type Account struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Tag       string     `gorm:"type:varchar(30);not null;index" json:"tag"`
	BranchID  *uuid.UUID `gorm:"type:uuid;index" json:"branch_id"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

const (
	JournalSourceInvoice = "invoice"
	JournalSourcePayment = "payment"
)

// JournalEntry groups the balanced lines of one financial event.
type JournalEntry struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntryDate   time.Time         `gorm:"not null" json:"entry_date"`
	SourceType  string            `gorm:"type:varchar(20);not null;uniqueIndex:uq_journal_source" json:"source_type"`
	SourceID    uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uq_journal_source" json:"source_id"`
	CustomerID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"customer_id"`
	Description string            `gorm:"type:text" json:"description"`
	CreatedBy   uuid.UUID         `gorm:"type:uuid" json:"created_by"`
	Lines       []TransactionLine `gorm:"foreignKey:JournalEntryID" json:"lines"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TransactionLine is one debit or credit line of a JournalEntry.
type TransactionLine struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JournalEntryID uuid.UUID    `gorm:"type:uuid;not null;index" json:"journal_entry_id"`
	AccountID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"account_id"`
	Debit          money.Amount `gorm:"type:bigint;not null;default:0" json:"debit"`
	Credit         money.Amount `gorm:"type:bigint;not null;default:0" json:"credit"`
	Memo           string       `gorm:"type:varchar(255)" json:"memo"`
}
