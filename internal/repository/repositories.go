package repository

import (
	"time"

	"gorm.io/gorm"
)

// Repositories bundles every store the services need, plus the transaction manager
// that scopes them. Both the gorm and the in-memory backends produce one.
type Repositories struct {
	Tx        TransactionManager
	Customers CustomerRepository
	Orders    OrderRepository
	Ledger    LedgerRepository
	Journal   JournalRepository
	Accounts  AccountRepository
	Payments  PaymentRepository
	Workflow  WorkflowRepository
	Audit     AuditRepository
	Sequences SequenceRepository
	Trips     TripRepository
	Products  ProductRepository
}

// NewGormRepositories wires the postgres-backed repositories.
func NewGormRepositories(db *gorm.DB, lockTimeout time.Duration) *Repositories {
	return &Repositories{
		Tx:        NewTransactionManager(db, lockTimeout),
		Customers: NewCustomerRepository(db),
		Orders:    NewOrderRepository(db),
		Ledger:    NewLedgerRepository(db),
		Journal:   NewJournalRepository(db),
		Accounts:  NewAccountRepository(db),
		Payments:  NewPaymentRepository(db),
		Workflow:  NewWorkflowRepository(db),
		Audit:     NewAuditRepository(db),
		Sequences: NewSequenceRepository(db),
		Trips:     NewTripRepository(db),
		Products:  NewProductRepository(db),
	}
}
