// Package memory is an in-process implementation of every repository.
//
// A single mutex guards the whole state. RunInTx holds it for the duration of the
// callback and restores a snapshot when the callback fails or panics, so a
// transaction is both serialized and all-or-nothing.
package memory

import (
	"context"
	"sync"
	"time"

	"salesledger/internal/model"
	"salesledger/internal/repository"

	"github.com/google/uuid"
)

type txKey struct{}

type state struct {
	customers  map[uuid.UUID]model.Customer
	orders     map[uuid.UUID]model.CreditOrder
	items      map[uuid.UUID][]model.OrderLineItem
	ledger     []model.CustomerLedgerEntry
	ledgerSeq  int64
	journals   map[uuid.UUID]model.JournalEntry
	accounts   map[uuid.UUID]model.Account
	payments   map[uuid.UUID]model.Payment
	workflow   []model.WorkflowEvent
	audit      []model.AuditLog
	sequences  map[string]int64
	trips      map[uuid.UUID]model.Trip
	tripOrders []model.TripOrder
	products   map[uuid.UUID]model.Product
}

func newState() *state {
	return &state{
		customers: make(map[uuid.UUID]model.Customer),
		orders:    make(map[uuid.UUID]model.CreditOrder),
		items:     make(map[uuid.UUID][]model.OrderLineItem),
		journals:  make(map[uuid.UUID]model.JournalEntry),
		accounts:  make(map[uuid.UUID]model.Account),
		payments:  make(map[uuid.UUID]model.Payment),
		sequences: make(map[string]int64),
		trips:     make(map[uuid.UUID]model.Trip),
		products:  make(map[uuid.UUID]model.Product),
	}
}

func (st *state) clone() *state {
	out := &state{
		customers:  cloneMap(st.customers),
		orders:     cloneMap(st.orders),
		items:      make(map[uuid.UUID][]model.OrderLineItem, len(st.items)),
		ledger:     append([]model.CustomerLedgerEntry(nil), st.ledger...),
		ledgerSeq:  st.ledgerSeq,
		journals:   make(map[uuid.UUID]model.JournalEntry, len(st.journals)),
		accounts:   cloneMap(st.accounts),
		payments:   make(map[uuid.UUID]model.Payment, len(st.payments)),
		workflow:   append([]model.WorkflowEvent(nil), st.workflow...),
		audit:      append([]model.AuditLog(nil), st.audit...),
		sequences:  cloneMap(st.sequences),
		trips:      cloneMap(st.trips),
		tripOrders: append([]model.TripOrder(nil), st.tripOrders...),
		products:   cloneMap(st.products),
	}
	for k, v := range st.items {
		out.items[k] = append([]model.OrderLineItem(nil), v...)
	}
	for k, v := range st.journals {
		out.journals[k] = cloneJournal(v)
	}
	for k, v := range st.payments {
		out.payments[k] = clonePayment(v)
	}
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneJournal(j model.JournalEntry) model.JournalEntry {
	j.Lines = append([]model.TransactionLine(nil), j.Lines...)
	return j
}

func clonePayment(p model.Payment) model.Payment {
	p.Allocations = append([]model.PaymentAllocation(nil), p.Allocations...)
	return p
}

// Store is the in-memory backend.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:        s,
		Customers: &customerRepo{s},
		Orders:    &orderRepo{s},
		Ledger:    &ledgerRepo{s},
		Journal:   &journalRepo{s},
		Accounts:  &accountRepo{s},
		Payments:  &paymentRepo{s},
		Workflow:  &workflowRepo{s},
		Audit:     &auditRepo{s},
		Sequences: &sequenceRepo{s},
		Trips:     &tripRepo{s},
		Products:  &productRepo{s},
	}
}

// RunInTx implements repository.TransactionManager.
func (s *Store) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// guard takes the store mutex unless the caller already holds it through RunInTx.
func (s *Store) guard(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now()
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func paginate[T any](rows []T, page, limit int) []T {
	if limit <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
