package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/google/uuid"
)

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", apperrors.ErrNotFound, kind, id)
}

// --- customers ---

type customerRepo struct{ s *Store }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.customers {
		if existing.Code == c.Code {
			return fmt.Errorf("%w: customer code %s", apperrors.ErrDuplicate, c.Code)
		}
	}
	ensureID(&c.ID)
	r.s.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	r.s.st.customers[c.ID] = *c
	return nil
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	defer r.s.guard(ctx)()
	c, ok := r.s.st.customers[id]
	if !ok {
		return nil, notFound("customer", id)
	}
	return &c, nil
}

func (r *customerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *customerRepo) List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	defer r.s.guard(ctx)()
	search = strings.ToLower(search)
	var rows []model.Customer
	for _, c := range r.s.st.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(strings.ToLower(c.Code), search) {
			continue
		}
		rows = append(rows, c)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return paginate(rows, page, limit), int64(len(rows)), nil
}

func (r *customerRepo) UpdateCurrentBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error {
	defer r.s.guard(ctx)()
	c, ok := r.s.st.customers[id]
	if !ok {
		return notFound("customer", id)
	}
	c.CurrentBalance = balance
	c.UpdatedAt = r.s.now()
	r.s.st.customers[id] = c
	return nil
}

// --- orders ---

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, o *model.CreditOrder) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("%w: order number %s", apperrors.ErrDuplicate, o.OrderNumber)
		}
	}
	ensureID(&o.ID)
	r.s.stamp(&o.CreatedAt)
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		ensureID(&o.Items[i].ID)
		o.Items[i].OrderID = o.ID
	}
	r.s.st.items[o.ID] = append([]model.OrderLineItem(nil), o.Items...)
	header := *o
	header.Items = nil
	header.Customer = nil
	r.s.st.orders[o.ID] = header
	return nil
}

func (r *orderRepo) load(id uuid.UUID) (*model.CreditOrder, error) {
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	o.Items = append([]model.OrderLineItem(nil), r.s.st.items[id]...)
	return &o, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error) {
	defer r.s.guard(ctx)()
	return r.load(id)
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CreditOrder, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) Update(ctx context.Context, o *model.CreditOrder) error {
	defer r.s.guard(ctx)()
	if _, ok := r.s.st.orders[o.ID]; !ok {
		return notFound("order", o.ID)
	}
	o.UpdatedAt = r.s.now()
	header := *o
	header.Items = nil
	header.Customer = nil
	r.s.st.orders[o.ID] = header
	return nil
}

func (r *orderRepo) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.OrderLineItem) error {
	defer r.s.guard(ctx)()
	if _, ok := r.s.st.orders[orderID]; !ok {
		return notFound("order", orderID)
	}
	for i := range items {
		items[i].OrderID = orderID
		items[i].ID = uuid.New()
	}
	r.s.st.items[orderID] = append([]model.OrderLineItem(nil), items...)
	return nil
}

func (r *orderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]model.CreditOrder, int64, error) {
	defer r.s.guard(ctx)()
	var rows []model.CreditOrder
	for _, o := range r.s.st.orders {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.BranchID != nil && (o.BranchID == nil || *o.BranchID != *filter.BranchID) {
			continue
		}
		if c, ok := r.s.st.customers[o.CustomerID]; ok {
			o.Customer = &c
		}
		rows = append(rows, o)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].OrderNumber > rows[j].OrderNumber
	})
	return paginate(rows, filter.Page, filter.Limit), int64(len(rows)), nil
}

func (r *orderRepo) ProductionQueue(ctx context.Context, branchID *uuid.UUID) ([]model.CreditOrder, error) {
	defer r.s.guard(ctx)()
	var rows []model.CreditOrder
	for id, o := range r.s.st.orders {
		if !slices.Contains(repository.ProductionStatuses, o.Status) {
			continue
		}
		if branchID != nil && (o.BranchID == nil || *o.BranchID != *branchID) {
			continue
		}
		o.Items = append([]model.OrderLineItem(nil), r.s.st.items[id]...)
		rows = append(rows, o)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ProductionPriority != b.ProductionPriority {
			return a.ProductionPriority > b.ProductionPriority
		}
		switch {
		case a.RequiredDate != nil && b.RequiredDate != nil && !a.RequiredDate.Equal(*b.RequiredDate):
			return a.RequiredDate.Before(*b.RequiredDate)
		case a.RequiredDate != nil && b.RequiredDate == nil:
			return true
		case a.RequiredDate == nil && b.RequiredDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return rows, nil
}

// --- ledger ---

type ledgerRepo struct{ s *Store }

func (r *ledgerRepo) Append(ctx context.Context, e *model.CustomerLedgerEntry) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.ledger {
		if existing.TransactionType == e.TransactionType &&
			existing.ReferenceType == e.ReferenceType &&
			existing.ReferenceID == e.ReferenceID {
			return fmt.Errorf("%w: ledger %s for %s %s", apperrors.ErrDuplicate, e.TransactionType, e.ReferenceType, e.ReferenceID)
		}
	}
	ensureID(&e.ID)
	r.s.stamp(&e.CreatedAt)
	r.s.st.ledgerSeq++
	e.Seq = r.s.st.ledgerSeq
	r.s.st.ledger = append(r.s.st.ledger, *e)
	return nil
}

func (r *ledgerRepo) LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerLedgerEntry, error) {
	defer r.s.guard(ctx)()
	for i := len(r.s.st.ledger) - 1; i >= 0; i-- {
		if r.s.st.ledger[i].CustomerID == customerID {
			e := r.s.st.ledger[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r *ledgerRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.CustomerLedgerEntry, error) {
	defer r.s.guard(ctx)()
	var rows []model.CustomerLedgerEntry
	for _, e := range r.s.st.ledger {
		if e.CustomerID == customerID {
			rows = append(rows, e)
		}
	}
	return rows, nil
}

func (r *ledgerRepo) ExistsForReference(ctx context.Context, txType, refType string, refID uuid.UUID) (bool, error) {
	defer r.s.guard(ctx)()
	for _, e := range r.s.st.ledger {
		if e.TransactionType == txType && e.ReferenceType == refType && e.ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

// --- journal ---

type journalRepo struct{ s *Store }

func (r *journalRepo) Create(ctx context.Context, j *model.JournalEntry) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.journals {
		if existing.SourceType == j.SourceType && existing.SourceID == j.SourceID {
			return fmt.Errorf("%w: journal for %s %s", apperrors.ErrDuplicate, j.SourceType, j.SourceID)
		}
	}
	ensureID(&j.ID)
	r.s.stamp(&j.CreatedAt)
	for i := range j.Lines {
		ensureID(&j.Lines[i].ID)
		j.Lines[i].JournalEntryID = j.ID
	}
	r.s.st.journals[j.ID] = cloneJournal(*j)
	return nil
}

func (r *journalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	defer r.s.guard(ctx)()
	j, ok := r.s.st.journals[id]
	if !ok {
		return nil, notFound("journal entry", id)
	}
	j = cloneJournal(j)
	return &j, nil
}

func (r *journalRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.JournalEntry, error) {
	defer r.s.guard(ctx)()
	var rows []model.JournalEntry
	for _, j := range r.s.st.journals {
		if j.CustomerID == customerID {
			rows = append(rows, cloneJournal(j))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

// --- accounts ---

type accountRepo struct{ s *Store }

func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.accounts {
		if existing.Code == a.Code {
			return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, a.Code)
		}
	}
	ensureID(&a.ID)
	r.s.stamp(&a.CreatedAt)
	r.s.st.accounts[a.ID] = *a
	return nil
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	defer r.s.guard(ctx)()
	a, ok := r.s.st.accounts[id]
	if !ok {
		return nil, notFound("account", id)
	}
	return &a, nil
}

func (r *accountRepo) FindByTag(ctx context.Context, tag string, branchID *uuid.UUID) (*model.Account, error) {
	defer r.s.guard(ctx)()
	var match *model.Account
	for _, a := range r.s.st.accounts {
		if a.Tag != tag || !a.IsActive {
			continue
		}
		if (branchID == nil) != (a.BranchID == nil) {
			continue
		}
		if branchID != nil && *a.BranchID != *branchID {
			continue
		}
		if match == nil || a.Code < match.Code {
			match = &a
		}
	}
	if match == nil {
		return nil, notFound("account tag", tag)
	}
	return match, nil
}

func (r *accountRepo) List(ctx context.Context) ([]model.Account, error) {
	defer r.s.guard(ctx)()
	rows := make([]model.Account, 0, len(r.s.st.accounts))
	for _, a := range r.s.st.accounts {
		rows = append(rows, a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

// --- payments ---

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.payments {
		if existing.PaymentNumber == p.PaymentNumber {
			return fmt.Errorf("%w: payment number %s", apperrors.ErrDuplicate, p.PaymentNumber)
		}
	}
	ensureID(&p.ID)
	r.s.stamp(&p.CreatedAt)
	for i := range p.Allocations {
		ensureID(&p.Allocations[i].ID)
		p.Allocations[i].PaymentID = p.ID
		r.s.stamp(&p.Allocations[i].CreatedAt)
	}
	r.s.st.payments[p.ID] = clonePayment(*p)
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	defer r.s.guard(ctx)()
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, notFound("payment", id)
	}
	p = clonePayment(p)
	return &p, nil
}

func (r *paymentRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Payment, error) {
	defer r.s.guard(ctx)()
	var rows []model.Payment
	for _, p := range r.s.st.payments {
		if p.CustomerID == customerID {
			rows = append(rows, clonePayment(p))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PaymentDate.After(rows[j].PaymentDate) })
	return rows, nil
}

func (r *paymentRepo) ListAllocationsByOrder(ctx context.Context, orderID uuid.UUID) ([]model.PaymentAllocation, error) {
	defer r.s.guard(ctx)()
	var rows []model.PaymentAllocation
	for _, p := range r.s.st.payments {
		for _, a := range p.Allocations {
			if a.OrderID == orderID {
				rows = append(rows, a)
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

// --- workflow ---

type workflowRepo struct{ s *Store }

func (r *workflowRepo) Append(ctx context.Context, e *model.WorkflowEvent) error {
	defer r.s.guard(ctx)()
	ensureID(&e.ID)
	r.s.stamp(&e.CreatedAt)
	r.s.st.workflow = append(r.s.st.workflow, *e)
	return nil
}

func (r *workflowRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.WorkflowEvent, error) {
	defer r.s.guard(ctx)()
	var rows []model.WorkflowEvent
	for _, e := range r.s.st.workflow {
		if e.OrderID == orderID {
			rows = append(rows, e)
		}
	}
	return rows, nil
}

// --- audit ---

type auditRepo struct{ s *Store }

func (r *auditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	defer r.s.guard(ctx)()
	ensureID(&entry.ID)
	r.s.stamp(&entry.CreatedAt)
	r.s.st.audit = append(r.s.st.audit, *entry)
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	defer r.s.guard(ctx)()
	var rows []model.AuditLog
	for i := len(r.s.st.audit) - 1; i >= 0; i-- {
		l := r.s.st.audit[i]
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.EntityID != "" && l.EntityID != filter.EntityID {
			continue
		}
		rows = append(rows, l)
	}
	return paginate(rows, filter.Page, filter.Limit), int64(len(rows)), nil
}

// --- sequences ---

type sequenceRepo struct{ s *Store }

func (r *sequenceRepo) Next(ctx context.Context, prefix string) (int64, error) {
	defer r.s.guard(ctx)()
	r.s.st.sequences[prefix]++
	return r.s.st.sequences[prefix], nil
}

// --- trips ---

type tripRepo struct{ s *Store }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *tripRepo) FindOpenForUpdate(ctx context.Context, vehicleID, driverID string, tripDate time.Time, minRemaining int64) (*model.Trip, error) {
	defer r.s.guard(ctx)()
	var match *model.Trip
	for _, t := range r.s.st.trips {
		if t.VehicleID != vehicleID || t.DriverID != driverID || t.Status != model.TripStatusOpen {
			continue
		}
		if !sameDay(t.TripDate, tripDate) || t.RemainingGrams() < minRemaining {
			continue
		}
		if match == nil || t.CreatedAt.Before(match.CreatedAt) {
			match = &t
		}
	}
	return match, nil
}

func (r *tripRepo) Create(ctx context.Context, t *model.Trip) error {
	defer r.s.guard(ctx)()
	ensureID(&t.ID)
	r.s.stamp(&t.CreatedAt)
	t.UpdatedAt = t.CreatedAt
	stored := *t
	stored.Orders = nil
	r.s.st.trips[t.ID] = stored
	return nil
}

func (r *tripRepo) AddOrder(ctx context.Context, t *model.Trip, link *model.TripOrder) error {
	defer r.s.guard(ctx)()
	stored, ok := r.s.st.trips[t.ID]
	if !ok {
		return notFound("trip", t.ID)
	}
	for _, existing := range r.s.st.tripOrders {
		if existing.OrderID == link.OrderID {
			return fmt.Errorf("%w: order %s already on a trip", apperrors.ErrDuplicate, link.OrderID)
		}
	}
	ensureID(&link.ID)
	link.TripID = t.ID
	r.s.stamp(&link.CreatedAt)
	r.s.st.tripOrders = append(r.s.st.tripOrders, *link)
	stored.LoadedGrams += link.WeightGrams
	r.s.st.trips[t.ID] = stored
	t.LoadedGrams = stored.LoadedGrams
	return nil
}

func (r *tripRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*model.Trip, error) {
	defer r.s.guard(ctx)()
	for _, link := range r.s.st.tripOrders {
		if link.OrderID != orderID {
			continue
		}
		t := r.s.st.trips[link.TripID]
		for _, l := range r.s.st.tripOrders {
			if l.TripID == t.ID {
				t.Orders = append(t.Orders, l)
			}
		}
		return &t, nil
	}
	return nil, notFound("trip for order", orderID)
}

// --- products ---

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	defer r.s.guard(ctx)()
	for _, existing := range r.s.st.products {
		if existing.SKU == p.SKU {
			return fmt.Errorf("%w: sku %s", apperrors.ErrDuplicate, p.SKU)
		}
	}
	ensureID(&p.ID)
	r.s.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	r.s.st.products[p.ID] = *p
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.s.guard(ctx)()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	defer r.s.guard(ctx)()
	rows := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok {
			rows = append(rows, p)
		}
	}
	return rows, nil
}

func (r *productRepo) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	defer r.s.guard(ctx)()
	search = strings.ToLower(search)
	var rows []model.Product
	for _, p := range r.s.st.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return paginate(rows, page, limit), int64(len(rows)), nil
}
