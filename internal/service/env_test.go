package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/internal/repository/memory"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	ctx        context.Context
	repos      *repository.Repositories
	pub        *recordingPublisher
	orders     OrderService
	production ProductionService
	shipping   ShippingService
	payments   PaymentService
	customers  CustomerService
	accounting AccountingService
	products   ProductService

	clerk   model.Actor
	manager model.Actor
	branch  uuid.UUID
	product ProductResponse
	bank    AccountResponse
}

// newTestEnv wires every service over a fresh memory store. With seed, the default
// chart of accounts and a bank account exist.
func newTestEnv(t *testing.T, seed bool) *testEnv {
	t.Helper()
	repos := memory.New().Repositories()
	pub := &recordingPublisher{}
	deps := Deps{
		Repos:     repos,
		Publisher: pub,
		Logger:    logger.Discard(),
		Now:       func() time.Time { return testNow },
	}
	env := &testEnv{
		ctx:        context.Background(),
		repos:      repos,
		pub:        pub,
		orders:     NewOrderService(deps),
		production: NewProductionService(deps),
		shipping:   NewShippingService(deps),
		payments:   NewPaymentService(deps),
		customers:  NewCustomerService(deps),
		accounting: NewAccountingService(deps),
		products:   NewProductService(deps),
		clerk:      model.Actor{UserID: uuid.New(), Role: "sales"},
		manager:    model.Actor{UserID: uuid.New(), Role: "manager", Privileged: true},
		branch:     uuid.New(),
	}

	var err error
	env.product, err = env.products.CreateProduct(env.ctx, env.manager, CreateProductDTO{
		SKU:             "BAG-50",
		Name:            "Cement bag 50kg",
		UnitPrice:       money.MustParse("100"),
		UnitWeightGrams: 50_000,
	})
	require.NoError(t, err)

	if seed {
		_, err := env.accounting.SeedDefaults(env.ctx)
		require.NoError(t, err)
		accounts, err := env.accounting.ListAccounts(env.ctx)
		require.NoError(t, err)
		for _, a := range accounts {
			if a.Tag == model.AccountTagBank {
				env.bank = a
			}
		}
	}
	return env
}

func (e *testEnv) customer(t *testing.T, code, limit, initialDue string) CustomerResponse {
	t.Helper()
	c, err := e.customers.CreateCustomer(e.ctx, e.manager, CreateCustomerDTO{
		Code:        code,
		Name:        "Customer " + code,
		CreditLimit: money.MustParse(limit),
		InitialDue:  money.MustParse(initialDue),
	})
	require.NoError(t, err)
	return c
}

// submitted creates a one-line order worth amount and submits it as the manager.
func (e *testEnv) submitted(t *testing.T, customerID, amount string) OrderResponse {
	t.Helper()
	price := money.MustParse(amount)
	o, err := e.orders.CreateOrder(e.ctx, e.manager, CreateOrderDTO{
		CustomerID: customerID,
		Items:      []LineItemInput{{ProductID: e.product.ID, Quantity: 1, UnitPrice: &price}},
		Submit:     true,
	})
	require.NoError(t, err)
	require.Equal(t, string(model.OrderStatusPendingApproval), o.Status)
	return o
}

func (e *testEnv) decision() DecideOrderDTO {
	required := testNow.AddDate(0, 0, 7)
	return DecideOrderDTO{Decision: "approve", BranchID: e.branch.String(), RequiredDate: &required}
}

func (e *testEnv) approved(t *testing.T, customerID, amount string) OrderResponse {
	t.Helper()
	o := e.submitted(t, customerID, amount)
	o, err := e.orders.Decide(e.ctx, e.manager, o.ID, e.decision())
	require.NoError(t, err)
	require.Equal(t, string(model.OrderStatusApproved), o.Status)
	return o
}

func (e *testEnv) readyToShip(t *testing.T, customerID, amount string) OrderResponse {
	t.Helper()
	o := e.approved(t, customerID, amount)
	var err error
	for _, step := range []func(context.Context, model.Actor, string) (OrderResponse, error){
		e.production.Start, e.production.Complete, e.production.MarkReady,
	} {
		o, err = step(e.ctx, e.clerk, o.ID)
		require.NoError(t, err)
	}
	require.Equal(t, string(model.OrderStatusReadyToShip), o.Status)
	return o
}

func (e *testEnv) shipped(t *testing.T, customerID, amount string) ShipmentResponse {
	t.Helper()
	o := e.readyToShip(t, customerID, amount)
	res, err := e.shipping.Ship(e.ctx, e.clerk, o.ID, ShipOrderDTO{})
	require.NoError(t, err)
	return res
}

func (e *testEnv) ledger(t *testing.T, customerID string) []model.CustomerLedgerEntry {
	t.Helper()
	entries, err := e.repos.Ledger.ListByCustomer(e.ctx, uuid.MustParse(customerID))
	require.NoError(t, err)
	return entries
}

func (e *testEnv) order(t *testing.T, id string) *model.CreditOrder {
	t.Helper()
	o, err := e.repos.Orders.FindByID(e.ctx, uuid.MustParse(id))
	require.NoError(t, err)
	return o
}

func (e *testEnv) balance(t *testing.T, customerID string) money.Amount {
	t.Helper()
	c, err := e.repos.Customers.FindByID(e.ctx, uuid.MustParse(customerID))
	require.NoError(t, err)
	return c.CurrentBalance
}

// requireOrderInvariant checks balance_due == total - paid and balance_due >= 0.
func requireOrderInvariant(t *testing.T, o *model.CreditOrder) {
	t.Helper()
	require.GreaterOrEqual(t, int64(o.BalanceDue), int64(0))
	require.Equal(t, o.TotalAmount-o.AmountPaid-o.AdvancePaid, o.BalanceDue, "order %s", o.OrderNumber)
}

// actionCounts tallies the workflow actions recorded for an order.
func (e *testEnv) actionCounts(t *testing.T, orderID string) map[string]int {
	t.Helper()
	events, err := e.repos.Workflow.ListByOrder(e.ctx, uuid.MustParse(orderID))
	require.NoError(t, err)
	counts := make(map[string]int, len(events))
	for _, ev := range events {
		counts[ev.Action]++
	}
	return counts
}

// concurrently runs fn from n goroutines released together and returns every result.
func concurrently(n int, fn func() error) []error {
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

// requireSingleWinner asserts exactly one nil error and that every other one wraps want.
func requireSingleWinner(t *testing.T, errs []error, want error) {
	t.Helper()
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, want)
	}
	require.Equal(t, 1, wins)
}
