package service

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideEscalationBoundary(t *testing.T) {
	// limit 10000, balance 2000: available 8000, escalation at 6400
	cases := []struct {
		amount string
		want   model.OrderStatus
	}{
		{"6400.00", model.OrderStatusEscalated},
		{"6399.99", model.OrderStatusApproved},
		{"8000.00", model.OrderStatusEscalated},
		{"100.00", model.OrderStatusApproved},
	}
	for _, tt := range cases {
		t.Run(tt.amount, func(t *testing.T) {
			env := newTestEnv(t, true)
			c := env.customer(t, "C-600", "10000", "2000")
			o := env.submitted(t, c.ID, tt.amount)

			decided, err := env.orders.Decide(env.ctx, env.clerk, o.ID, env.decision())
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), decided.Status)
			assert.NotNil(t, decided.BranchID)
			assert.NotNil(t, decided.RequiredDate)
		})
	}
}

func TestEscalatedOrderNeedsPrivilegedDecision(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-610", "10000", "2000")
	o := env.submitted(t, c.ID, "7000")

	escalated, err := env.orders.Decide(env.ctx, env.clerk, o.ID, env.decision())
	require.NoError(t, err)
	require.Equal(t, string(model.OrderStatusEscalated), escalated.Status)

	_, err = env.orders.Decide(env.ctx, env.clerk, o.ID, env.decision())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	approved, err := env.orders.Decide(env.ctx, env.manager, o.ID, env.decision())
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, env.manager.UserID.String(), *approved.ApprovedBy)

	events, err := env.orders.ListEvents(env.ctx, o.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"submit", "escalate", "approve"}, actions)
	assert.Contains(t, events[1].Comment, "bps")
}

func TestDecideApproveNeedsBranchAndDate(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-620", "0", "0")
	o := env.submitted(t, c.ID, "10")

	_, err := env.orders.Decide(env.ctx, env.manager, o.ID, DecideOrderDTO{Decision: "approve"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, model.OrderStatusPendingApproval, env.order(t, o.ID).Status)

	rejected, err := env.orders.Decide(env.ctx, env.manager, o.ID, DecideOrderDTO{Decision: "reject", Comment: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusRejected), rejected.Status)
}

func TestSubmitHardBlocksOverLimit(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-630", "1000", "0")
	price := money.MustParse("1500")
	o, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items:      []LineItemInput{{ProductID: env.product.ID, Quantity: 1, UnitPrice: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDraft), o.Status)

	_, err = env.orders.Submit(env.ctx, env.clerk, o.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, model.OrderStatusDraft, env.order(t, o.ID).Status)

	submitted, err := env.orders.Submit(env.ctx, env.manager, o.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPendingApproval), submitted.Status)
}

func TestSubmitNeedsLineItems(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-640", "0", "0")
	o, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{CustomerID: c.ID})
	require.NoError(t, err)

	_, err = env.orders.Submit(env.ctx, env.clerk, o.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-650", "0", "0")
	o, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items: []LineItemInput{
			{ProductID: env.product.ID, Quantity: 3, Discount: money.MustParse("20"), Tax: money.MustParse("14.50")},
		},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, money.MustParse("300"), o.Subtotal)
	assert.Equal(t, money.MustParse("294.50"), o.TotalAmount)
	assert.Equal(t, o.TotalAmount, o.BalanceDue)
	assert.Equal(t, money.MustParse("294.50"), o.Items[0].LineTotal)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "SO-20260310-"), o.OrderNumber)
}

func TestCreateOrderRejectsInactiveOrUnknownInputs(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-660", "0", "0")

	_, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items:      []LineItemInput{{ProductID: c.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items:      []LineItemInput{{ProductID: env.product.ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRejectNeedsPrivilegedActor(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-670", "0", "0")
	o := env.approved(t, c.ID, "10")

	_, err := env.orders.Reject(env.ctx, env.clerk, o.ID, "no stock")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	rejected, err := env.orders.Reject(env.ctx, env.manager, o.ID, "no stock")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusRejected), rejected.Status)
}

func TestCancelGuards(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-680", "0", "0")

	clean := env.submitted(t, c.ID, "100")
	cancelled, err := env.orders.Cancel(env.ctx, env.clerk, clean.ID, "customer withdrew")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), cancelled.Status)

	prepaid := env.submitted(t, c.ID, "100")
	_, err = env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID:  c.ID,
		Amount:      money.MustParse("40"),
		Method:      model.PaymentMethodCash,
		Allocations: []AllocationInput{{OrderID: prepaid.ID, Amount: money.MustParse("40")}},
	})
	require.NoError(t, err)
	_, err = env.orders.Cancel(env.ctx, env.clerk, prepaid.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	approved := env.approved(t, c.ID, "100")
	_, err = env.orders.Cancel(env.ctx, env.clerk, approved.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestEditOrderWritesAudit(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-690", "0", "0")
	o := env.approved(t, c.ID, "100")

	notes := "deliver to gate 3"
	edited, err := env.orders.EditOrder(env.ctx, env.clerk, o.ID, EditOrderDTO{
		Items: []LineItemInput{{ProductID: env.product.ID, Quantity: 2}},
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("200"), edited.TotalAmount)
	assert.Equal(t, notes, edited.Notes)
	assert.Equal(t, string(model.OrderStatusApproved), edited.Status)

	stored := env.order(t, o.ID)
	requireOrderInvariant(t, stored)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(2), stored.Items[0].Quantity)

	logs, total, err := env.repos.Audit.List(env.ctx, repository.AuditFilter{Action: model.ActionEditOrder, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, o.ID, logs[0].EntityID)

	var details struct {
		Before orderSnapshot `json:"before"`
		After  orderSnapshot `json:"after"`
	}
	require.NoError(t, json.Unmarshal([]byte(logs[0].Details), &details))
	assert.Equal(t, money.MustParse("100"), details.Before.TotalAmount)
	assert.Equal(t, money.MustParse("200"), details.After.TotalAmount)
	assert.Equal(t, notes, details.After.Notes)
}

func TestEditOrderCannotDropBelowPaid(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-691", "0", "0")
	o := env.approved(t, c.ID, "500")
	_, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID:  c.ID,
		Amount:      money.MustParse("300"),
		Method:      model.PaymentMethodCash,
		Allocations: []AllocationInput{{OrderID: o.ID, Amount: money.MustParse("300")}},
	})
	require.NoError(t, err)

	_, err = env.orders.EditOrder(env.ctx, env.clerk, o.ID, EditOrderDTO{
		Items: []LineItemInput{{ProductID: env.product.ID, Quantity: 2}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	requireOrderInvariant(t, env.order(t, o.ID))
}

func TestEditShippedOrderDoesNotRepost(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-692", "0", "0")
	shipment := env.shipped(t, c.ID, "100")

	_, err := env.orders.EditOrder(env.ctx, env.clerk, shipment.Order.ID, EditOrderDTO{
		Items: []LineItemInput{{ProductID: env.product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Len(t, env.ledger(t, c.ID), 1)
	assert.Equal(t, money.MustParse("100"), env.balance(t, c.ID))
}

func TestEditDeliveredOrderIsRefused(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-693", "0", "0")
	shipment := env.shipped(t, c.ID, "100")
	_, err := env.shipping.Deliver(env.ctx, env.clerk, shipment.Order.ID, "")
	require.NoError(t, err)

	notes := "late"
	_, err = env.orders.EditOrder(env.ctx, env.clerk, shipment.Order.ID, EditOrderDTO{Notes: &notes})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestConcurrentOrderNumbersAreDistinct(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-700", "0", "0")

	const n = 1000
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, n)
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{CustomerID: c.ID})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[o.OrderNumber] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, n)
}

func TestListOrdersFilters(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-710", "0", "0")
	other := env.customer(t, "C-711", "0", "0")
	env.approved(t, c.ID, "10")
	env.submitted(t, c.ID, "10")
	env.submitted(t, other.ID, "10")

	orders, total, err := env.orders.ListOrders(env.ctx, OrderListFilter{CustomerID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = env.orders.ListOrders(env.ctx, OrderListFilter{Statuses: []string{"pending_approval"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, o := range orders {
		assert.Equal(t, "pending_approval", o.Status)
	}

	_, _, err = env.orders.ListOrders(env.ctx, OrderListFilter{CustomerID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestConcurrentDecideApprovesOnce(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-690", "0", "0")
	o := env.submitted(t, c.ID, "1000")

	errs := concurrently(20, func() error {
		_, err := env.orders.Decide(env.ctx, env.manager, o.ID, env.decision())
		return err
	})
	requireSingleWinner(t, errs, apperrors.ErrInvalidTransition)

	assert.Equal(t, 1, env.actionCounts(t, o.ID)[string(ActionApprove)])
	assert.Equal(t, model.OrderStatusApproved, env.order(t, o.ID).Status)
}

func TestCreateOrderRejectsOutOfRangeTotals(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-695", "0", "0")
	huge := money.Amount(math.MaxInt64)

	cases := []struct {
		name string
		item LineItemInput
	}{
		{"line total", LineItemInput{ProductID: env.product.ID, Quantity: 2, UnitPrice: &huge}},
		{"tax on top of line", LineItemInput{ProductID: env.product.ID, Quantity: 1, UnitPrice: &huge, Tax: money.MustParse("0.01")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
				CustomerID: c.ID,
				Items:      []LineItemInput{tc.item},
			})
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	_, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items: []LineItemInput{
			{ProductID: env.product.ID, Quantity: 1, UnitPrice: &huge},
			{ProductID: env.product.ID, Quantity: 1, UnitPrice: &huge},
		},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
