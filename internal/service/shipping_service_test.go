package service

import (
	"context"
	"testing"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditSaleEndToEnd(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-100", "50000", "0")

	o := env.readyToShip(t, c.ID, "20000")
	assert.Equal(t, money.MustParse("20000"), o.BalanceDue)

	shipment, err := env.shipping.Ship(env.ctx, env.clerk, o.ID, ShipOrderDTO{VehicleID: "TRK-1", DriverID: "DRV-1"})
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusShipped), shipment.Order.Status)
	assert.Equal(t, money.MustParse("20000"), shipment.InvoiceAmount)
	assert.Empty(t, shipment.HookErrors)
	assert.NotEmpty(t, shipment.TripNumber)
	assert.Equal(t, int64(50_000), shipment.WeightGrams)

	entries := env.ledger(t, c.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, model.LedgerTxInvoice, entries[0].TransactionType)
	assert.Equal(t, money.MustParse("20000"), entries[0].DebitAmount)
	assert.Equal(t, money.MustParse("20000"), entries[0].BalanceAfter)
	assert.Equal(t, money.MustParse("20000"), env.balance(t, c.ID))

	journal, err := env.accounting.GetJournalEntry(env.ctx, *shipment.JournalEntryID)
	require.NoError(t, err)
	assert.True(t, journal.Balanced)
	assert.Equal(t, model.JournalSourceInvoice, journal.SourceType)

	payment, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID:  c.ID,
		Amount:      money.MustParse("20000"),
		Method:      model.PaymentMethodCash,
		Allocations: []AllocationInput{{OrderID: o.ID, Amount: money.MustParse("20000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusAllocated, payment.Status)
	assert.Zero(t, payment.Unallocated)

	paid := env.order(t, o.ID)
	requireOrderInvariant(t, paid)
	assert.Zero(t, paid.BalanceDue)
	assert.Equal(t, money.MustParse("20000"), paid.AmountPaid)
	assert.Zero(t, env.balance(t, c.ID))

	entries = env.ledger(t, c.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LedgerTxPayment, entries[1].TransactionType)
	assert.Zero(t, entries[1].BalanceAfter)

	verification, err := env.customers.VerifyLedger(env.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, verification.Consistent, "%+v", verification.Mismatches)

	delivered, err := env.shipping.Deliver(env.ctx, env.clerk, o.ID, "signed by receiver")
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDelivered), delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	assert.Equal(t, []string{model.EventOrderShipped, model.EventPaymentRecorded, model.EventOrderDelivered}, env.pub.types())
}

func TestShipRecognizesInvoiceOnce(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-200", "0", "0")
	shipment := env.shipped(t, c.ID, "1500")

	_, err := env.shipping.Ship(env.ctx, env.clerk, shipment.Order.ID, ShipOrderDTO{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	assert.Len(t, env.ledger(t, c.ID), 1)
	assert.Equal(t, money.MustParse("1500"), env.balance(t, c.ID))
}

func TestLedgerPostingRejectsSecondPostingForSameReference(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-210", "0", "0")
	customer, err := env.repos.Customers.FindByID(env.ctx, uuid.MustParse(c.ID))
	require.NoError(t, err)

	accounts := &accountResolver{accounts: env.repos.Accounts}
	ar, err := accounts.Receivable(env.ctx)
	require.NoError(t, err)
	revenue, err := accounts.Revenue(env.ctx, nil)
	require.NoError(t, err)

	poster := &ledgerPoster{repos: env.repos, logger: logger.Discard(), now: func() time.Time { return testNow }}
	posting := Posting{
		Customer:        customer,
		TransactionType: model.LedgerTxInvoice,
		ReferenceType:   model.RefTypeOrder,
		ReferenceID:     uuid.New(),
		Debit:           money.MustParse("10"),
		DebitAccountID:  ar.ID,
		CreditAccountID: revenue.ID,
		JournalSource:   model.JournalSourceInvoice,
	}
	for i, want := range []error{nil, apperrors.ErrInvalidTransition} {
		err := env.repos.Tx.RunInTx(env.ctx, func(txCtx context.Context) error {
			_, err := poster.Post(txCtx, posting)
			return err
		})
		if want == nil {
			require.NoError(t, err, "attempt %d", i)
		} else {
			require.ErrorIs(t, err, want, "attempt %d", i)
		}
	}
	assert.Len(t, env.ledger(t, c.ID), 1)

	// same ledger reference under another journal source is still one posting
	posting.JournalSource = model.JournalSourcePayment
	err = env.repos.Tx.RunInTx(env.ctx, func(txCtx context.Context) error {
		_, err := poster.Post(txCtx, posting)
		return err
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	journal, err := env.accounting.ListCustomerJournal(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, journal, 1)
	assert.Len(t, env.ledger(t, c.ID), 1)
	assert.Equal(t, money.MustParse("10"), env.balance(t, c.ID))
}

func TestShipRollsBackWhenReceivableAccountMissing(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.accounting.CreateAccount(env.ctx, env.manager, CreateAccountDTO{
		Code: "4000", Name: "Revenue", Tag: model.AccountTagRevenue,
	})
	require.NoError(t, err)

	c := env.customer(t, "C-300", "0", "0")
	o := env.readyToShip(t, c.ID, "700")

	_, err = env.shipping.Ship(env.ctx, env.clerk, o.ID, ShipOrderDTO{})
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	after := env.order(t, o.ID)
	assert.Equal(t, model.OrderStatusReadyToShip, after.Status)
	assert.Nil(t, after.ShippedAt)
	assert.Empty(t, env.ledger(t, c.ID))
	assert.Zero(t, env.balance(t, c.ID))

	events, err := env.orders.ListEvents(env.ctx, o.ID)
	require.NoError(t, err)
	for _, e := range events {
		assert.NotEqual(t, string(ActionShip), e.Action)
	}
	assert.Empty(t, env.pub.types())
}

func TestShipZeroValueOrderPostsNothing(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-310", "0", "0")

	shipment := env.shipped(t, c.ID, "0")
	assert.Equal(t, string(model.OrderStatusShipped), shipment.Order.Status)
	assert.Zero(t, shipment.InvoiceAmount)
	assert.Nil(t, shipment.LedgerEntryID)
	assert.Empty(t, env.ledger(t, c.ID))
}

func TestShipRespectsBranchOfActor(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-320", "0", "0")
	o := env.readyToShip(t, c.ID, "10")

	other := uuid.New()
	outsider := model.Actor{UserID: uuid.New(), Role: "sales", BranchID: &other}
	_, err := env.shipping.Ship(env.ctx, outsider, o.ID, ShipOrderDTO{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Empty(t, env.ledger(t, c.ID))
}

func TestTripConsolidation(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-400", "0", "0")
	ship := func(weight int64, capacity int64) ShipmentResponse {
		o := env.readyToShip(t, c.ID, "10")
		res, err := env.shipping.Ship(env.ctx, env.clerk, o.ID, ShipOrderDTO{
			VehicleID: "TRK-9", DriverID: "DRV-9", WeightGrams: &weight, CapacityGrams: capacity,
		})
		require.NoError(t, err)
		require.Empty(t, res.HookErrors)
		return res
	}

	first := ship(400_000, 1_000_000)
	second := ship(500_000, 1_000_000)
	assert.Equal(t, first.TripNumber, second.TripNumber)

	// 100kg left on the shared trip; this one does not fit
	third := ship(200_000, 1_000_000)
	assert.NotEqual(t, first.TripNumber, third.TripNumber)

	// heavier than a whole truck still ships, on its own trip
	oversize := ship(3_000_000, 1_000_000)
	assert.NotEqual(t, third.TripNumber, oversize.TripNumber)

	trip, err := env.repos.Trips.FindByOrder(env.ctx, uuid.MustParse(first.Order.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(900_000), trip.LoadedGrams)
}

func TestShipRequiresVehicleAndDriverTogether(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-410", "0", "0")
	o := env.readyToShip(t, c.ID, "10")

	_, err := env.shipping.Ship(env.ctx, env.clerk, o.ID, ShipOrderDTO{VehicleID: "TRK-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeliverNeedsShippedOrder(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-420", "0", "0")
	o := env.readyToShip(t, c.ID, "10")

	_, err := env.shipping.Deliver(env.ctx, env.clerk, o.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestConcurrentShipPostsInvoiceOnce(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-290", "0", "0")
	o := env.readyToShip(t, c.ID, "750")

	errs := concurrently(10, func() error {
		_, err := env.shipping.Ship(env.ctx, env.clerk, o.ID, ShipOrderDTO{})
		return err
	})
	requireSingleWinner(t, errs, apperrors.ErrInvalidTransition)

	assert.Equal(t, 1, env.actionCounts(t, o.ID)[string(ActionShip)])
	assert.Len(t, env.ledger(t, c.ID), 1)
	assert.Equal(t, money.MustParse("750"), env.balance(t, c.ID))
	journal, err := env.accounting.ListCustomerJournal(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, journal, 1)
}
