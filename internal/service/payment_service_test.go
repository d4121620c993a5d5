package service

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPaymentConservesAmount(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-500", "0", "0")
	advanceOrder := env.approved(t, c.ID, "3000")
	invoiced := env.shipped(t, c.ID, "5000")

	payment, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID:    c.ID,
		Amount:        money.MustParse("10000"),
		Method:        model.PaymentMethodBankTransfer,
		BankAccountID: env.bank.ID,
		Reference:     "TT-7781",
		Allocations: []AllocationInput{
			{OrderID: advanceOrder.ID, Amount: money.MustParse("1000")},
			{OrderID: invoiced.Order.ID, Amount: money.MustParse("5000")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, env.bank.ID, payment.DepositAccountID)
	assert.Equal(t, money.MustParse("4000"), payment.Unallocated)

	var allocated money.Amount
	kinds := map[string]string{}
	for _, a := range payment.Allocations {
		allocated += a.Amount
		kinds[a.OrderID] = a.Kind
	}
	assert.Equal(t, payment.Amount, allocated+payment.Unallocated)
	assert.Equal(t, model.AllocationAdvance, kinds[advanceOrder.ID])
	assert.Equal(t, model.AllocationInvoice, kinds[invoiced.Order.ID])

	a := env.order(t, advanceOrder.ID)
	requireOrderInvariant(t, a)
	assert.Equal(t, money.MustParse("1000"), a.AdvancePaid)
	assert.Equal(t, money.MustParse("2000"), a.BalanceDue)

	b := env.order(t, invoiced.Order.ID)
	requireOrderInvariant(t, b)
	assert.Equal(t, money.MustParse("5000"), b.AmountPaid)
	assert.Zero(t, b.BalanceDue)

	entries := env.ledger(t, c.ID)
	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, model.LedgerTxPayment, last.TransactionType)
	assert.Equal(t, money.MustParse("10000"), last.CreditAmount)
	assert.Equal(t, money.MustParse("-5000"), last.BalanceAfter)
	assert.Equal(t, last.BalanceAfter, env.balance(t, c.ID))
}

func TestRecordPaymentAdvanceOnly(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-510", "0", "0")
	o := env.submitted(t, c.ID, "800")

	_, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID:  c.ID,
		Amount:      money.MustParse("300"),
		Method:      model.PaymentMethodCheque,
		Allocations: []AllocationInput{{OrderID: o.ID, Amount: money.MustParse("300")}},
	})
	require.NoError(t, err)

	entries := env.ledger(t, c.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, model.LedgerTxAdvancePayment, entries[0].TransactionType)
	assert.Equal(t, money.MustParse("500"), env.order(t, o.ID).BalanceDue)
}

func TestRecordPaymentUnallocated(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-520", "0", "250")

	payment, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID: c.ID,
		Amount:     money.MustParse("100"),
		Method:     model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnallocated, payment.Status)
	assert.Equal(t, payment.Amount, payment.Unallocated)
	assert.Equal(t, money.MustParse("150"), env.balance(t, c.ID))

	listed, err := env.payments.ListCustomerPayments(env.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, payment.PaymentNumber, listed[0].PaymentNumber)
}

func TestRecordPaymentRejectsBadAllocations(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-530", "0", "0")
	other := env.customer(t, "C-531", "0", "0")
	open := env.approved(t, c.ID, "1000")
	foreign := env.approved(t, other.ID, "1000")

	draftPrice := money.MustParse("50")
	draft, err := env.orders.CreateOrder(env.ctx, env.clerk, CreateOrderDTO{
		CustomerID: c.ID,
		Items:      []LineItemInput{{ProductID: env.product.ID, Quantity: 1, UnitPrice: &draftPrice}},
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  RecordPaymentDTO
		want error
	}{
		{
			name: "allocation above balance due",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("2000"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{{OrderID: open.ID, Amount: money.MustParse("1000.01")}}},
			want: apperrors.ErrValidation,
		},
		{
			name: "allocations above payment",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("500"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{{OrderID: open.ID, Amount: money.MustParse("600")}}},
			want: apperrors.ErrValidation,
		},
		{
			name: "order of another customer",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("100"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{{OrderID: foreign.ID, Amount: money.MustParse("100")}}},
			want: apperrors.ErrValidation,
		},
		{
			name: "draft order",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("50"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{{OrderID: draft.ID, Amount: money.MustParse("50")}}},
			want: apperrors.ErrValidation,
		},
		{
			name: "same order twice",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("100"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{
					{OrderID: open.ID, Amount: money.MustParse("50")},
					{OrderID: open.ID, Amount: money.MustParse("50")},
				}},
			want: apperrors.ErrValidation,
		},
		{
			name: "unknown order",
			req: RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("100"), Method: model.PaymentMethodCash,
				Allocations: []AllocationInput{{OrderID: uuid.NewString(), Amount: money.MustParse("100")}}},
			want: apperrors.ErrValidation,
		},
		{
			name: "bank transfer without bank account",
			req:  RecordPaymentDTO{CustomerID: c.ID, Amount: money.MustParse("100"), Method: model.PaymentMethodBankTransfer},
			want: apperrors.ErrValidation,
		},
		{
			name: "non-positive amount",
			req:  RecordPaymentDTO{CustomerID: c.ID, Amount: 0, Method: model.PaymentMethodCash},
			want: apperrors.ErrValidation,
		},
		{
			name: "unknown customer",
			req:  RecordPaymentDTO{CustomerID: uuid.NewString(), Amount: money.MustParse("1"), Method: model.PaymentMethodCash},
			want: apperrors.ErrNotFound,
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.payments.RecordPayment(env.ctx, env.clerk, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, env.ledger(t, c.ID))
	assert.Zero(t, env.balance(t, c.ID))
	assert.Equal(t, money.MustParse("1000"), env.order(t, open.ID).BalanceDue)
}

func TestRecordPaymentWithoutCashAccount(t *testing.T) {
	env := newTestEnv(t, false)
	c := env.customer(t, "C-540", "0", "0")

	_, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID: c.ID,
		Amount:     money.MustParse("10"),
		Method:     model.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Empty(t, env.ledger(t, c.ID))
}

func TestConcurrentPaymentsKeepLedgerChain(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-550", "0", "1000")

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
				CustomerID: c.ID,
				Amount:     money.MustParse("10"),
				Method:     model.PaymentMethodCash,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries := env.ledger(t, c.ID)
	require.Len(t, entries, workers)
	assert.Equal(t, money.MustParse("500"), entries[len(entries)-1].BalanceAfter)
	assert.Equal(t, money.MustParse("500"), env.balance(t, c.ID))

	verification, err := env.customers.VerifyLedger(env.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, verification.Consistent, "%+v", verification.Mismatches)

	numbers := map[string]bool{}
	listed, err := env.payments.ListCustomerPayments(env.ctx, c.ID)
	require.NoError(t, err)
	for _, p := range listed {
		numbers[p.PaymentNumber] = true
	}
	assert.Len(t, numbers, workers)
}

func TestRecordPaymentRejectsOutOfRangeBalance(t *testing.T) {
	env := newTestEnv(t, true)
	c, err := env.customers.CreateCustomer(env.ctx, env.manager, CreateCustomerDTO{
		Code:       "C-560",
		Name:       "Customer C-560",
		InitialDue: money.Amount(math.MinInt64 + 5000),
	})
	require.NoError(t, err)

	_, err = env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID: c.ID,
		Amount:     money.MustParse("100"),
		Method:     model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Empty(t, env.ledger(t, c.ID))
	assert.Equal(t, money.Amount(math.MinInt64+5000), env.balance(t, c.ID))
	listed, err := env.payments.ListCustomerPayments(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRecordPaymentDTORejectsOversizedAmount(t *testing.T) {
	var req RecordPaymentDTO
	err := json.Unmarshal([]byte(`{"customer_id":"`+uuid.NewString()+`","amount":"184467440737095516.17","method":"cash"}`), &req)
	require.ErrorIs(t, err, money.ErrOutOfRange)
}
