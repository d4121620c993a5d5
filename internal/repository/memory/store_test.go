package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	customer := &model.Customer{Code: "C-1", Name: "Acme", IsActive: true}
	require.NoError(t, repos.Customers.Create(ctx, customer))

	boom := errors.New("boom")
	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repos.Customers.UpdateCurrentBalance(txCtx, customer.ID, 500))
		require.NoError(t, repos.Ledger.Append(txCtx, &model.CustomerLedgerEntry{
			CustomerID: customer.ID, TransactionType: model.LedgerTxInvoice,
			ReferenceType: model.RefTypeOrder, ReferenceID: uuid.New(), DebitAmount: 500, BalanceAfter: 500,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Customers.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CurrentBalance)

	latest, err := repos.Ledger.LatestForCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	assert.Panics(t, func() {
		_ = repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			_, _ = repos.Sequences.Next(txCtx, "SO")
			panic("unexpected")
		})
	})

	n, err := repos.Sequences.Next(ctx, "SO")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunInTxNestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	err := repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		return repos.Tx.RunInTx(txCtx, func(inner context.Context) error {
			_, err := repos.Sequences.Next(inner, "PAY")
			return err
		})
	})
	require.NoError(t, err)
}

func TestLedgerUniquePosting(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	ref := uuid.New()

	entry := func() *model.CustomerLedgerEntry {
		return &model.CustomerLedgerEntry{
			CustomerID: uuid.New(), TransactionType: model.LedgerTxInvoice,
			ReferenceType: model.RefTypeOrder, ReferenceID: ref, DebitAmount: 100, BalanceAfter: 100,
		}
	}
	first := entry()
	require.NoError(t, repos.Ledger.Append(ctx, first))
	assert.Equal(t, int64(1), first.Seq)
	assert.ErrorIs(t, repos.Ledger.Append(ctx, entry()), apperrors.ErrDuplicate)

	exists, err := repos.Ledger.ExistsForReference(ctx, model.LedgerTxInvoice, model.RefTypeOrder, ref)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSequenceConcurrent(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	const n = 200
	seen := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repos.Sequences.Next(ctx, "SO-20260101")
			if err == nil {
				seen <- v
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, n)
}

func TestAccountFindByTagBranchScoped(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	branch := uuid.New()

	require.NoError(t, repos.Accounts.Create(ctx, &model.Account{Code: "4000", Name: "Revenue", Tag: model.AccountTagRevenue, IsActive: true}))
	require.NoError(t, repos.Accounts.Create(ctx, &model.Account{Code: "4010", Name: "Revenue North", Tag: model.AccountTagRevenue, BranchID: &branch, IsActive: true}))

	def, err := repos.Accounts.FindByTag(ctx, model.AccountTagRevenue, nil)
	require.NoError(t, err)
	assert.Equal(t, "4000", def.Code)

	scoped, err := repos.Accounts.FindByTag(ctx, model.AccountTagRevenue, &branch)
	require.NoError(t, err)
	assert.Equal(t, "4010", scoped.Code)

	other := uuid.New()
	_, err = repos.Accounts.FindByTag(ctx, model.AccountTagRevenue, &other)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderFilterAndQueue(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()
	customer := uuid.New()
	branch := uuid.New()

	mk := func(num string, status model.OrderStatus, priority int) {
		require.NoError(t, repos.Orders.Create(ctx, &model.CreditOrder{
			OrderNumber: num, CustomerID: customer, Status: status,
			BranchID: &branch, ProductionPriority: priority,
			Items: []model.OrderLineItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: 100, LineTotal: 100}},
		}))
	}
	mk("SO-1", model.OrderStatusApproved, 1)
	mk("SO-2", model.OrderStatusInProduction, 5)
	mk("SO-3", model.OrderStatusShipped, 9)

	queue, err := repos.Orders.ProductionQueue(ctx, &branch)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "SO-2", queue[0].OrderNumber)
	assert.Len(t, queue[0].Items, 1)

	rows, total, err := repos.Orders.List(ctx, repository.OrderFilter{
		Statuses: []model.OrderStatus{model.OrderStatusShipped}, Page: 1, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "SO-3", rows[0].OrderNumber)
}
