package service

import (
	"testing"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCustomerSeedsBalanceFromInitialDue(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-800", "5000", "1200")
	assert.Equal(t, money.MustParse("1200"), c.CurrentBalance)
	assert.True(t, c.IsActive)

	_, err := env.customers.CreateCustomer(env.ctx, env.manager, CreateCustomerDTO{Code: "C-800", Name: "Dup"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	_, err = env.customers.CreateCustomer(env.ctx, env.manager, CreateCustomerDTO{Code: "C-801", Name: "Neg", CreditLimit: -1})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	list, total, err := env.customers.ListCustomers(env.ctx, 0, 0, "c-80")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, err = env.customers.GetCustomer(env.ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreditSnapshot(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-810", "10000", "2000")

	a, err := env.customers.CreditSnapshot(env.ctx, c.ID, money.MustParse("6400"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("8000"), a.Available)
	assert.Equal(t, int64(8000), a.UsageBPS)
	assert.True(t, a.RequiresEscalation)
	assert.False(t, a.Exceeds)

	_, err = env.customers.CreditSnapshot(env.ctx, c.ID, money.MustParse("-1"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestStatementReplaysFromInitialDue(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-820", "0", "300")
	env.shipped(t, c.ID, "700")
	_, err := env.payments.RecordPayment(env.ctx, env.clerk, RecordPaymentDTO{
		CustomerID: c.ID,
		Amount:     money.MustParse("250"),
		Method:     model.PaymentMethodCash,
	})
	require.NoError(t, err)

	st, err := env.customers.Statement(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("300"), st.OpeningBalance)
	assert.Equal(t, money.MustParse("700"), st.TotalDebit)
	assert.Equal(t, money.MustParse("250"), st.TotalCredit)
	assert.Equal(t, money.MustParse("750"), st.ClosingBalance)
	require.Len(t, st.Entries, 2)
	assert.Less(t, st.Entries[0].Seq, st.Entries[1].Seq)
	assert.Equal(t, st.OpeningBalance+st.TotalDebit-st.TotalCredit, st.ClosingBalance)
}

func TestVerifyLedgerDetectsDrift(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-830", "0", "0")
	env.shipped(t, c.ID, "400")

	ok, err := env.customers.VerifyLedger(env.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok.Consistent)
	assert.Equal(t, 1, ok.Entries)

	require.NoError(t, env.repos.Customers.UpdateCurrentBalance(env.ctx, uuid.MustParse(c.ID), money.MustParse("399")))

	drifted, err := env.customers.VerifyLedger(env.ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, drifted.Consistent)
	require.Len(t, drifted.Mismatches, 1)
	assert.Equal(t, money.MustParse("400"), drifted.Mismatches[0].Expected)
	assert.Equal(t, money.MustParse("399"), drifted.Mismatches[0].Actual)
}

func TestPostingAfterDriftUsesLedger(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.customer(t, "C-840", "0", "0")
	env.shipped(t, c.ID, "400")
	require.NoError(t, env.repos.Customers.UpdateCurrentBalance(env.ctx, uuid.MustParse(c.ID), 0))

	env.shipped(t, c.ID, "100")

	entries := env.ledger(t, c.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, money.MustParse("500"), entries[1].BalanceAfter)
	assert.Equal(t, money.MustParse("500"), env.balance(t, c.ID))
}
