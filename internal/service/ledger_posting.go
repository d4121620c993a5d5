package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Posting describes one financial event against a customer.
// Exactly one of Debit and Credit is positive.
type Posting struct {
	Customer        *model.Customer
	TransactionType string
	ReferenceType   string
	ReferenceID     uuid.UUID
	Debit           money.Amount
	Credit          money.Amount
	DebitAccountID  uuid.UUID
	CreditAccountID uuid.UUID
	JournalSource   string
	Description     string
	ActorID         uuid.UUID
}

// PostingResult is what a posting wrote.
type PostingResult struct {
	Ledger          *model.CustomerLedgerEntry
	Journal         *model.JournalEntry
	PreviousBalance money.Amount
}

// ledgerPoster writes the ledger entry, the balanced journal entry and the customer
// balance cache for one posting. Callers hold the customer lock and an open transaction.
type ledgerPoster struct {
	repos  *repository.Repositories
	logger *logrus.Logger
	now    func() time.Time
}

func (p *ledgerPoster) Post(txCtx context.Context, in Posting) (*PostingResult, error) {
	customer := in.Customer
	amount := in.Debit + in.Credit
	if in.Debit < 0 || in.Credit < 0 || amount <= 0 || (in.Debit > 0 && in.Credit > 0) {
		err := fmt.Errorf("%w: posting needs exactly one positive side (debit %s, credit %s)",
			apperrors.ErrInvariantViolation, in.Debit, in.Credit)
		logger.LogError(p.logger, "ledger", "Post", "rejected posting", in.logFields(), err)
		return nil, err
	}

	// a failed insert would abort the postgres transaction, so check first
	posted, err := p.repos.Ledger.ExistsForReference(txCtx, in.TransactionType, in.ReferenceType, in.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for an earlier posting: %w", err)
	}
	if posted {
		return nil, in.alreadyPosted()
	}

	latest, err := p.repos.Ledger.LatestForCustomer(txCtx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest ledger entry: %w", err)
	}
	prev := customer.InitialDue
	if latest != nil {
		prev = latest.BalanceAfter
	}
	if customer.CurrentBalance != prev {
		logger.LogWarn(p.logger, "ledger", "Post", "customer balance cache drifted from ledger", map[string]any{
			"customer_id": customer.ID,
			"cached":      customer.CurrentBalance.String(),
			"ledger":      prev.String(),
		})
	}
	next, err := prev.Add(in.Debit)
	if err == nil {
		next, err = next.Sub(in.Credit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: customer balance out of range: %v", apperrors.ErrValidation, err)
	}
	at := p.now()

	journal := &model.JournalEntry{
		ID:          uuid.New(),
		EntryDate:   at,
		SourceType:  in.JournalSource,
		SourceID:    in.ReferenceID,
		CustomerID:  customer.ID,
		Description: in.Description,
		CreatedBy:   in.ActorID,
		Lines: []model.TransactionLine{
			{AccountID: in.DebitAccountID, Debit: amount, Memo: in.Description},
			{AccountID: in.CreditAccountID, Credit: amount, Memo: in.Description},
		},
	}
	if err := ValidateJournal(journal); err != nil {
		logger.LogError(p.logger, "ledger", "Post", "unbalanced journal", in.logFields(), err)
		return nil, err
	}
	if err := p.repos.Journal.Create(txCtx, journal); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, in.alreadyPosted()
		}
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	entry := &model.CustomerLedgerEntry{
		CustomerID:      customer.ID,
		TransactionDate: at,
		TransactionType: in.TransactionType,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		DebitAmount:     in.Debit,
		CreditAmount:    in.Credit,
		BalanceAfter:    next,
		JournalEntryID:  &journal.ID,
		Description:     in.Description,
		CreatedBy:       in.ActorID,
	}
	if err := p.repos.Ledger.Append(txCtx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, in.alreadyPosted()
		}
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := p.repos.Customers.UpdateCurrentBalance(txCtx, customer.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}
	customer.CurrentBalance = next

	return &PostingResult{Ledger: entry, Journal: journal, PreviousBalance: prev}, nil
}

// alreadyPosted is returned when the reference already has a ledger entry.
func (in Posting) alreadyPosted() error {
	return fmt.Errorf("%w: %s already posted for %s %s",
		apperrors.ErrInvalidTransition, in.TransactionType, in.ReferenceType, in.ReferenceID)
}

func (in Posting) logFields() map[string]any {
	return map[string]any{
		"customer_id":      in.Customer.ID,
		"transaction_type": in.TransactionType,
		"reference_type":   in.ReferenceType,
		"reference_id":     in.ReferenceID,
		"debit":            in.Debit.String(),
		"credit":           in.Credit.String(),
	}
}

// ValidateJournal checks the two-line double-entry shape: one debit line, one credit
// line, positive and equal amounts, distinct accounts.
func ValidateJournal(j *model.JournalEntry) error {
	if len(j.Lines) != 2 {
		return fmt.Errorf("%w: journal needs exactly 2 lines, got %d", apperrors.ErrInvariantViolation, len(j.Lines))
	}
	var debits, credits money.Amount
	var debitLines, creditLines int
	for _, l := range j.Lines {
		switch {
		case l.Debit > 0 && l.Credit == 0:
			debits += l.Debit
			debitLines++
		case l.Credit > 0 && l.Debit == 0:
			credits += l.Credit
			creditLines++
		default:
			return fmt.Errorf("%w: line on account %s must carry one positive side", apperrors.ErrInvariantViolation, l.AccountID)
		}
		if l.AccountID == uuid.Nil {
			return fmt.Errorf("%w: line without account", apperrors.ErrInvariantViolation)
		}
	}
	if debitLines != 1 || creditLines != 1 {
		return fmt.Errorf("%w: journal needs one debit and one credit line", apperrors.ErrInvariantViolation)
	}
	if debits != credits {
		return fmt.Errorf("%w: debits %s != credits %s", apperrors.ErrInvariantViolation, debits, credits)
	}
	if j.Lines[0].AccountID == j.Lines[1].AccountID {
		return fmt.Errorf("%w: debit and credit on the same account", apperrors.ErrInvariantViolation)
	}
	return nil
}

// accountResolver maps chart-of-accounts tags to accounts.
type accountResolver struct {
	accounts repository.AccountRepository
}

func (r *accountResolver) byTag(ctx context.Context, tag string, branchID *uuid.UUID) (*model.Account, error) {
	acct, err := r.accounts.FindByTag(ctx, tag, branchID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: no %s account configured", apperrors.ErrConfiguration, tag)
	}
	return acct, err
}

func (r *accountResolver) Receivable(ctx context.Context) (*model.Account, error) {
	return r.byTag(ctx, model.AccountTagReceivable, nil)
}

// Revenue prefers the branch's revenue account and falls back to the company default.
func (r *accountResolver) Revenue(ctx context.Context, branchID *uuid.UUID) (*model.Account, error) {
	if branchID != nil {
		acct, err := r.accounts.FindByTag(ctx, model.AccountTagRevenue, branchID)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	return r.byTag(ctx, model.AccountTagRevenue, nil)
}

// Deposit picks where collected money lands for a payment method.
func (r *accountResolver) Deposit(ctx context.Context, method string, bankAccountID *uuid.UUID) (*model.Account, error) {
	switch method {
	case model.PaymentMethodCash:
		return r.byTag(ctx, model.AccountTagCash, nil)
	case model.PaymentMethodCheque:
		return r.byTag(ctx, model.AccountTagUndepositedFund, nil)
	case model.PaymentMethodBankTransfer, model.PaymentMethodCard:
		if bankAccountID == nil {
			return nil, fmt.Errorf("%w: bank_account_id is required for %s payments", apperrors.ErrValidation, method)
		}
		acct, err := r.accounts.FindByID(ctx, *bankAccountID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: bank account not found", apperrors.ErrValidation)
		}
		if err != nil {
			return nil, err
		}
		if acct.Tag != model.AccountTagBank || !acct.IsActive {
			return nil, fmt.Errorf("%w: account %s is not an active bank account", apperrors.ErrValidation, acct.Code)
		}
		return acct, nil
	}
	return nil, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrValidation, method)
}
