package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateCustomerDTO struct {
	Code        string       `json:"code" validate:"required,max=50"`
	Name        string       `json:"name" validate:"required,max=255"`
	Phone       string       `json:"phone" validate:"max=50"`
	Email       string       `json:"email" validate:"omitempty,email"`
	CreditLimit money.Amount `json:"credit_limit" validate:"gte=0"`
	InitialDue  money.Amount `json:"initial_due"`
}

type CustomerResponse struct {
	ID             string       `json:"id"`
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	CreditLimit    money.Amount `json:"credit_limit"`
	InitialDue     money.Amount `json:"initial_due"`
	CurrentBalance money.Amount `json:"current_balance"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      string       `json:"created_at"`
}

type LedgerEntryResponse struct {
	ID              string       `json:"id"`
	Seq             int64        `json:"seq"`
	TransactionDate string       `json:"transaction_date"`
	TransactionType string       `json:"transaction_type"`
	ReferenceType   string       `json:"reference_type"`
	ReferenceID     string       `json:"reference_id"`
	DebitAmount     money.Amount `json:"debit_amount"`
	CreditAmount    money.Amount `json:"credit_amount"`
	BalanceAfter    money.Amount `json:"balance_after"`
	JournalEntryID  *string      `json:"journal_entry_id"`
	Description     string       `json:"description"`
}

type StatementResponse struct {
	Customer       CustomerResponse      `json:"customer"`
	OpeningBalance money.Amount          `json:"opening_balance"`
	TotalDebit     money.Amount          `json:"total_debit"`
	TotalCredit    money.Amount          `json:"total_credit"`
	ClosingBalance money.Amount          `json:"closing_balance"`
	Entries        []LedgerEntryResponse `json:"entries"`
}

type LedgerMismatch struct {
	Seq      int64        `json:"seq"`
	EntryID  string       `json:"entry_id,omitempty"`
	Expected money.Amount `json:"expected"`
	Actual   money.Amount `json:"actual"`
	Problem  string       `json:"problem"`
}

type LedgerVerification struct {
	CustomerID      string           `json:"customer_id"`
	Entries         int              `json:"entries"`
	ReplayedBalance money.Amount     `json:"replayed_balance"`
	CachedBalance   money.Amount     `json:"cached_balance"`
	Consistent      bool             `json:"consistent"`
	Mismatches      []LedgerMismatch `json:"mismatches"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, actor model.Actor, req CreateCustomerDTO) (CustomerResponse, error)
	GetCustomer(ctx context.Context, id string) (CustomerResponse, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error)
	CreditSnapshot(ctx context.Context, id string, amount money.Amount) (CreditAssessment, error)
	Statement(ctx context.Context, id string) (StatementResponse, error)
	VerifyLedger(ctx context.Context, id string) (LedgerVerification, error)
}

type customerService struct {
	repos  *repository.Repositories
	credit *CreditEvaluator
	logger *logrus.Logger
}

func NewCustomerService(deps Deps) CustomerService {
	deps = deps.withDefaults()
	return &customerService{repos: deps.Repos, credit: deps.Credit, logger: deps.Logger}
}

// --- Implementation ---

// CreateCustomer seeds current_balance from initial_due so the ledger chain has its origin.
func (s *customerService) CreateCustomer(ctx context.Context, actor model.Actor, req CreateCustomerDTO) (CustomerResponse, error) {
	if err := validateStruct(req); err != nil {
		return CustomerResponse{}, err
	}
	customer := &model.Customer{
		Code:           req.Code,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		CreditLimit:    req.CreditLimit,
		InitialDue:     req.InitialDue,
		CurrentBalance: req.InitialDue,
		IsActive:       true,
	}
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Customers.Create(txCtx, customer); err != nil {
			return fmt.Errorf("failed to create customer %s: %w", req.Code, err)
		}
		details, _ := json.Marshal(map[string]any{
			"code":         customer.Code,
			"credit_limit": customer.CreditLimit,
			"initial_due":  customer.InitialDue,
		})
		return s.repos.Audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.UserID,
			UserRole:   actor.Role,
			Action:     model.ActionCreateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (CustomerResponse, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

func (s *customerService) load(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := parseID("customer id", id)
	if err != nil {
		return nil, err
	}
	return s.repos.Customers.FindByID(ctx, customerID)
}

func (s *customerService) ListCustomers(ctx context.Context, page, limit int, search string) ([]CustomerResponse, int64, error) {
	page, limit = normalizePage(page, limit)
	customers, total, err := s.repos.Customers.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	res := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		res = append(res, toCustomerResponse(&customers[i]))
	}
	return res, total, nil
}

// CreditSnapshot evaluates a prospective amount against the customer's current position.
func (s *customerService) CreditSnapshot(ctx context.Context, id string, amount money.Amount) (CreditAssessment, error) {
	if amount < 0 {
		return CreditAssessment{}, fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	customer, err := s.load(ctx, id)
	if err != nil {
		return CreditAssessment{}, err
	}
	return s.credit.Evaluate(customer, amount), nil
}

func (s *customerService) Statement(ctx context.Context, id string) (StatementResponse, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return StatementResponse{}, err
	}
	entries, err := s.repos.Ledger.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return StatementResponse{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	res := StatementResponse{
		Customer:       toCustomerResponse(customer),
		OpeningBalance: customer.InitialDue,
		ClosingBalance: customer.InitialDue,
		Entries:        make([]LedgerEntryResponse, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		res.TotalDebit += e.DebitAmount
		res.TotalCredit += e.CreditAmount
		res.ClosingBalance = e.BalanceAfter
		res.Entries = append(res.Entries, toLedgerEntryResponse(e))
	}
	return res, nil
}

// VerifyLedger replays the chain from initial_due and checks every balance_after, every
// linked journal, and the cached current_balance. It reads inside one transaction so the
// chain cannot move underneath it.
func (s *customerService) VerifyLedger(ctx context.Context, id string) (LedgerVerification, error) {
	customerID, err := parseID("customer id", id)
	if err != nil {
		return LedgerVerification{}, err
	}

	var res LedgerVerification
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.repos.Customers.FindByID(txCtx, customerID)
		if err != nil {
			return err
		}
		entries, err := s.repos.Ledger.ListByCustomer(txCtx, customer.ID)
		if err != nil {
			return fmt.Errorf("failed to load ledger: %w", err)
		}

		res = LedgerVerification{
			CustomerID:    customer.ID.String(),
			Entries:       len(entries),
			CachedBalance: customer.CurrentBalance,
			Mismatches:    []LedgerMismatch{},
		}
		balance := customer.InitialDue
		for i := range entries {
			e := &entries[i]
			balance += e.DebitAmount - e.CreditAmount
			if e.BalanceAfter != balance {
				res.Mismatches = append(res.Mismatches, LedgerMismatch{
					Seq: e.Seq, EntryID: e.ID.String(), Expected: balance, Actual: e.BalanceAfter,
					Problem: "balance_after does not follow from the previous entry",
				})
				// keep replaying from the stored value so one bad row is reported once
				balance = e.BalanceAfter
			}
			if problem := s.checkJournal(txCtx, e); problem != "" {
				res.Mismatches = append(res.Mismatches, LedgerMismatch{
					Seq: e.Seq, EntryID: e.ID.String(), Expected: e.DebitAmount + e.CreditAmount,
					Problem: problem,
				})
			}
		}
		res.ReplayedBalance = balance
		if customer.CurrentBalance != balance {
			res.Mismatches = append(res.Mismatches, LedgerMismatch{
				Expected: balance, Actual: customer.CurrentBalance,
				Problem: "current_balance cache differs from the last balance_after",
			})
		}
		return nil
	})
	if err != nil {
		return LedgerVerification{}, err
	}

	res.Consistent = len(res.Mismatches) == 0
	if !res.Consistent {
		logger.LogWarn(s.logger, "customer", "VerifyLedger", "ledger chain inconsistent", map[string]any{
			"customer_id": res.CustomerID,
			"mismatches":  len(res.Mismatches),
		})
	}
	return res, nil
}

func (s *customerService) checkJournal(txCtx context.Context, e *model.CustomerLedgerEntry) string {
	if e.JournalEntryID == nil {
		return "ledger entry has no journal entry"
	}
	journal, err := s.repos.Journal.FindByID(txCtx, *e.JournalEntryID)
	if err != nil {
		return "journal entry missing: " + err.Error()
	}
	if err := ValidateJournal(journal); err != nil {
		return err.Error()
	}
	if journal.Lines[0].Debit+journal.Lines[0].Credit != e.DebitAmount+e.CreditAmount {
		return "journal amount differs from ledger amount"
	}
	return ""
}

func toCustomerResponse(c *model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID.String(),
		Code:           c.Code,
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		CreditLimit:    c.CreditLimit,
		InitialDue:     c.InitialDue,
		CurrentBalance: c.CurrentBalance,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}

func toLedgerEntryResponse(e *model.CustomerLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID.String(),
		Seq:             e.Seq,
		TransactionDate: e.TransactionDate.Format(time.RFC3339),
		TransactionType: e.TransactionType,
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID.String(),
		DebitAmount:     e.DebitAmount,
		CreditAmount:    e.CreditAmount,
		BalanceAfter:    e.BalanceAfter,
		JournalEntryID:  formatID(e.JournalEntryID),
		Description:     e.Description,
	}
}
