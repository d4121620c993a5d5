package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/sirupsen/logrus"
)

type CreateAccountDTO struct {
	Code     string `json:"code" validate:"required,max=20"`
	Name     string `json:"name" validate:"required,max=255"`
	Tag      string `json:"tag" validate:"required,oneof=accounts_receivable revenue cash bank undeposited_funds"`
	BranchID string `json:"branch_id" validate:"omitempty,uuid"`
}

type AccountResponse struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Tag      string  `json:"tag"`
	BranchID *string `json:"branch_id"`
	IsActive bool    `json:"is_active"`
}

type JournalLineResponse struct {
	AccountID string       `json:"account_id"`
	Debit     money.Amount `json:"debit"`
	Credit    money.Amount `json:"credit"`
	Memo      string       `json:"memo"`
}

type JournalEntryResponse struct {
	ID          string                `json:"id"`
	EntryDate   string                `json:"entry_date"`
	SourceType  string                `json:"source_type"`
	SourceID    string                `json:"source_id"`
	CustomerID  string                `json:"customer_id"`
	Description string                `json:"description"`
	Balanced    bool                  `json:"balanced"`
	Lines       []JournalLineResponse `json:"lines"`
}

// defaultChart is created by SeedDefaults when the tag has no company-wide account yet.
var defaultChart = []CreateAccountDTO{
	{Code: "1000", Name: "Cash on Hand", Tag: model.AccountTagCash},
	{Code: "1010", Name: "Bank", Tag: model.AccountTagBank},
	{Code: "1050", Name: "Undeposited Funds", Tag: model.AccountTagUndepositedFund},
	{Code: "1100", Name: "Accounts Receivable", Tag: model.AccountTagReceivable},
	{Code: "4000", Name: "Sales Revenue", Tag: model.AccountTagRevenue},
}

// AccountingService manages the chart of accounts and exposes journal entries.
type AccountingService interface {
	CreateAccount(ctx context.Context, actor model.Actor, req CreateAccountDTO) (AccountResponse, error)
	ListAccounts(ctx context.Context) ([]AccountResponse, error)
	SeedDefaults(ctx context.Context) (int, error)
	GetJournalEntry(ctx context.Context, id string) (JournalEntryResponse, error)
	ListCustomerJournal(ctx context.Context, customerID string) ([]JournalEntryResponse, error)
}

type accountingService struct {
	repos  *repository.Repositories
	logger *logrus.Logger
}

func NewAccountingService(deps Deps) AccountingService {
	deps = deps.withDefaults()
	return &accountingService{repos: deps.Repos, logger: deps.Logger}
}

func (s *accountingService) CreateAccount(ctx context.Context, actor model.Actor, req CreateAccountDTO) (AccountResponse, error) {
	if err := validateStruct(req); err != nil {
		return AccountResponse{}, err
	}
	branchID, err := parseOptionalID("branch_id", req.BranchID)
	if err != nil {
		return AccountResponse{}, err
	}
	account := &model.Account{
		Code:     req.Code,
		Name:     req.Name,
		Tag:      req.Tag,
		BranchID: branchID,
		IsActive: true,
	}
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Accounts.Create(txCtx, account); err != nil {
			return fmt.Errorf("failed to create account %s: %w", req.Code, err)
		}
		details, _ := json.Marshal(map[string]any{"code": account.Code, "tag": account.Tag})
		return s.repos.Audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.UserID,
			UserRole:   actor.Role,
			Action:     model.ActionCreateAccount,
			EntityID:   account.ID.String(),
			EntityName: account.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return AccountResponse{}, err
	}
	return toAccountResponse(account), nil
}

func (s *accountingService) ListAccounts(ctx context.Context) ([]AccountResponse, error) {
	accounts, err := s.repos.Accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	res := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		res = append(res, toAccountResponse(&accounts[i]))
	}
	return res, nil
}

// SeedDefaults fills in any missing company-wide account tag and returns how many it created.
func (s *accountingService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, def := range defaultChart {
			_, err := s.repos.Accounts.FindByTag(txCtx, def.Tag, nil)
			if err == nil {
				continue
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if err := s.repos.Accounts.Create(txCtx, &model.Account{
				Code:     def.Code,
				Name:     def.Name,
				Tag:      def.Tag,
				IsActive: true,
			}); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", def.Code, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.WithField("created", created).Info("seeded chart of accounts")
	}
	return created, nil
}

func (s *accountingService) GetJournalEntry(ctx context.Context, id string) (JournalEntryResponse, error) {
	entryID, err := parseID("journal entry id", id)
	if err != nil {
		return JournalEntryResponse{}, err
	}
	entry, err := s.repos.Journal.FindByID(ctx, entryID)
	if err != nil {
		return JournalEntryResponse{}, err
	}
	return toJournalEntryResponse(entry), nil
}

func (s *accountingService) ListCustomerJournal(ctx context.Context, customerID string) ([]JournalEntryResponse, error) {
	id, err := parseID("customer id", customerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.Journal.ListByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	res := make([]JournalEntryResponse, 0, len(entries))
	for i := range entries {
		res = append(res, toJournalEntryResponse(&entries[i]))
	}
	return res, nil
}

func toAccountResponse(a *model.Account) AccountResponse {
	return AccountResponse{
		ID:       a.ID.String(),
		Code:     a.Code,
		Name:     a.Name,
		Tag:      a.Tag,
		BranchID: formatID(a.BranchID),
		IsActive: a.IsActive,
	}
}

func toJournalEntryResponse(j *model.JournalEntry) JournalEntryResponse {
	res := JournalEntryResponse{
		ID:          j.ID.String(),
		EntryDate:   j.EntryDate.Format(time.RFC3339),
		SourceType:  j.SourceType,
		SourceID:    j.SourceID.String(),
		CustomerID:  j.CustomerID.String(),
		Description: j.Description,
		Balanced:    ValidateJournal(j) == nil,
		Lines:       make([]JournalLineResponse, 0, len(j.Lines)),
	}
	for _, l := range j.Lines {
		res.Lines = append(res.Lines, JournalLineResponse{
			AccountID: l.AccountID.String(),
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		})
	}
	return res
}
