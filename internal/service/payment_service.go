package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/lock"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type AllocationInput struct {
	OrderID string       `json:"order_id" validate:"required,uuid"`
	Amount  money.Amount `json:"amount" validate:"gt=0"`
}

type RecordPaymentDTO struct {
	CustomerID    string            `json:"customer_id" validate:"required,uuid"`
	Amount        money.Amount      `json:"amount" validate:"gt=0"`
	Method        string            `json:"method" validate:"required,oneof=cash bank_transfer card cheque"`
	Reference     string            `json:"reference"`
	BankAccountID string            `json:"bank_account_id" validate:"omitempty,uuid"`
	PaymentDate   *time.Time        `json:"payment_date"`
	Notes         string            `json:"notes"`
	Allocations   []AllocationInput `json:"allocations" validate:"dive"`
}

type AllocationResponse struct {
	OrderID string       `json:"order_id"`
	Amount  money.Amount `json:"amount"`
	Kind    string       `json:"kind"`
}

type PaymentResponse struct {
	ID               string               `json:"id"`
	PaymentNumber    string               `json:"payment_number"`
	CustomerID       string               `json:"customer_id"`
	Amount           money.Amount         `json:"amount"`
	Method           string               `json:"method"`
	Reference        string               `json:"reference"`
	DepositAccountID string               `json:"deposit_account_id"`
	Status           string               `json:"status"`
	PaymentDate      string               `json:"payment_date"`
	LedgerEntryID    *string              `json:"ledger_entry_id"`
	JournalEntryID   *string              `json:"journal_entry_id"`
	Unallocated      money.Amount         `json:"unallocated"`
	Allocations      []AllocationResponse `json:"allocations"`
}

// advanceStatuses accept advance payments; invoiceStatuses accept payments against an invoice.
var (
	advanceStatuses = []model.OrderStatus{
		model.OrderStatusPendingApproval,
		model.OrderStatusApproved,
		model.OrderStatusEscalated,
		model.OrderStatusInProduction,
		model.OrderStatusProduced,
		model.OrderStatusReadyToShip,
	}
	invoiceStatuses = []model.OrderStatus{
		model.OrderStatusShipped,
		model.OrderStatusDelivered,
	}
)

// --- Interface ---

type PaymentService interface {
	RecordPayment(ctx context.Context, actor model.Actor, req RecordPaymentDTO) (PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (PaymentResponse, error)
	ListCustomerPayments(ctx context.Context, customerID string) ([]PaymentResponse, error)
}

type paymentService struct {
	repos     *repository.Repositories
	locker    lock.Locker
	publisher EventPublisher
	poster    *ledgerPoster
	accounts  *accountResolver
	numbers   *numberer
	logger    *logrus.Logger
	now       func() time.Time
}

func NewPaymentService(deps Deps) PaymentService {
	deps = deps.withDefaults()
	return &paymentService{
		repos:     deps.Repos,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		poster:    &ledgerPoster{repos: deps.Repos, logger: deps.Logger, now: deps.Now},
		accounts:  &accountResolver{accounts: deps.Repos.Accounts},
		numbers:   &numberer{seq: deps.Repos.Sequences, now: deps.Now},
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// --- Implementation ---

type plannedAllocation struct {
	order  *model.CreditOrder
	amount money.Amount
	kind   string
}

// RecordPayment validates every allocation under lock before writing anything, then
// posts one ledger credit and one journal entry for the full amount.
func (s *paymentService) RecordPayment(ctx context.Context, actor model.Actor, req RecordPaymentDTO) (PaymentResponse, error) {
	if err := validateStruct(req); err != nil {
		return PaymentResponse{}, err
	}
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		return PaymentResponse{}, err
	}
	bankAccountID, err := parseOptionalID("bank_account_id", req.BankAccountID)
	if err != nil {
		return PaymentResponse{}, err
	}

	requested := make(map[uuid.UUID]money.Amount, len(req.Allocations))
	orderIDs := make([]uuid.UUID, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		id, err := parseID("order_id", a.OrderID)
		if err != nil {
			return PaymentResponse{}, err
		}
		if _, dup := requested[id]; dup {
			return PaymentResponse{}, fmt.Errorf("%w: order %s allocated twice", apperrors.ErrValidation, id)
		}
		requested[id] = a.Amount
		orderIDs = append(orderIDs, id)
	}
	// customer first, then orders in id order
	slices.SortFunc(orderIDs, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })

	release, err := s.locker.Acquire(ctx, lock.CustomerKey(customerID))
	if err != nil {
		return PaymentResponse{}, err
	}
	defer release()

	paymentDate := s.now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	var payment *model.Payment
	err = retryOnDuplicate(func() error {
		return s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			customer, err := s.repos.Customers.FindByIDForUpdate(txCtx, customerID)
			if err != nil {
				return err
			}
			deposit, err := s.accounts.Deposit(txCtx, req.Method, bankAccountID)
			if err != nil {
				return err
			}
			ar, err := s.accounts.Receivable(txCtx)
			if err != nil {
				return err
			}

			plan, allocated, err := s.planAllocations(txCtx, customer.ID, orderIDs, requested)
			if err != nil {
				return err
			}
			if allocated > req.Amount {
				return fmt.Errorf("%w: allocations total %s exceeds payment %s", apperrors.ErrValidation, allocated, req.Amount)
			}

			number, err := s.numbers.Next(txCtx, PrefixPayment)
			if err != nil {
				return err
			}
			paymentID := uuid.New()

			txType := model.LedgerTxPayment
			if len(plan) > 0 && allAdvance(plan) {
				txType = model.LedgerTxAdvancePayment
			}
			posted, err := s.poster.Post(txCtx, Posting{
				Customer:        customer,
				TransactionType: txType,
				ReferenceType:   model.RefTypePayment,
				ReferenceID:     paymentID,
				Credit:          req.Amount,
				DebitAccountID:  deposit.ID,
				CreditAccountID: ar.ID,
				JournalSource:   model.JournalSourcePayment,
				Description:     fmt.Sprintf("Payment %s (%s)", number, req.Method),
				ActorID:         actor.UserID,
			})
			if err != nil {
				return err
			}

			status := model.PaymentStatusUnallocated
			if len(plan) > 0 {
				status = model.PaymentStatusAllocated
			}
			payment = &model.Payment{
				ID:               paymentID,
				PaymentNumber:    number,
				CustomerID:       customer.ID,
				Amount:           req.Amount,
				Method:           req.Method,
				Reference:        req.Reference,
				DepositAccountID: deposit.ID,
				Status:           status,
				PaymentDate:      paymentDate,
				LedgerEntryID:    &posted.Ledger.ID,
				JournalEntryID:   &posted.Journal.ID,
				Notes:            req.Notes,
				RecordedBy:       actor.UserID,
			}
			for _, p := range plan {
				payment.Allocations = append(payment.Allocations, model.PaymentAllocation{
					OrderID: p.order.ID,
					Amount:  p.amount,
					Kind:    p.kind,
				})
			}
			if err := s.repos.Payments.Create(txCtx, payment); err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}

			for _, p := range plan {
				if p.kind == model.AllocationAdvance {
					p.order.AdvancePaid += p.amount
				} else {
					p.order.AmountPaid += p.amount
				}
				p.order.BalanceDue = money.MaxZero(p.order.BalanceDue - p.amount)
				if err := s.repos.Orders.Update(txCtx, p.order); err != nil {
					return fmt.Errorf("failed to update order balance: %w", err)
				}
			}

			details, _ := json.Marshal(map[string]any{
				"payment_number": number,
				"amount":         req.Amount,
				"method":         req.Method,
				"allocated":      allocated,
			})
			if err := s.repos.Audit.Log(txCtx, &model.AuditLog{
				UserID:     &actor.UserID,
				UserRole:   actor.Role,
				Action:     model.ActionRecordPayment,
				EntityID:   payment.ID.String(),
				EntityName: number,
				Details:    string(details),
			}); err != nil {
				return fmt.Errorf("failed to write audit log: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return PaymentResponse{}, err
	}

	publishAfterCommit(ctx, s.publisher, s.logger, model.Event{
		Type:       model.EventPaymentRecorded,
		OccurredAt: s.now(),
		CustomerID: payment.CustomerID,
		PaymentID:  &payment.ID,
		Amount:     payment.Amount,
		ActorID:    actor.UserID,
		Data: map[string]any{
			"payment_number": payment.PaymentNumber,
			"status":         payment.Status,
		},
	})
	return toPaymentResponse(payment), nil
}

// planAllocations locks each order and checks ownership, status and outstanding balance.
func (s *paymentService) planAllocations(txCtx context.Context, customerID uuid.UUID, orderIDs []uuid.UUID, requested map[uuid.UUID]money.Amount) ([]plannedAllocation, money.Amount, error) {
	plan := make([]plannedAllocation, 0, len(orderIDs))
	var total money.Amount
	for _, id := range orderIDs {
		order, err := s.repos.Orders.FindByIDForUpdate(txCtx, id)
		if isNotFound(err) {
			return nil, 0, fmt.Errorf("%w: order %s not found", apperrors.ErrValidation, id)
		}
		if err != nil {
			return nil, 0, err
		}
		if order.CustomerID != customerID {
			return nil, 0, fmt.Errorf("%w: order %s belongs to another customer", apperrors.ErrValidation, order.OrderNumber)
		}

		var kind string
		switch {
		case slices.Contains(advanceStatuses, order.Status):
			kind = model.AllocationAdvance
		case slices.Contains(invoiceStatuses, order.Status):
			kind = model.AllocationInvoice
		default:
			return nil, 0, fmt.Errorf("%w: order %s is %s and cannot take payments", apperrors.ErrValidation, order.OrderNumber, order.Status)
		}

		amount := requested[id]
		if amount > order.BalanceDue {
			return nil, 0, fmt.Errorf("%w: allocation %s exceeds balance due %s on order %s",
				apperrors.ErrValidation, amount, order.BalanceDue, order.OrderNumber)
		}
		plan = append(plan, plannedAllocation{order: order, amount: amount, kind: kind})
		if total, err = total.Add(amount); err != nil {
			return nil, 0, outOfRange(err)
		}
	}
	return plan, total, nil
}

func allAdvance(plan []plannedAllocation) bool {
	for _, p := range plan {
		if p.kind != model.AllocationAdvance {
			return false
		}
	}
	return true
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (PaymentResponse, error) {
	paymentID, err := parseID("payment id", id)
	if err != nil {
		return PaymentResponse{}, err
	}
	payment, err := s.repos.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return PaymentResponse{}, err
	}
	return toPaymentResponse(payment), nil
}

func (s *paymentService) ListCustomerPayments(ctx context.Context, customerID string) ([]PaymentResponse, error) {
	id, err := parseID("customer_id", customerID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repos.Payments.ListByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	res := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		res = append(res, toPaymentResponse(&payments[i]))
	}
	return res, nil
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	res := PaymentResponse{
		ID:               p.ID.String(),
		PaymentNumber:    p.PaymentNumber,
		CustomerID:       p.CustomerID.String(),
		Amount:           p.Amount,
		Method:           p.Method,
		Reference:        p.Reference,
		DepositAccountID: p.DepositAccountID.String(),
		Status:           p.Status,
		PaymentDate:      p.PaymentDate.Format(time.RFC3339),
		LedgerEntryID:    formatID(p.LedgerEntryID),
		JournalEntryID:   formatID(p.JournalEntryID),
		Allocations:      make([]AllocationResponse, 0, len(p.Allocations)),
	}
	var allocated money.Amount
	for _, a := range p.Allocations {
		allocated += a.Amount
		res.Allocations = append(res.Allocations, AllocationResponse{
			OrderID: a.OrderID.String(),
			Amount:  a.Amount,
			Kind:    a.Kind,
		})
	}
	res.Unallocated = p.Amount - allocated
	return res
}
