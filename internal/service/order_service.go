package service

import (
	"context"
	"encoding/json"
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

// --- DTOs ---

type LineItemInput struct {
	ProductID string        `json:"product_id" validate:"required,uuid"`
	VariantID string        `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int64         `json:"quantity" validate:"gt=0"`
	UnitPrice *money.Amount `json:"unit_price"` // nil takes the catalog price
	Discount  money.Amount  `json:"discount" validate:"gte=0"`
	Tax       money.Amount  `json:"tax" validate:"gte=0"`
}

type CreateOrderDTO struct {
	CustomerID string          `json:"customer_id" validate:"required,uuid"`
	Items      []LineItemInput `json:"items" validate:"dive"`
	Notes      string          `json:"notes"`
	Submit     bool            `json:"submit"`
}

type DecideOrderDTO struct {
	Decision     string     `json:"decision" validate:"required,oneof=approve reject"`
	BranchID     string     `json:"branch_id" validate:"omitempty,uuid"`
	RequiredDate *time.Time `json:"required_date"`
	Comment      string     `json:"comment"`
}

type ReasonDTO struct {
	Reason string `json:"reason"`
}

type EditOrderDTO struct {
	Items        []LineItemInput `json:"items" validate:"omitempty,min=1,dive"`
	Notes        *string         `json:"notes"`
	RequiredDate *time.Time      `json:"required_date"`
	BranchID     *string         `json:"branch_id" validate:"omitempty,uuid"`
}

type OrderListFilter struct {
	Statuses   []string
	CustomerID string
	BranchID   string
	Page       int
	Limit      int
}

type OrderItemResponse struct {
	ID              string       `json:"id"`
	ProductID       string       `json:"product_id"`
	VariantID       *string      `json:"variant_id"`
	Description     string       `json:"description"`
	Quantity        int64        `json:"quantity"`
	UnitPrice       money.Amount `json:"unit_price"`
	Discount        money.Amount `json:"discount"`
	Tax             money.Amount `json:"tax"`
	LineTotal       money.Amount `json:"line_total"`
	UnitWeightGrams int64        `json:"unit_weight_grams"`
}

type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerID         string              `json:"customer_id"`
	CustomerName       string              `json:"customer_name,omitempty"`
	Status             string              `json:"status"`
	Subtotal           money.Amount        `json:"subtotal"`
	Discount           money.Amount        `json:"discount"`
	Tax                money.Amount        `json:"tax"`
	TotalAmount        money.Amount        `json:"total_amount"`
	AdvancePaid        money.Amount        `json:"advance_paid"`
	AmountPaid         money.Amount        `json:"amount_paid"`
	BalanceDue         money.Amount        `json:"balance_due"`
	BranchID           *string             `json:"branch_id"`
	RequiredDate       *string             `json:"required_date"`
	ProductionPriority int                 `json:"production_priority"`
	Notes              string              `json:"notes"`
	CreatedBy          string              `json:"created_by"`
	ApprovedBy         *string             `json:"approved_by"`
	ApprovedAt         *string             `json:"approved_at"`
	ShippedAt          *string             `json:"shipped_at"`
	DeliveredAt        *string             `json:"delivered_at"`
	Items              []OrderItemResponse `json:"items"`
	CreatedAt          string              `json:"created_at"`
	UpdatedAt          string              `json:"updated_at"`
}

type WorkflowEventResponse struct {
	ID         string `json:"id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	ActorRole  string `json:"actor_role"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, actor model.Actor, req CreateOrderDTO) (OrderResponse, error)
	Submit(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	Decide(ctx context.Context, actor model.Actor, orderID string, req DecideOrderDTO) (OrderResponse, error)
	Reject(ctx context.Context, actor model.Actor, orderID string, reason string) (OrderResponse, error)
	Cancel(ctx context.Context, actor model.Actor, orderID string, reason string) (OrderResponse, error)
	EditOrder(ctx context.Context, actor model.Actor, orderID string, req EditOrderDTO) (OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (OrderResponse, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error)
	ListEvents(ctx context.Context, orderID string) ([]WorkflowEventResponse, error)
}

type orderService struct {
	repos   *repository.Repositories
	credit  *CreditEvaluator
	machine *stateMachine
	numbers *numberer
	logger  *logrus.Logger
	now     func() time.Time
}

func NewOrderService(deps Deps) OrderService {
	deps = deps.withDefaults()
	return &orderService{
		repos:   deps.Repos,
		credit:  deps.Credit,
		machine: &stateMachine{repos: deps.Repos, now: deps.Now},
		numbers: &numberer{seq: deps.Repos.Sequences, now: deps.Now},
		logger:  deps.Logger,
		now:     deps.Now,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actor model.Actor, req CreateOrderDTO) (OrderResponse, error) {
	if err := validateStruct(req); err != nil {
		return OrderResponse{}, err
	}
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.CreditOrder
	err = retryOnDuplicate(func() error {
		return s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			customer, err := s.repos.Customers.FindByID(txCtx, customerID)
			if err != nil {
				return fmt.Errorf("customer not found: %w", err)
			}
			if !customer.IsActive {
				return fmt.Errorf("%w: customer %s is inactive", apperrors.ErrValidation, customer.Code)
			}

			items, err := buildLineItems(txCtx, s.repos.Products, req.Items)
			if err != nil {
				return err
			}
			number, err := s.numbers.Next(txCtx, PrefixOrder)
			if err != nil {
				return err
			}

			order = &model.CreditOrder{
				OrderNumber: number,
				CustomerID:  customer.ID,
				Status:      model.OrderStatusDraft,
				Notes:       req.Notes,
				CreatedBy:   actor.UserID,
				Items:       items,
			}
			if err := applyTotals(order, items); err != nil {
				return err
			}
			if err := s.repos.Orders.Create(txCtx, order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			details, _ := json.Marshal(map[string]any{
				"order_number": order.OrderNumber,
				"customer_id":  customer.ID,
				"total_amount": order.TotalAmount,
			})
			if err := s.repos.Audit.Log(txCtx, &model.AuditLog{
				UserID:     &actor.UserID,
				UserRole:   actor.Role,
				Action:     model.ActionCreateOrder,
				EntityID:   order.ID.String(),
				EntityName: order.OrderNumber,
				Details:    string(details),
			}); err != nil {
				return fmt.Errorf("failed to write audit log: %w", err)
			}

			if req.Submit {
				return s.submitLocked(txCtx, actor, order, customer)
			}
			return nil
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) Submit(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		customer, err := s.repos.Customers.FindByID(txCtx, order.CustomerID)
		if err != nil {
			return err
		}
		return s.submitLocked(txCtx, actor, order, customer)
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// submitLocked moves a locked draft to pending_approval after recomputing totals.
func (s *orderService) submitLocked(txCtx context.Context, actor model.Actor, order *model.CreditOrder, customer *model.Customer) error {
	if _, err := NextStatus(order.Status, ActionSubmit); err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order needs at least one line item", apperrors.ErrValidation)
	}
	if err := applyTotals(order, order.Items); err != nil {
		return err
	}

	assessment := s.credit.Evaluate(customer, order.BalanceDue)
	if assessment.Exceeds && !actor.Privileged {
		return fmt.Errorf("%w: balance due %s exceeds available credit %s",
			apperrors.ErrValidation, order.BalanceDue, assessment.Available)
	}
	return s.machine.apply(txCtx, order, actor, ActionSubmit, "")
}

func (s *orderService) Decide(ctx context.Context, actor model.Actor, orderID string, req DecideOrderDTO) (OrderResponse, error) {
	if err := validateStruct(req); err != nil {
		return OrderResponse{}, err
	}
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	branchID, err := parseOptionalID("branch_id", req.BranchID)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if order.Status != model.OrderStatusPendingApproval && order.Status != model.OrderStatusEscalated {
			return fmt.Errorf("%w: order %s is %s, not awaiting a decision", apperrors.ErrInvalidTransition, order.OrderNumber, order.Status)
		}
		if order.Status == model.OrderStatusEscalated && !actor.Privileged {
			return fmt.Errorf("%w: escalated orders need a privileged decision", apperrors.ErrForbidden)
		}

		if req.Decision == "reject" {
			return s.machine.apply(txCtx, order, actor, ActionReject, req.Comment)
		}

		if branchID == nil || req.RequiredDate == nil {
			return fmt.Errorf("%w: approval needs branch_id and required_date", apperrors.ErrValidation)
		}
		customer, err := s.repos.Customers.FindByID(txCtx, order.CustomerID)
		if err != nil {
			return err
		}
		order.BranchID = branchID
		requiredDate := req.RequiredDate.UTC()
		order.RequiredDate = &requiredDate

		assessment := s.credit.Evaluate(customer, order.BalanceDue)
		if assessment.RequiresEscalation && !actor.Privileged {
			comment := fmt.Sprintf("credit usage %d bps of available %s", assessment.UsageBPS, assessment.Available)
			if req.Comment != "" {
				comment = req.Comment + "; " + comment
			}
			return s.machine.apply(txCtx, order, actor, ActionEscalate, comment)
		}

		now := s.now()
		order.ApprovedBy = &actor.UserID
		order.ApprovedAt = &now
		return s.machine.apply(txCtx, order, actor, ActionApprove, req.Comment)
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) Reject(ctx context.Context, actor model.Actor, orderID string, reason string) (OrderResponse, error) {
	if !actor.Privileged {
		return OrderResponse{}, fmt.Errorf("%w: rejecting an order needs a privileged role", apperrors.ErrForbidden)
	}
	return s.simpleTransition(ctx, actor, orderID, ActionReject, reason, nil)
}

func (s *orderService) Cancel(ctx context.Context, actor model.Actor, orderID string, reason string) (OrderResponse, error) {
	return s.simpleTransition(ctx, actor, orderID, ActionCancel, reason, func(order *model.CreditOrder) error {
		if order.PaidTotal() > 0 {
			return fmt.Errorf("%w: order %s has %s allocated and cannot be cancelled",
				apperrors.ErrValidation, order.OrderNumber, order.PaidTotal())
		}
		return nil
	})
}

func (s *orderService) simpleTransition(ctx context.Context, actor model.Actor, orderID string, action OrderAction, comment string, guard func(*model.CreditOrder) error) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if guard != nil {
			if _, err := NextStatus(order.Status, action); err != nil {
				return err
			}
			if err := guard(order); err != nil {
				return err
			}
		}
		return s.machine.apply(txCtx, order, actor, action, comment)
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

type orderSnapshot struct {
	CustomerID   uuid.UUID         `json:"customer_id"`
	Status       model.OrderStatus `json:"status"`
	BranchID     *uuid.UUID        `json:"branch_id"`
	RequiredDate *time.Time        `json:"required_date"`
	Notes        string            `json:"notes"`
	Subtotal     money.Amount      `json:"subtotal"`
	Discount     money.Amount      `json:"discount"`
	Tax          money.Amount      `json:"tax"`
	TotalAmount  money.Amount      `json:"total_amount"`
	BalanceDue   money.Amount      `json:"balance_due"`
	ItemCount    int               `json:"item_count"`
}

func snapshotOrder(o *model.CreditOrder) orderSnapshot {
	return orderSnapshot{
		CustomerID:   o.CustomerID,
		Status:       o.Status,
		BranchID:     o.BranchID,
		RequiredDate: o.RequiredDate,
		Notes:        o.Notes,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		Tax:          o.Tax,
		TotalAmount:  o.TotalAmount,
		BalanceDue:   o.BalanceDue,
		ItemCount:    len(o.Items),
	}
}

// EditOrder never re-posts the ledger. A total change after shipment is logged for follow-up.
func (s *orderService) EditOrder(ctx context.Context, actor model.Actor, orderID string, req EditOrderDTO) (OrderResponse, error) {
	if err := validateStruct(req); err != nil {
		return OrderResponse{}, err
	}
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var branchID *uuid.UUID
	if req.BranchID != nil {
		if branchID, err = parseOptionalID("branch_id", *req.BranchID); err != nil {
			return OrderResponse{}, err
		}
	}

	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if !IsEditable(order.Status) {
			return fmt.Errorf("%w: order %s is %s and can no longer be edited", apperrors.ErrInvalidTransition, order.OrderNumber, order.Status)
		}
		before := snapshotOrder(order)

		if req.Items != nil {
			items, err := buildLineItems(txCtx, s.repos.Products, req.Items)
			if err != nil {
				return err
			}
			if err := applyTotals(order, items); err != nil {
				return err
			}
			if err := s.repos.Orders.ReplaceItems(txCtx, order.ID, items); err != nil {
				return fmt.Errorf("failed to replace line items: %w", err)
			}
			order.Items = items
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}
		if req.RequiredDate != nil {
			d := req.RequiredDate.UTC()
			order.RequiredDate = &d
		}
		if req.BranchID != nil {
			order.BranchID = branchID
		}
		if err := s.repos.Orders.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		after := snapshotOrder(order)
		details, _ := json.Marshal(map[string]any{"before": before, "after": after})
		if err := s.repos.Audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.UserID,
			UserRole:   actor.Role,
			Action:     model.ActionEditOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNumber,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		posted := order.Status == model.OrderStatusShipped || order.Status == model.OrderStatusDelivered
		if posted && before.TotalAmount != after.TotalAmount {
			logger.LogWarn(s.logger, "order", "EditOrder", "total changed after invoice; ledger not re-posted", map[string]any{
				"order_id": order.ID,
				"before":   before.TotalAmount.String(),
				"after":    after.TotalAmount.String(),
			})
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	f := repository.OrderFilter{Page: page, Limit: limit}
	for _, st := range filter.Statuses {
		f.Statuses = append(f.Statuses, model.OrderStatus(st))
	}
	var err error
	if f.CustomerID, err = parseOptionalID("customer_id", filter.CustomerID); err != nil {
		return nil, 0, err
	}
	if f.BranchID, err = parseOptionalID("branch_id", filter.BranchID); err != nil {
		return nil, 0, err
	}

	orders, total, err := s.repos.Orders.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *orderService) ListEvents(ctx context.Context, orderID string) ([]WorkflowEventResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Orders.FindByID(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.repos.Workflow.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow events: %w", err)
	}
	res := make([]WorkflowEventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, WorkflowEventResponse{
			ID:         e.ID.String(),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Action:     e.Action,
			ActorID:    e.ActorID.String(),
			ActorRole:  e.ActorRole,
			Comment:    e.Comment,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

// --- Helpers ---

// buildLineItems resolves catalog data for each input line and computes line totals.
func buildLineItems(ctx context.Context, products repository.ProductRepository, inputs []LineItemInput) ([]model.OrderLineItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		id, err := parseID("product_id", in.ProductID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	catalog := make(map[uuid.UUID]model.Product, len(found))
	for _, p := range found {
		catalog[p.ID] = p
	}

	items := make([]model.OrderLineItem, 0, len(inputs))
	for i, in := range inputs {
		product, ok := catalog[ids[i]]
		if !ok {
			return nil, fmt.Errorf("%w: product %s not found", apperrors.ErrValidation, in.ProductID)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s is inactive", apperrors.ErrValidation, product.SKU)
		}
		variantID, err := parseOptionalID("variant_id", in.VariantID)
		if err != nil {
			return nil, err
		}
		item := model.OrderLineItem{
			ProductID:       product.ID,
			VariantID:       variantID,
			Description:     product.Name,
			Quantity:        in.Quantity,
			UnitPrice:       product.UnitPrice,
			Discount:        in.Discount,
			Tax:             in.Tax,
			UnitWeightGrams: product.UnitWeightGrams,
		}
		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		}
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: unit price cannot be negative", apperrors.ErrValidation)
		}
		if err := item.ComputeLineTotal(); err != nil {
			return nil, fmt.Errorf("%w: line %s: %v", apperrors.ErrValidation, product.SKU, err)
		}
		if item.LineTotal < 0 {
			return nil, fmt.Errorf("%w: discount exceeds line value for %s", apperrors.ErrValidation, product.SKU)
		}
		items = append(items, item)
	}
	return items, nil
}

// applyTotals recomputes the money fields from items. A total below what has already
// been collected is rejected so balance_due never goes negative.
func applyTotals(order *model.CreditOrder, items []model.OrderLineItem) error {
	var subtotal, discount, tax money.Amount
	for _, it := range items {
		gross, err := it.UnitPrice.Mul(it.Quantity)
		if err != nil {
			return outOfRange(err)
		}
		if subtotal, err = subtotal.Add(gross); err != nil {
			return outOfRange(err)
		}
		if discount, err = discount.Add(it.Discount); err != nil {
			return outOfRange(err)
		}
		if tax, err = tax.Add(it.Tax); err != nil {
			return outOfRange(err)
		}
	}
	net, err := subtotal.Sub(discount)
	if err != nil {
		return outOfRange(err)
	}
	total, err := net.Add(tax)
	if err != nil {
		return outOfRange(err)
	}
	if total < order.PaidTotal() {
		return fmt.Errorf("%w: new total %s is below the %s already paid", apperrors.ErrValidation, total, order.PaidTotal())
	}
	order.Subtotal = subtotal
	order.Discount = discount
	order.Tax = tax
	order.TotalAmount = total
	order.RecomputeBalance()
	return nil
}

// outOfRange reports arithmetic overflow on caller-supplied amounts as a validation error.
func outOfRange(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func formatID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toOrderResponse(o *model.CreditOrder) OrderResponse {
	res := OrderResponse{
		ID:                 o.ID.String(),
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID.String(),
		Status:             string(o.Status),
		Subtotal:           o.Subtotal,
		Discount:           o.Discount,
		Tax:                o.Tax,
		TotalAmount:        o.TotalAmount,
		AdvancePaid:        o.AdvancePaid,
		AmountPaid:         o.AmountPaid,
		BalanceDue:         o.BalanceDue,
		BranchID:           formatID(o.BranchID),
		ProductionPriority: o.ProductionPriority,
		Notes:              o.Notes,
		CreatedBy:          o.CreatedBy.String(),
		ApprovedBy:         formatID(o.ApprovedBy),
		ApprovedAt:         formatTime(o.ApprovedAt),
		ShippedAt:          formatTime(o.ShippedAt),
		DeliveredAt:        formatTime(o.DeliveredAt),
		Items:              make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
	if o.RequiredDate != nil {
		d := o.RequiredDate.Format("2006-01-02")
		res.RequiredDate = &d
	}
	if o.Customer != nil {
		res.CustomerName = o.Customer.Name
	}
	for _, it := range o.Items {
		res.Items = append(res.Items, OrderItemResponse{
			ID:              it.ID.String(),
			ProductID:       it.ProductID.String(),
			VariantID:       formatID(it.VariantID),
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			Discount:        it.Discount,
			Tax:             it.Tax,
			LineTotal:       it.LineTotal,
			UnitWeightGrams: it.UnitWeightGrams,
		})
	}
	return res
}

// isNotFound is shared by services that treat a missing row as a validation failure.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
