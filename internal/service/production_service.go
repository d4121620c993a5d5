package service

import (
	"context"
	"fmt"
	"slices"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"
)

type PriorityDTO struct {
	Priority int `json:"priority" validate:"gte=0,lte=1000"`
}

// prioritizable statuses may still have their queue position changed.
var prioritizable = []model.OrderStatus{
	model.OrderStatusApproved,
	model.OrderStatusInProduction,
	model.OrderStatusProduced,
	model.OrderStatusReadyToShip,
}

type ProductionService interface {
	Start(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	Complete(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	MarkReady(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error)
	SetPriority(ctx context.Context, actor model.Actor, orderID string, req PriorityDTO) (OrderResponse, error)
	Queue(ctx context.Context, branchID string) ([]OrderResponse, error)
}

type productionService struct {
	repos   *repository.Repositories
	machine *stateMachine
}

func NewProductionService(deps Deps) ProductionService {
	deps = deps.withDefaults()
	return &productionService{
		repos:   deps.Repos,
		machine: &stateMachine{repos: deps.Repos, now: deps.Now},
	}
}

func (s *productionService) Start(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	return s.transition(ctx, actor, orderID, ActionStartProduction)
}

func (s *productionService) Complete(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	return s.transition(ctx, actor, orderID, ActionCompleteProduction)
}

func (s *productionService) MarkReady(ctx context.Context, actor model.Actor, orderID string) (OrderResponse, error) {
	return s.transition(ctx, actor, orderID, ActionMarkReady)
}

func (s *productionService) transition(ctx context.Context, actor model.Actor, orderID string, action OrderAction) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if err := checkBranch(actor, order); err != nil {
			return err
		}
		return s.machine.apply(txCtx, order, actor, action, "")
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// SetPriority only reorders the queue; it records no workflow event.
func (s *productionService) SetPriority(ctx context.Context, actor model.Actor, orderID string, req PriorityDTO) (OrderResponse, error) {
	if err := validateStruct(req); err != nil {
		return OrderResponse{}, err
	}
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if !slices.Contains(prioritizable, order.Status) {
			return fmt.Errorf("%w: order %s is %s and not in the production queue",
				apperrors.ErrInvalidTransition, order.OrderNumber, order.Status)
		}
		if err := checkBranch(actor, order); err != nil {
			return err
		}
		order.ProductionPriority = req.Priority
		return s.repos.Orders.Update(txCtx, order)
	})
	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *productionService) Queue(ctx context.Context, branchID string) ([]OrderResponse, error) {
	branch, err := parseOptionalID("branch_id", branchID)
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders.ProductionQueue(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to load production queue: %w", err)
	}
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, nil
}

// checkBranch keeps branch-bound, non-privileged actors on their own branch's orders.
func checkBranch(actor model.Actor, order *model.CreditOrder) error {
	if actor.Privileged || actor.BranchID == nil || order.BranchID == nil {
		return nil
	}
	if *actor.BranchID != *order.BranchID {
		return fmt.Errorf("%w: order %s belongs to another branch", apperrors.ErrForbidden, order.OrderNumber)
	}
	return nil
}
