package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/model"
	"salesledger/internal/repository"
)

// OrderAction names a lifecycle transition.
type OrderAction string

const (
	ActionSubmit             OrderAction = "submit"
	ActionApprove            OrderAction = "approve"
	ActionEscalate           OrderAction = "escalate"
	ActionReject             OrderAction = "reject"
	ActionCancel             OrderAction = "cancel"
	ActionStartProduction    OrderAction = "start_production"
	ActionCompleteProduction OrderAction = "complete_production"
	ActionMarkReady          OrderAction = "mark_ready"
	ActionShip               OrderAction = "ship"
	ActionDeliver            OrderAction = "deliver"
)

type transition struct {
	from []model.OrderStatus
	to   model.OrderStatus
}

// transitions is the only place that decides which status changes are legal.
var transitions = map[OrderAction]transition{
	ActionSubmit: {
		from: []model.OrderStatus{model.OrderStatusDraft},
		to:   model.OrderStatusPendingApproval,
	},
	ActionApprove: {
		from: []model.OrderStatus{model.OrderStatusPendingApproval, model.OrderStatusEscalated},
		to:   model.OrderStatusApproved,
	},
	ActionEscalate: {
		from: []model.OrderStatus{model.OrderStatusPendingApproval},
		to:   model.OrderStatusEscalated,
	},
	ActionReject: {
		from: []model.OrderStatus{model.OrderStatusDraft, model.OrderStatusPendingApproval, model.OrderStatusApproved, model.OrderStatusEscalated},
		to:   model.OrderStatusRejected,
	},
	ActionCancel: {
		from: []model.OrderStatus{model.OrderStatusDraft, model.OrderStatusPendingApproval, model.OrderStatusEscalated},
		to:   model.OrderStatusCancelled,
	},
	ActionStartProduction: {
		from: []model.OrderStatus{model.OrderStatusApproved},
		to:   model.OrderStatusInProduction,
	},
	ActionCompleteProduction: {
		from: []model.OrderStatus{model.OrderStatusInProduction},
		to:   model.OrderStatusProduced,
	},
	ActionMarkReady: {
		from: []model.OrderStatus{model.OrderStatusProduced},
		to:   model.OrderStatusReadyToShip,
	},
	ActionShip: {
		from: []model.OrderStatus{model.OrderStatusReadyToShip},
		to:   model.OrderStatusShipped,
	},
	ActionDeliver: {
		from: []model.OrderStatus{model.OrderStatusShipped},
		to:   model.OrderStatusDelivered,
	},
}

// NextStatus returns the status action leads to from current, or ErrInvalidTransition.
func NextStatus(current model.OrderStatus, action OrderAction) (model.OrderStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", apperrors.ErrInvalidTransition, action)
	}
	if !slices.Contains(t.from, current) {
		return "", fmt.Errorf("%w: cannot %s an order in status %s", apperrors.ErrInvalidTransition, action, current)
	}
	return t.to, nil
}

// IsTerminal reports statuses no action leaves.
func IsTerminal(status model.OrderStatus) bool {
	for _, t := range transitions {
		if slices.Contains(t.from, status) {
			return false
		}
	}
	return true
}

// IsEditable reports whether line items and fields may still be changed.
func IsEditable(status model.OrderStatus) bool {
	return status != model.OrderStatusDelivered && status != model.OrderStatusCancelled
}

// stateMachine applies a legal transition to a locked order and records it.
type stateMachine struct {
	repos *repository.Repositories
	now   func() time.Time
}

// apply must run inside a transaction that already holds the order row lock.
func (m *stateMachine) apply(txCtx context.Context, order *model.CreditOrder, actor model.Actor, action OrderAction, comment string) error {
	from := order.Status
	to, err := NextStatus(from, action)
	if err != nil {
		return err
	}
	order.Status = to
	if err := m.repos.Orders.Update(txCtx, order); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	event := &model.WorkflowEvent{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		Action:     string(action),
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Comment:    comment,
		CreatedAt:  m.now(),
	}
	if err := m.repos.Workflow.Append(txCtx, event); err != nil {
		return fmt.Errorf("failed to append workflow event: %w", err)
	}
	return nil
}
