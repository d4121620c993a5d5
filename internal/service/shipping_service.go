package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/lock"
	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTripCapacityGrams is used when a shipment opens a trip without stating capacity.
const DefaultTripCapacityGrams int64 = 1_000_000

type ShipOrderDTO struct {
	VehicleID     string `json:"vehicle_id"`
	DriverID      string `json:"driver_id"`
	WeightGrams   *int64 `json:"weight_grams" validate:"omitempty,gte=0"`
	CapacityGrams int64  `json:"capacity_grams" validate:"gte=0"`
	Comment       string `json:"comment"`
}

type ShipmentResponse struct {
	Order          OrderResponse `json:"order"`
	InvoiceAmount  money.Amount  `json:"invoice_amount"`
	LedgerEntryID  *string       `json:"ledger_entry_id"`
	JournalEntryID *string       `json:"journal_entry_id"`
	WeightGrams    int64         `json:"weight_grams"`
	TripID         *string       `json:"trip_id"`
	TripNumber     string        `json:"trip_number,omitempty"`
	HookErrors     []string      `json:"hook_errors,omitempty"`
}

type ShippingService interface {
	Ship(ctx context.Context, actor model.Actor, orderID string, req ShipOrderDTO) (ShipmentResponse, error)
	Deliver(ctx context.Context, actor model.Actor, orderID string, comment string) (OrderResponse, error)
}

type shippingService struct {
	repos      *repository.Repositories
	locker     lock.Locker
	publisher  EventPublisher
	machine    *stateMachine
	recognizer *invoiceRecognizer
	numbers    *numberer
	logger     *logrus.Logger
	now        func() time.Time
}

func NewShippingService(deps Deps) ShippingService {
	deps = deps.withDefaults()
	recognizer := &invoiceRecognizer{
		poster:   &ledgerPoster{repos: deps.Repos, logger: deps.Logger, now: deps.Now},
		accounts: &accountResolver{accounts: deps.Repos.Accounts},
		logger:   deps.Logger,
	}
	return &shippingService{
		repos:      deps.Repos,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		machine:    &stateMachine{repos: deps.Repos, now: deps.Now},
		recognizer: recognizer,
		numbers:    &numberer{seq: deps.Repos.Sequences, now: deps.Now},
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// lockCustomerOf resolves the order's customer outside the transaction and takes the
// customer lock, so ledger postings for one customer never interleave.
func (s *shippingService) lockCustomerOf(ctx context.Context, orderID uuid.UUID) (uuid.UUID, func(), error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	release, err := s.locker.Acquire(ctx, lock.CustomerKey(order.CustomerID))
	if err != nil {
		return uuid.Nil, nil, err
	}
	return order.CustomerID, release, nil
}

// Ship recognizes the invoice exactly once. Trip consolidation and event publication run
// after commit; their failures are reported but never undo the shipment.
func (s *shippingService) Ship(ctx context.Context, actor model.Actor, orderID string, req ShipOrderDTO) (ShipmentResponse, error) {
	if err := validateStruct(req); err != nil {
		return ShipmentResponse{}, err
	}
	if (req.VehicleID == "") != (req.DriverID == "") {
		return ShipmentResponse{}, fmt.Errorf("%w: vehicle_id and driver_id go together", apperrors.ErrValidation)
	}
	id, err := parseID("order id", orderID)
	if err != nil {
		return ShipmentResponse{}, err
	}

	customerID, release, err := s.lockCustomerOf(ctx, id)
	if err != nil {
		return ShipmentResponse{}, err
	}
	defer release()

	var (
		order  *model.CreditOrder
		posted *PostingResult
	)
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.repos.Customers.FindByIDForUpdate(txCtx, customerID)
		if err != nil {
			return err
		}
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if order.CustomerID != customer.ID {
			return fmt.Errorf("%w: order %s changed customer while shipping", apperrors.ErrConcurrencyConflict, order.OrderNumber)
		}
		if _, err := NextStatus(order.Status, ActionShip); err != nil {
			return err
		}
		if err := checkBranch(actor, order); err != nil {
			return err
		}

		if posted, err = s.recognizer.Recognize(txCtx, customer, order, actor); err != nil {
			return err
		}
		now := s.now()
		order.ShippedAt = &now
		if err := s.machine.apply(txCtx, order, actor, ActionShip, req.Comment); err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]any{
			"order_number":   order.OrderNumber,
			"invoice_amount": invoiceAmount(posted),
		})
		if err := s.repos.Audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.UserID,
			UserRole:   actor.Role,
			Action:     model.ActionShipOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNumber,
			Details:    string(details),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return ShipmentResponse{}, err
	}

	res := ShipmentResponse{
		Order:         toOrderResponse(order),
		InvoiceAmount: invoiceAmount(posted),
		WeightGrams:   shippingWeight(order, req.WeightGrams),
	}
	if posted != nil {
		res.LedgerEntryID = formatID(&posted.Ledger.ID)
		res.JournalEntryID = formatID(&posted.Journal.ID)
	}

	if req.VehicleID != "" {
		trip, err := s.consolidate(ctx, order, req, res.WeightGrams)
		if err != nil {
			logger.LogError(s.logger, "shipping", "Ship", "trip consolidation failed", map[string]any{
				"order_id":   order.ID,
				"vehicle_id": req.VehicleID,
				"driver_id":  req.DriverID,
			}, err)
			res.HookErrors = append(res.HookErrors, "trip consolidation: "+err.Error())
		} else {
			res.TripID = formatID(&trip.ID)
			res.TripNumber = trip.TripNumber
		}
	}

	publishAfterCommit(ctx, s.publisher, s.logger, model.Event{
		Type:        model.EventOrderShipped,
		OccurredAt:  *order.ShippedAt,
		CustomerID:  order.CustomerID,
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      res.InvoiceAmount,
		ActorID:     actor.UserID,
		Data: map[string]any{
			"weight_grams": res.WeightGrams,
			"trip_number":  res.TripNumber,
		},
	})
	return res, nil
}

// shippingWeight is the explicit override when given, else the sum over line items.
func shippingWeight(order *model.CreditOrder, override *int64) int64 {
	if override != nil {
		return *override
	}
	var total int64
	for _, item := range order.Items {
		total += item.Quantity * item.UnitWeightGrams
	}
	return total
}

// consolidate loads the order onto an open trip for the same vehicle, driver and day
// with room left, or opens a new one. An order heavier than the capacity gets its own trip.
func (s *shippingService) consolidate(ctx context.Context, order *model.CreditOrder, req ShipOrderDTO, weight int64) (*model.Trip, error) {
	capacity := req.CapacityGrams
	if capacity == 0 {
		capacity = DefaultTripCapacityGrams
	}
	tripDate := order.ShippedAt.UTC().Truncate(24 * time.Hour)

	var trip *model.Trip
	err := retryOnDuplicate(func() error {
		return s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			if trip, err = s.repos.Trips.FindOpenForUpdate(txCtx, req.VehicleID, req.DriverID, tripDate, weight); err != nil {
				return err
			}
			if trip == nil {
				number, err := s.numbers.Next(txCtx, PrefixTrip)
				if err != nil {
					return err
				}
				trip = &model.Trip{
					TripNumber:    number,
					VehicleID:     req.VehicleID,
					DriverID:      req.DriverID,
					TripDate:      tripDate,
					CapacityGrams: max(capacity, weight),
					Status:        model.TripStatusOpen,
				}
				if err := s.repos.Trips.Create(txCtx, trip); err != nil {
					return err
				}
			}
			return s.repos.Trips.AddOrder(txCtx, trip, &model.TripOrder{
				OrderID:     order.ID,
				WeightGrams: weight,
			})
		})
	})
	if errors.Is(err, apperrors.ErrDuplicate) {
		return nil, fmt.Errorf("order %s is already on a trip: %w", order.OrderNumber, err)
	}
	return trip, err
}

func (s *shippingService) Deliver(ctx context.Context, actor model.Actor, orderID string, comment string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	var order *model.CreditOrder
	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if order, err = s.repos.Orders.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if _, err := NextStatus(order.Status, ActionDeliver); err != nil {
			return err
		}
		if err := checkBranch(actor, order); err != nil {
			return err
		}
		now := s.now()
		order.DeliveredAt = &now
		return s.machine.apply(txCtx, order, actor, ActionDeliver, comment)
	})
	if err != nil {
		return OrderResponse{}, err
	}

	publishAfterCommit(ctx, s.publisher, s.logger, model.Event{
		Type:        model.EventOrderDelivered,
		OccurredAt:  *order.DeliveredAt,
		CustomerID:  order.CustomerID,
		OrderID:     &order.ID,
		OrderNumber: order.OrderNumber,
		ActorID:     actor.UserID,
	})
	return toOrderResponse(order), nil
}
