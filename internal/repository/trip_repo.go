package repository

import (
	"context"
	"errors"
	"time"

	"salesledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TripRepository interface {
	// FindOpenForUpdate returns nil, nil when no open trip on that vehicle, driver and
	// day has at least minRemaining grams of capacity left.
	FindOpenForUpdate(ctx context.Context, vehicleID, driverID string, tripDate time.Time, minRemaining int64) (*model.Trip, error)
	Create(ctx context.Context, trip *model.Trip) error
	AddOrder(ctx context.Context, trip *model.Trip, link *model.TripOrder) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*model.Trip, error)
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) FindOpenForUpdate(ctx context.Context, vehicleID, driverID string, tripDate time.Time, minRemaining int64) (*model.Trip, error) {
	var trip model.Trip
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vehicle_id = ? AND driver_id = ? AND trip_date = ? AND status = ?",
			vehicleID, driverID, tripDate.Format("2006-01-02"), model.TripStatusOpen).
		Where("capacity_grams - loaded_grams >= ?", minRemaining).
		Order("created_at ASC").
		Take(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &trip, nil
}

func (r *tripRepository) Create(ctx context.Context, trip *model.Trip) error {
	return translateError(GetDB(ctx, r.db).Omit(clause.Associations).Create(trip).Error)
}

// AddOrder links the order and bumps the trip's loaded weight.
func (r *tripRepository) AddOrder(ctx context.Context, trip *model.Trip, link *model.TripOrder) error {
	db := GetDB(ctx, r.db)
	link.TripID = trip.ID
	if err := db.Create(link).Error; err != nil {
		return translateError(err)
	}
	if err := db.Model(&model.Trip{}).Where("id = ?", trip.ID).
		Update("loaded_grams", gorm.Expr("loaded_grams + ?", link.WeightGrams)).Error; err != nil {
		return translateError(err)
	}
	trip.LoadedGrams += link.WeightGrams
	return nil
}

func (r *tripRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	if err := GetDB(ctx, r.db).
		Preload("Orders").
		Joins("JOIN trip_orders ON trip_orders.trip_id = trips.id").
		Where("trip_orders.order_id = ?", orderID).
		First(&trip).Error; err != nil {
		return nil, translateError(err)
	}
	return &trip, nil
}
