package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TripStatusOpen   = "open"
	TripStatusClosed = "closed"
)

// Trip groups shipped orders travelling on one vehicle on one day.
type Trip struct {
	ID            uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TripNumber    string      `gorm:"type:varchar(30);uniqueIndex;not null" json:"trip_number"`
	VehicleID     string      `gorm:"type:varchar(50);not null;index:idx_trip_match" json:"vehicle_id"`
	DriverID      string      `gorm:"type:varchar(50);not null;index:idx_trip_match" json:"driver_id"`
	TripDate      time.Time   `gorm:"type:date;not null;index:idx_trip_match" json:"trip_date"`
	CapacityGrams int64       `gorm:"not null" json:"capacity_grams"`
	LoadedGrams   int64       `gorm:"not null;default:0" json:"loaded_grams"`
	Status        string      `gorm:"type:varchar(20);not null" json:"status"`
	Orders        []TripOrder `gorm:"foreignKey:TripID" json:"orders"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// RemainingGrams is the capacity left on the trip.
func (t *Trip) RemainingGrams() int64 {
	return t.CapacityGrams - t.LoadedGrams
}

// TripOrder links a shipped order to a trip.
type TripOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TripID      uuid.UUID `gorm:"type:uuid;not null;index" json:"trip_id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	WeightGrams int64     `gorm:"not null" json:"weight_grams"`
	CreatedAt   time.Time `json:"created_at"`
}
