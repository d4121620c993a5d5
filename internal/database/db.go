package database

import (
	"context"
	"fmt"
	"time"

	"salesledger/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 5

// NewConnection opens the postgres pool, retrying while the database comes up,
// and migrates the schema.
func NewConnection(ctx context.Context, dsn string, log *logrus.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("database not reachable")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(1<<attempt)):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.WithError(pluginErr).Warn("failed to install otelgorm plugin")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Customer{},
		&model.Product{},
		&model.CreditOrder{},
		&model.OrderLineItem{},
		&model.WorkflowEvent{},
		&model.Account{},
		&model.JournalEntry{},
		&model.TransactionLine{},
		&model.CustomerLedgerEntry{},
		&model.Payment{},
		&model.PaymentAllocation{},
		&model.DocumentSequence{},
		&model.Trip{},
		&model.TripOrder{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}
