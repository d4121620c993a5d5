package service

import (
	"context"
	"errors"

	"salesledger/internal/logger"
	"salesledger/internal/model"

	"github.com/sirupsen/logrus"
)

// EventPublisher delivers post-commit notifications. Failures never undo the committed change.
type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.Event) error { return nil }

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event model.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// publishAfterCommit detaches from ctx cancellation: the change is committed, so the
// notification must go out even when the caller has already gone away.
func publishAfterCommit(ctx context.Context, pub EventPublisher, log *logrus.Logger, event model.Event) {
	if err := pub.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.LogError(log, "events", "publishAfterCommit", "publish failed", event, err)
	}
}
