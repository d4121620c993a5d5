// Package notify forwards committed order and payment events to Google Cloud Pub/Sub.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/logger"
	"salesledger/internal/model"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const publishTimeout = 10 * time.Second

// PubSubConfig selects the project and topic. Empty CredentialsJSON uses Application
// Default Credentials.
type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsJSON string
}

// PubSubPublisher implements service.EventPublisher on one topic. Messages are ordered
// per customer so a consumer sees a customer's ledger changes in commit order.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *logrus.Logger
}

func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig, log *logrus.Logger) (*PubSubPublisher, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to check topic %q: %w", cfg.Topic, err)
	}
	if !exists {
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to create topic %q: %w", cfg.Topic, err)
		}
	}
	topic.EnableMessageOrdering = true

	log.WithFields(logrus.Fields{"project_id": cfg.ProjectID, "topic": cfg.Topic}).Info("pubsub publisher ready")
	return &PubSubPublisher{client: client, topic: topic, logger: log}, nil
}

// Publish blocks until the server acknowledges the message or the timeout expires.
func (p *PubSubPublisher) Publish(ctx context.Context, event model.Event) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		// an ordering key stays paused after a failure until resumed
		p.topic.ResumePublish(msg.OrderingKey)
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	p.logger.WithFields(logrus.Fields{
		"event":      event.Type,
		"message_id": id,
	}).Debug("event published")
	return nil
}

// Close flushes pending messages and releases the client.
func (p *PubSubPublisher) Close() {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		logger.LogError(p.logger, "notify", "Close", "pubsub client close", nil, err)
	}
}

func newMessage(event model.Event) (*pubsub.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	attrs := map[string]string{
		"event_type":  event.Type,
		"customer_id": event.CustomerID.String(),
	}
	if event.OrderID != nil {
		attrs["order_id"] = event.OrderID.String()
	}
	if event.PaymentID != nil {
		attrs["payment_id"] = event.PaymentID.String()
	}
	return &pubsub.Message{
		Data:        data,
		Attributes:  attrs,
		OrderingKey: event.CustomerID.String(),
	}, nil
}
