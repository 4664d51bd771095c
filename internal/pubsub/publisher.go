package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/config"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// JobEvent is one lifecycle transition of an ads-fetch job, published so
// downstream consumers (alerting, usage dashboards) can react without polling
// the jobs table.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	AdsFetched int       `json:"ads_fetched"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher defines an interface for publishing job lifecycle events.
type Publisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
	Close() error
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  string
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: cfg.JobEventsTopic}, nil
}

// PublishJobEvent sends the event to the configured topic and waits for the
// server to acknowledge it.
func (p *PubSubPublisher) PublishJobEvent(ctx context.Context, event JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}
	t := p.client.Topic(p.topic)
	result := t.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"status":  event.Status,
			"user_id": event.UserID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish job event to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}
