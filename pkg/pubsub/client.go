package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client wraps the Pub/Sub v2 client for publishing billing lifecycle events.
type Client struct {
	raw     *pubsub.Client
	project string
	cfg     config.PubSubConfig
}

// NewClient creates a Pub/Sub v2 client for the configured project.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}

	raw, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("open pubsub client: %w", err)
	}

	c := &Client{
		raw:     raw,
		project: gcp.ProjectID,
		cfg:     cfg,
	}

	if log != nil {
		log.Info(ctx, "pubsub client ready")
	}

	return c, nil
}

// Publisher returns a publisher handle for a topic ID or full resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.raw == nil {
		return nil
	}
	topic := c.topicName(name)
	if topic == "" {
		return nil
	}
	return c.raw.Publisher(topic)
}

// BillingPublisher returns the configured billing event publisher.
func (c *Client) BillingPublisher() *pubsub.Publisher {
	return c.Publisher(c.cfg.BillingTopic)
}

// PublishBillingEvent marshals the payload to JSON and publishes it on the
// billing topic with the event name as an attribute. The publish is awaited so
// callers learn about delivery failures.
func (c *Client) PublishBillingEvent(ctx context.Context, eventName string, payload any) error {
	publisher := c.BillingPublisher()
	if publisher == nil {
		return errors.New("billing topic not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding billing event: %w", err)
	}

	result := publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event": eventName,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing billing event %q: %w", eventName, err)
	}
	return nil
}

// Close releases the underlying gRPC resources.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) topicName(name string) string {
	if c == nil {
		return ""
	}
	topic := strings.TrimSpace(name)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	project := strings.TrimSpace(c.project)
	if project == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", project, topic)
}
