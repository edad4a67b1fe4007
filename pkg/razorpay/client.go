package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	razorpaygo "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"

	"github.com/univlive/univlive-backend/pkg/config"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// Client exposes Razorpay primitives with centralized auth, logging, and error mapping.
type Client struct {
	sdk           *razorpaygo.Client
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	c := &Client{
		sdk:           razorpaygo.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the configured Razorpay key id (safe to expose to clients).
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the secret used to verify checkout confirmation signatures.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// WebhookSecret returns the secret used to verify webhook signatures.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// CreateSubscription creates a gateway subscription against the given plan.
func (c *Client) CreateSubscription(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	c.log(ctx, "request", "create_subscription", map[string]any{"plan_id": data["plan_id"]})

	resp, err := c.sdk.Subscription.Create(data, nil)
	if err != nil {
		c.log(ctx, "error", "create_subscription", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create subscription")
	}

	c.log(ctx, "response", "create_subscription", map[string]any{
		"subscription_id": stringField(resp, "id"),
		"status":          stringField(resp, "status"),
	})
	return resp, nil
}

// FetchSubscription retrieves the current subscription state from the gateway.
func (c *Client) FetchSubscription(ctx context.Context, subscriptionID string) (map[string]interface{}, error) {
	c.log(ctx, "request", "fetch_subscription", map[string]any{"subscription_id": subscriptionID})

	resp, err := c.sdk.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		c.log(ctx, "error", "fetch_subscription", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "fetch subscription")
	}

	c.log(ctx, "response", "fetch_subscription", map[string]any{
		"subscription_id": stringField(resp, "id"),
		"status":          stringField(resp, "status"),
	})
	return resp, nil
}

// CancelSubscription cancels the gateway subscription.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (map[string]interface{}, error) {
	data := map[string]interface{}{"cancel_at_cycle_end": boolToInt(atCycleEnd)}
	c.log(ctx, "request", "cancel_subscription", map[string]any{"subscription_id": subscriptionID})

	resp, err := c.sdk.Subscription.Cancel(subscriptionID, data, nil)
	if err != nil {
		c.log(ctx, "error", "cancel_subscription", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "cancel subscription")
	}

	c.log(ctx, "response", "cancel_subscription", map[string]any{
		"subscription_id": stringField(resp, "id"),
		"status":          stringField(resp, "status"),
	})
	return resp, nil
}

// FetchPayment retrieves a payment by id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error) {
	c.log(ctx, "request", "fetch_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		c.log(ctx, "error", "fetch_payment", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "fetch payment")
	}

	c.log(ctx, "response", "fetch_payment", map[string]any{
		"payment_id": stringField(resp, "id"),
		"status":     stringField(resp, "status"),
	})
	return resp, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "phone", "contact", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var badRequest *rzperrors.BadRequestError
	if errors.As(err, &badRequest) {
		code := pkgerrors.CodeValidation
		if strings.Contains(strings.ToLower(badRequest.Message), "authentication") {
			code = pkgerrors.CodeUnauthorized
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("razorpay %s failed", op))
	}

	var gateway *rzperrors.GatewayError
	if errors.As(err, &gateway) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s failed", op))
	}

	var server *rzperrors.ServerError
	if errors.As(err, &server) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s failed", op))
	}

	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s failed", op))
}

func stringField(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
