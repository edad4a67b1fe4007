package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/subscriptions"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/razorpay"
)

// Razorpay requires a charge count up front; one year of monthly cycles.
const defaultTotalCount = 12

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateSubscription(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (map[string]interface{}, error)
	KeyID() string
	KeySecret() string
}

type eventPublisher interface {
	PublishBillingEvent(ctx context.Context, eventName string, payload any) error
}

// CheckoutSession is what the frontend needs to open the hosted checkout.
type CheckoutSession struct {
	SubscriptionID string `json:"subscription_id"`
	KeyID          string `json:"key_id"`
}

// VerifyPaymentInput carries the client-side payment confirmation fields.
type VerifyPaymentInput struct {
	PaymentID      string
	SubscriptionID string
	Signature      string
}

// VerifyPaymentResult reports the optimistic activation outcome.
type VerifyPaymentResult struct {
	OK     bool                     `json:"ok"`
	Status enums.SubscriptionStatus `json:"status"`
}

// Overview is the educator-facing subscription snapshot.
type Overview struct {
	Subscription *models.Subscription `json:"subscription"`
	UsedSeats    int64                `json:"used_seats"`
	TotalSeats   int                  `json:"total_seats"`
	Usable       bool                 `json:"usable"`
}

// Service drives the educator-facing billing flows against the gateway.
type Service interface {
	StartSubscription(ctx context.Context, educatorID uuid.UUID, quantity int) (*CheckoutSession, error)
	VerifyPayment(ctx context.Context, educatorID uuid.UUID, input VerifyPaymentInput) (*VerifyPaymentResult, error)
	CancelSubscription(ctx context.Context, educatorID uuid.UUID, atCycleEnd bool) error
	GetSubscriptionOverview(ctx context.Context, educatorID uuid.UUID) (*Overview, error)
	ListInvoices(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	gateway   gateway
	publisher eventPublisher
	cfg       config.RazorpayConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewService builds the billing service. The publisher is optional; when nil
// the service skips billing-event fan-out.
func NewService(tx txRunner, repo Repository, gw gateway, publisher eventPublisher, cfg config.RazorpayConfig, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		cfg:       cfg,
		logger:    logg,
		now:       time.Now,
	}, nil
}

// StartSubscription creates the gateway subscription and records it locally
// in status "created". The educator id rides along in the gateway notes so
// webhook events can be attributed even before the mapping row lands.
func (s *service) StartSubscription(ctx context.Context, educatorID uuid.UUID, quantity int) (*CheckoutSession, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	existing, err := s.repo.FindSubscriptionByEducator(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if subscriptions.IsUsable(existing, s.now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active subscription already exists")
	}

	created, err := s.gateway.CreateSubscription(ctx, map[string]interface{}{
		"plan_id":         s.cfg.PlanID,
		"quantity":        quantity,
		"total_count":     defaultTotalCount,
		"customer_notify": 1,
		"notes": map[string]interface{}{
			"educator_id": educatorID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	subscriptionID := stringValue(created["id"])
	if subscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no subscription id")
	}

	now := s.now().UTC()
	sub := &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: subscriptionID,
		PlanKey:                s.cfg.PlanKey,
		Status:                 subscriptions.MapRazorpayStatus(stringValue(created["status"])),
		Quantity:               quantity,
		LastEventName:          "subscription.created",
		LastEventAt:            &now,
	}
	if existing != nil {
		sub.ID = existing.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertSubscription(ctx, sub); err != nil {
			return err
		}
		return repo.UpsertMapping(ctx, &models.SubscriptionMapping{
			RazorpaySubscriptionID: subscriptionID,
			EducatorID:             educatorID,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"educator_id":     educatorID.String(),
		"subscription_id": subscriptionID,
		"quantity":        quantity,
	})
	s.logger.Info(logCtx, "subscription created at gateway")

	return &CheckoutSession{
		SubscriptionID: subscriptionID,
		KeyID:          s.gateway.KeyID(),
	}, nil
}

// VerifyPayment validates the checkout confirmation signature and, on match,
// optimistically marks the subscription active. The webhook remains the
// authority; a later event can still supersede this write.
func (s *service) VerifyPayment(ctx context.Context, educatorID uuid.UUID, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}
	paymentID := strings.TrimSpace(input.PaymentID)
	subscriptionID := strings.TrimSpace(input.SubscriptionID)
	signature := strings.TrimSpace(input.Signature)
	if paymentID == "" || subscriptionID == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id, subscription id, and signature are required")
	}

	if !razorpay.VerifyPaymentSignature(paymentID, subscriptionID, signature, s.gateway.KeySecret()) {
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"educator_id":     educatorID.String(),
			"subscription_id": subscriptionID,
			"payment_id":      paymentID,
		})
		s.logger.Warn(logCtx, "payment confirmation signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature mismatch")
	}

	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindSubscriptionByRazorpayID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub != nil && sub.EducatorID != educatorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "subscription belongs to another educator")
		}
		if sub == nil {
			sub = &models.Subscription{
				EducatorID:             educatorID,
				RazorpaySubscriptionID: subscriptionID,
				PlanKey:                s.cfg.PlanKey,
			}
		}
		sub.Status = enums.SubscriptionStatusActive
		sub.LastEventName = "client.payment_verified"
		sub.LastEventAt = &now

		if err := repo.UpsertSubscription(ctx, sub); err != nil {
			return err
		}
		return repo.UpsertMapping(ctx, &models.SubscriptionMapping{
			RazorpaySubscriptionID: subscriptionID,
			EducatorID:             educatorID,
		})
	})
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}

	s.publish(ctx, "billing.payment_verified", map[string]any{
		"educator_id":     educatorID.String(),
		"subscription_id": subscriptionID,
		"payment_id":      paymentID,
		"verified_at":     now.Format(time.RFC3339),
	})

	return &VerifyPaymentResult{OK: true, Status: enums.SubscriptionStatusActive}, nil
}

// CancelSubscription requests cancellation at the gateway. Local status stays
// as-is until the subscription.cancelled webhook or the reconcile job lands.
func (s *service) CancelSubscription(ctx context.Context, educatorID uuid.UUID, atCycleEnd bool) error {
	if educatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}

	sub, err := s.repo.FindSubscriptionByEducator(ctx, educatorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil || sub.RazorpaySubscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no subscription to cancel")
	}

	if _, err := s.gateway.CancelSubscription(ctx, sub.RazorpaySubscriptionID, atCycleEnd); err != nil {
		return err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"educator_id":     educatorID.String(),
		"subscription_id": sub.RazorpaySubscriptionID,
		"at_cycle_end":    atCycleEnd,
	})
	s.logger.Info(logCtx, "subscription cancellation requested")
	return nil
}

// GetSubscriptionOverview returns the subscription plus its seat usage. A
// missing subscription is a valid state for a fresh educator, not an error.
func (s *service) GetSubscriptionOverview(ctx context.Context, educatorID uuid.UUID) (*Overview, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}

	sub, err := s.repo.FindSubscriptionByEducator(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	used, err := s.repo.CountActiveSeats(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
	}

	overview := &Overview{
		Subscription: sub,
		UsedSeats:    used,
		Usable:       subscriptions.IsUsable(sub, s.now().UTC()),
	}
	if sub != nil {
		overview.TotalSeats = sub.Quantity
	}
	return overview, nil
}

func (s *service) ListInvoices(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}
	rows, err := s.repo.ListInvoicesByEducator(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return rows, nil
}

// publish is best-effort; billing event fan-out must never fail the request.
func (s *service) publish(ctx context.Context, eventName string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBillingEvent(ctx, eventName, payload); err != nil {
		s.logger.Error(ctx, "publish billing event", err)
	}
}

func stringValue(value interface{}) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}
