package razorpay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/subscriptions"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/metrics"
	pkgrazorpay "github.com/univlive/univlive-backend/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dedupeGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type eventPublisher interface {
	PublishBillingEvent(ctx context.Context, eventName string, payload any) error
}

// Service processes signed gateway webhooks into local billing state. All
// entity writes are merge upserts keyed by external ids, so redelivered
// events converge on the same rows.
type Service interface {
	HandleEvent(ctx context.Context, body []byte, signature, eventID string) error
}

type service struct {
	tx            txRunner
	repo          billing.Repository
	dedupe        dedupeGuard
	publisher     eventPublisher
	metrics       *metrics.WebhookMetrics
	logger        *logger.Logger
	webhookSecret string
	now           func() time.Time
}

// NewService wires the webhook processor. Dedupe guard, publisher, and
// metrics are optional.
func NewService(tx txRunner, repo billing.Repository, dedupe dedupeGuard, publisher eventPublisher, m *metrics.WebhookMetrics, logg *logger.Logger, webhookSecret string) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret required")
	}
	return &service{
		tx:            tx,
		repo:          repo,
		dedupe:        dedupe,
		publisher:     publisher,
		metrics:       m,
		logger:        logg,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}, nil
}

// HandleEvent verifies, decodes, and applies one webhook delivery. A nil
// return means the sender should get a 200, which includes events we drop on
// purpose: an event whose educator cannot be resolved is logged and
// acknowledged, because the gateway would otherwise redeliver it forever and
// redelivery cannot fix attribution. The drop is terminal.
func (s *service) HandleEvent(ctx context.Context, body []byte, signature, eventID string) error {
	if !pkgrazorpay.VerifyWebhookSignature(body, signature, s.webhookSecret) {
		s.logger.Warn(ctx, "webhook signature mismatch")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch")
	}

	event, err := ParseEvent(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse webhook event")
	}
	started := s.now()

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"event":    event.Name,
		"event_id": eventID,
	})

	if s.dedupe != nil {
		fresh, err := s.dedupe.CheckAndMark(ctx, eventID)
		if err != nil {
			s.logger.Error(logCtx, "webhook dedupe check", err)
		}
		if !fresh {
			s.logger.Info(logCtx, "webhook event already processed")
			s.metrics.IncEvent(event.Name, metrics.WebhookOutcomeDuplicate)
			return nil
		}
	}

	educatorID, err := s.resolveEducator(ctx, event)
	if err != nil {
		s.release(ctx, eventID)
		s.metrics.IncEvent(event.Name, metrics.WebhookOutcomeFailed)
		return err
	}
	if educatorID == uuid.Nil {
		s.logger.Warn(logCtx, "webhook event has no resolvable educator, dropping")
		s.metrics.IncEvent(event.Name, metrics.WebhookOutcomeDropped)
		return nil
	}

	if err := s.applyEvent(ctx, event, educatorID); err != nil {
		s.release(ctx, eventID)
		s.metrics.IncEvent(event.Name, metrics.WebhookOutcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply webhook event")
	}

	s.metrics.IncEvent(event.Name, metrics.WebhookOutcomeProcessed)
	s.metrics.ObserveEventDuration(event.Name, s.now().Sub(started))
	s.logger.Info(s.logger.WithField(logCtx, "educator_id", educatorID.String()), "webhook event processed")

	s.publish(ctx, event, educatorID)
	return nil
}

// resolveEducator tries entity notes first, then the subscription-id mapping
// written on earlier events.
func (s *service) resolveEducator(ctx context.Context, event *Event) (uuid.UUID, error) {
	for _, notes := range []subscriptions.Notes{
		notesOf(event.Subscription),
		invoiceNotes(event.Invoice),
		paymentNotes(event.Payment),
	} {
		if id, err := subscriptions.EducatorIDFromNotes(notes); err == nil {
			return id, nil
		}
	}

	subscriptionID := event.SubscriptionID()
	if subscriptionID == "" {
		return uuid.Nil, nil
	}
	mapping, err := s.repo.FindMapping(ctx, subscriptionID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription mapping")
	}
	if mapping == nil {
		return uuid.Nil, nil
	}
	return mapping.EducatorID, nil
}

func (s *service) applyEvent(ctx context.Context, event *Event, educatorID uuid.UUID) error {
	eventAt := s.now().UTC()
	if event.CreatedAt > 0 {
		eventAt = time.Unix(event.CreatedAt, 0).UTC()
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if entity := event.Subscription; entity != nil {
			if err := s.applySubscription(ctx, repo, entity, educatorID, event.Name, eventAt); err != nil {
				return err
			}
		}
		if entity := event.Invoice; entity != nil {
			invoice := &models.BillingInvoice{
				ID:         entity.ID,
				EducatorID: educatorID,
				Amount:     decimal.NewFromInt(entity.Amount),
				Currency:   currencyOrDefault(entity.Currency),
				Status:     enums.InvoiceStatus(entity.Status),
				EventName:  event.Name,
				EventAt:    &eventAt,
				Payload:    event.InvoiceRaw,
			}
			if entity.SubscriptionID != "" {
				invoice.RazorpaySubscriptionID = &entity.SubscriptionID
			}
			if err := repo.UpsertInvoice(ctx, invoice); err != nil {
				return err
			}
		}
		if entity := event.Payment; entity != nil {
			payment := &models.BillingInvoice{
				ID:         entity.ID,
				EducatorID: educatorID,
				Amount:     decimal.NewFromInt(entity.Amount),
				Currency:   currencyOrDefault(entity.Currency),
				Status:     enums.InvoiceStatus(entity.Status),
				EventName:  event.Name,
				EventAt:    &eventAt,
				Payload:    event.PaymentRaw,
			}
			if subscriptionID := event.SubscriptionID(); subscriptionID != "" {
				payment.RazorpaySubscriptionID = &subscriptionID
			}
			if err := repo.UpsertInvoice(ctx, payment); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) applySubscription(ctx context.Context, repo billing.Repository, entity *subscriptions.RazorpaySubscription, educatorID uuid.UUID, eventName string, eventAt time.Time) error {
	existing, err := repo.FindSubscriptionByRazorpayID(ctx, entity.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		// A resubscribe swaps the gateway id on the educator's single row.
		existing, err = repo.FindSubscriptionByEducator(ctx, educatorID)
		if err != nil {
			return err
		}
	}

	var sub *models.Subscription
	if existing == nil {
		sub, err = subscriptions.BuildSubscriptionFromRazorpay(entity, educatorID, eventName, eventAt)
		if err != nil {
			return err
		}
	} else {
		sub = existing
		sub.EducatorID = educatorID
		if err := subscriptions.ApplyRazorpaySubscription(sub, entity, eventName, eventAt); err != nil {
			return err
		}
	}

	if err := repo.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	return repo.UpsertMapping(ctx, &models.SubscriptionMapping{
		RazorpaySubscriptionID: entity.ID,
		EducatorID:             educatorID,
	})
}

func (s *service) release(ctx context.Context, eventID string) {
	if s.dedupe == nil {
		return
	}
	if err := s.dedupe.Release(ctx, eventID); err != nil {
		s.logger.Error(ctx, "release webhook dedupe marker", err)
	}
}

// publish is best-effort analytics fan-out; failures never bubble up to the
// gateway response.
func (s *service) publish(ctx context.Context, event *Event, educatorID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"event":       event.Name,
		"educator_id": educatorID.String(),
	}
	if id := event.SubscriptionID(); id != "" {
		payload["subscription_id"] = id
	}
	if event.Invoice != nil {
		payload["invoice_id"] = event.Invoice.ID
	}
	if event.Payment != nil {
		payload["payment_id"] = event.Payment.ID
	}
	if err := s.publisher.PublishBillingEvent(ctx, event.Name, payload); err != nil {
		s.logger.Error(ctx, "publish billing event", err)
	}
}

// SubscriptionID returns the external subscription id carried anywhere in the
// event, preferring the subscription entity itself.
func (e *Event) SubscriptionID() string {
	if e.Subscription != nil && e.Subscription.ID != "" {
		return e.Subscription.ID
	}
	if e.Invoice != nil && e.Invoice.SubscriptionID != "" {
		return e.Invoice.SubscriptionID
	}
	return ""
}

func notesOf(entity *subscriptions.RazorpaySubscription) subscriptions.Notes {
	if entity == nil {
		return nil
	}
	return entity.Notes
}

func invoiceNotes(entity *subscriptions.RazorpayInvoice) subscriptions.Notes {
	if entity == nil {
		return nil
	}
	return entity.Notes
}

func paymentNotes(entity *subscriptions.RazorpayPayment) subscriptions.Notes {
	if entity == nil {
		return nil
	}
	return entity.Notes
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "INR"
	}
	return currency
}
