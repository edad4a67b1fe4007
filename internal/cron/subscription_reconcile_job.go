package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/subscriptions"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/logger"
)

const (
	defaultReconcileLimit    = 250
	defaultReconcileLookback = 7 * 24 * time.Hour

	reconcileEventName = "reconcile.sync"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type subscriptionGateway interface {
	FetchSubscription(ctx context.Context, subscriptionID string) (map[string]interface{}, error)
}

// SubscriptionReconcileJobParams configure the gateway sync job.
type SubscriptionReconcileJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	BillingRepo billing.Repository
	Gateway     subscriptionGateway
	Limit       int
	Lookback    time.Duration
	Now         func() time.Time
}

// NewSubscriptionReconcileJob builds the job that re-fetches gateway state
// for recently active subscriptions. It covers lost webhooks; a halted or
// cancelled subscription the webhook never reported gets picked up here.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("reconcile job needs a logger")
	case params.DB == nil:
		return nil, fmt.Errorf("reconcile job needs a db runner")
	case params.BillingRepo == nil:
		return nil, fmt.Errorf("reconcile job needs a billing repository")
	case params.Gateway == nil:
		return nil, fmt.Errorf("reconcile job needs a gateway client")
	}
	job := &subscriptionReconcileJob{
		log:      params.Logger,
		runner:   params.DB,
		repo:     params.BillingRepo,
		gateway:  params.Gateway,
		now:      params.Now,
		limit:    params.Limit,
		lookback: params.Lookback,
	}
	if job.now == nil {
		job.now = time.Now
	}
	if job.lookback <= 0 {
		job.lookback = defaultReconcileLookback
	}
	if job.limit <= 0 {
		job.limit = defaultReconcileLimit
	}
	return job, nil
}

type subscriptionReconcileJob struct {
	log      *logger.Logger
	runner   txRunner
	repo     billing.Repository
	gateway  subscriptionGateway
	now      func() time.Time
	limit    int
	lookback time.Duration
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	logCtx := j.log.WithField(ctx, "job", j.Name())
	candidates, err := j.repo.ListSubscriptionsForReconciliation(logCtx, j.limit, j.lookback)
	if err != nil {
		return fmt.Errorf("list reconcile candidates: %w", err)
	}

	var errs error
	synced := 0
	for i := range candidates {
		if err := j.syncOne(logCtx, &candidates[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		synced++
	}

	j.log.Info(j.log.WithFields(logCtx, map[string]any{
		"candidates": len(candidates),
		"synced":     synced,
	}), "subscription reconcile loop complete")
	return errs
}

func (j *subscriptionReconcileJob) syncOne(ctx context.Context, sub *models.Subscription) error {
	logCtx := j.log.WithFields(ctx, map[string]any{
		"subscription_id":          sub.ID,
		"educator_id":              sub.EducatorID,
		"razorpay_subscription_id": sub.RazorpaySubscriptionID,
	})
	if strings.TrimSpace(sub.RazorpaySubscriptionID) == "" {
		j.log.Info(logCtx, "subscription has no gateway id; skipping")
		return nil
	}

	raw, err := j.gateway.FetchSubscription(logCtx, sub.RazorpaySubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch gateway subscription %s: %w", sub.RazorpaySubscriptionID, err)
	}
	entity, err := decodeGatewaySubscription(raw)
	if err != nil {
		return fmt.Errorf("decode gateway subscription %s: %w", sub.RazorpaySubscriptionID, err)
	}
	if entity == nil || entity.ID == "" {
		j.log.Info(logCtx, "gateway subscription not found; skipping")
		return nil
	}

	return j.runner.WithTx(logCtx, func(tx *gorm.DB) error {
		txRepo := j.repo.WithTx(tx)
		stored, err := txRepo.FindSubscriptionByRazorpayID(logCtx, entity.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			j.log.Info(logCtx, "subscription removed from db; skipping")
			return nil
		}
		if err := subscriptions.ApplyRazorpaySubscription(stored, entity, reconcileEventName, j.now().UTC()); err != nil {
			return err
		}
		if err := txRepo.UpdateSubscription(logCtx, stored); err != nil {
			return err
		}
		j.log.Info(j.log.WithField(logCtx, "gateway_status", entity.Status), "subscription synced from gateway")
		return nil
	})
}

// decodeGatewaySubscription converts the SDK's loosely typed response into
// the entity shape the webhook path already understands.
func decodeGatewaySubscription(raw map[string]interface{}) (*subscriptions.RazorpaySubscription, error) {
	if raw == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var entity subscriptions.RazorpaySubscription
	if err := json.Unmarshal(encoded, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}
