package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
)

// Repository handles billing persistence: subscriptions, seats, invoices, and
// the subscription-id → educator mapping.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindSubscriptionByEducator(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error)
	FindSubscriptionByEducatorForUpdate(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error)
	FindSubscriptionByRazorpayID(ctx context.Context, razorpaySubscriptionID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
	ListSubscriptionsForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error)

	UpsertMapping(ctx context.Context, mapping *models.SubscriptionMapping) error
	FindMapping(ctx context.Context, razorpaySubscriptionID string) (*models.SubscriptionMapping, error)

	UpsertInvoice(ctx context.Context, invoice *models.BillingInvoice) error
	ListInvoicesByEducator(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error)

	FindSeat(ctx context.Context, educatorID, studentID uuid.UUID) (*models.BillingSeat, error)
	UpsertSeat(ctx context.Context, seat *models.BillingSeat) error
	CountActiveSeats(ctx context.Context, educatorID uuid.UUID) (int64, error)
	ListSeats(ctx context.Context, educatorID uuid.UUID) ([]models.BillingSeat, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSubscriptionByEducator(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error) {
	return r.findSubscription(r.db.WithContext(ctx), educatorID)
}

// FindSubscriptionByEducatorForUpdate locks the subscription row for the
// duration of the surrounding transaction so seat capacity checks and the
// subsequent seat write are atomic. sqlite (tests) has no row locks; its
// single-writer model serializes the transaction anyway.
func (r *repository) FindSubscriptionByEducatorForUpdate(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findSubscription(query, educatorID)
}

func (r *repository) findSubscription(query *gorm.DB, educatorID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := query.Where("educator_id = ?", educatorID).First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindSubscriptionByRazorpayID(ctx context.Context, razorpaySubscriptionID string) (*models.Subscription, error) {
	if razorpaySubscriptionID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("razorpay_subscription_id = ?", razorpaySubscriptionID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscription merges on the one-subscription-per-educator constraint:
// a later event for the same educator overwrites the mutable columns even if
// the gateway issued a fresh subscription id.
func (r *repository) UpsertSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "educator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"razorpay_subscription_id",
				"plan_key",
				"status",
				"quantity",
				"start_at",
				"current_end_at",
				"charge_at",
				"last_event_name",
				"last_event_at",
				"metadata",
				"updated_at",
			}),
		}).
		Create(subscription).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) ListSubscriptionsForReconciliation(ctx context.Context, limit int, lookback time.Duration) ([]models.Subscription, error) {
	if limit <= 0 {
		limit = 250
	}
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-lookback)
	statuses := []enums.SubscriptionStatus{
		enums.SubscriptionStatusCreated,
		enums.SubscriptionStatusAuthenticated,
		enums.SubscriptionStatusActive,
		enums.SubscriptionStatusPending,
		enums.SubscriptionStatusHalted,
		enums.SubscriptionStatusPaused,
	}
	var subs []models.Subscription
	query := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("razorpay_subscription_id <> ''").
		Where("(status IN (?) OR current_end_at >= ?)", statuses, cutoff).
		Order("updated_at DESC").
		Limit(limit)
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// UpsertMapping writes the immutable subscription-id → educator link; replays
// never change an existing row.
func (r *repository) UpsertMapping(ctx context.Context, mapping *models.SubscriptionMapping) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(mapping).Error
}

func (r *repository) FindMapping(ctx context.Context, razorpaySubscriptionID string) (*models.SubscriptionMapping, error) {
	if razorpaySubscriptionID == "" {
		return nil, nil
	}
	var mapping models.SubscriptionMapping
	if err := r.db.WithContext(ctx).
		Where("razorpay_subscription_id = ?", razorpaySubscriptionID).
		First(&mapping).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

// UpsertInvoice merges by the prefixed external id so webhook redelivery
// updates the same audit row in place.
func (r *repository) UpsertInvoice(ctx context.Context, invoice *models.BillingInvoice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"razorpay_subscription_id",
				"amount",
				"currency",
				"status",
				"event_name",
				"event_at",
				"payload",
				"updated_at",
			}),
		}).
		Create(invoice).Error
}

func (r *repository) ListInvoicesByEducator(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error) {
	var invoices []models.BillingInvoice
	if err := r.db.WithContext(ctx).
		Where("educator_id = ?", educatorID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repository) FindSeat(ctx context.Context, educatorID, studentID uuid.UUID) (*models.BillingSeat, error) {
	var seat models.BillingSeat
	if err := r.db.WithContext(ctx).
		Where("educator_id = ? AND student_id = ?", educatorID, studentID).
		First(&seat).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &seat, nil
}

// UpsertSeat merges on the (educator, student) pair so reassigning a revoked
// seat reuses the row.
func (r *repository) UpsertSeat(ctx context.Context, seat *models.BillingSeat) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "educator_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"assigned_at",
				"assigned_by",
				"revoked_at",
				"updated_at",
			}),
		}).
		Create(seat).Error
}

func (r *repository) CountActiveSeats(ctx context.Context, educatorID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BillingSeat{}).
		Where("educator_id = ? AND status = ?", educatorID, enums.SeatStatusActive).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListSeats(ctx context.Context, educatorID uuid.UUID) ([]models.BillingSeat, error) {
	var seats []models.BillingSeat
	if err := r.db.WithContext(ctx).
		Where("educator_id = ?", educatorID).
		Order("assigned_at DESC").
		Find(&seats).Error; err != nil {
		return nil, err
	}
	return seats, nil
}
