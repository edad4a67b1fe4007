package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/pkg/enums"
)

// Subscription persists Razorpay subscription state per educator. Rows are
// only ever upserted, never deleted; later gateway events supersede earlier
// ones.
type Subscription struct {
	ID                     uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EducatorID             uuid.UUID                `gorm:"column:educator_id;type:uuid;not null;uniqueIndex"`
	RazorpaySubscriptionID string                   `gorm:"column:razorpay_subscription_id;not null;unique"`
	PlanKey                string                   `gorm:"column:plan_key;not null"`
	Status                 enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'created'"`
	Quantity               int                      `gorm:"column:quantity;not null;default:0"`
	StartAt                *time.Time               `gorm:"column:start_at"`
	CurrentEndAt           *time.Time               `gorm:"column:current_end_at"`
	ChargeAt               *time.Time               `gorm:"column:charge_at"`
	LastEventName          string                   `gorm:"column:last_event_name"`
	LastEventAt            *time.Time               `gorm:"column:last_event_at"`
	Metadata               json.RawMessage          `gorm:"column:metadata;type:jsonb"`
	CreatedAt              time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
