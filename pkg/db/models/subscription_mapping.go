package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionMapping recovers the owning educator for webhook events that
// carry only an external subscription id (some invoice events). At most one
// educator per subscription id; once written the row is never updated.
type SubscriptionMapping struct {
	RazorpaySubscriptionID string    `gorm:"column:razorpay_subscription_id;primaryKey"`
	EducatorID             uuid.UUID `gorm:"column:educator_id;type:uuid;not null;index"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
}
