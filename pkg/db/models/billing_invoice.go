package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/univlive/univlive-backend/pkg/enums"
)

// BillingInvoice is an append-only audit record of one gateway invoice or
// payment event. The primary key is the prefixed external id (inv_…, pay_…)
// so webhook redelivery merges into the same row instead of duplicating it.
type BillingInvoice struct {
	ID                     string              `gorm:"column:id;primaryKey"`
	EducatorID             uuid.UUID           `gorm:"column:educator_id;type:uuid;not null;index"`
	RazorpaySubscriptionID *string             `gorm:"column:razorpay_subscription_id;index"`
	Amount                 decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency               string              `gorm:"column:currency;not null;default:'INR'"`
	Status                 enums.InvoiceStatus `gorm:"column:status;not null"`
	EventName              string              `gorm:"column:event_name;not null"`
	EventAt                *time.Time          `gorm:"column:event_at"`
	Payload                json.RawMessage     `gorm:"column:payload;type:jsonb"`
	CreatedAt              time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
