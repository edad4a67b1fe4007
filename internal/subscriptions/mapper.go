package subscriptions

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
)

// EducatorIDFromNotes extracts the educator id attached to gateway notes.
func EducatorIDFromNotes(notes Notes) (uuid.UUID, error) {
	if notes == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entity notes are required")
	}
	raw, ok := notes["educator_id"]
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "educator_id missing from notes")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid educator_id in notes")
	}
	return id, nil
}

// BuildSubscriptionFromRazorpay maps a gateway subscription into the canonical model.
func BuildSubscriptionFromRazorpay(entity *RazorpaySubscription, educatorID uuid.UUID, eventName string, eventAt time.Time) (*models.Subscription, error) {
	if entity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay subscription is nil")
	}
	if strings.TrimSpace(entity.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay subscription id is empty")
	}

	sub := &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: entity.ID,
		PlanKey:                entity.PlanID,
		Status:                 MapRazorpayStatus(entity.Status),
		Quantity:               entity.Quantity,
		StartAt:                toTimePtr(entity.StartAt),
		CurrentEndAt:           toTimePtr(entity.CurrentEnd),
		ChargeAt:               toTimePtr(entity.ChargeAt),
		LastEventName:          eventName,
	}
	if !eventAt.IsZero() {
		at := eventAt.UTC()
		sub.LastEventAt = &at
	}
	return sub, nil
}

// ApplyRazorpaySubscription mutates the stored subscription with fresher
// gateway data. Zero-valued timestamps leave the stored value untouched so a
// sparse event never erases state written by a richer one.
func ApplyRazorpaySubscription(target *models.Subscription, entity *RazorpaySubscription, eventName string, eventAt time.Time) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if entity == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "razorpay subscription is nil")
	}

	target.RazorpaySubscriptionID = entity.ID
	target.Status = MapRazorpayStatus(entity.Status)
	if entity.PlanID != "" {
		target.PlanKey = entity.PlanID
	}
	if entity.Quantity > 0 {
		target.Quantity = entity.Quantity
	}
	if ts := toTimePtr(entity.StartAt); ts != nil {
		target.StartAt = ts
	}
	if ts := toTimePtr(entity.CurrentEnd); ts != nil {
		target.CurrentEndAt = ts
	}
	if ts := toTimePtr(entity.ChargeAt); ts != nil {
		target.ChargeAt = ts
	}
	if eventName != "" {
		target.LastEventName = eventName
	}
	if !eventAt.IsZero() {
		at := eventAt.UTC()
		target.LastEventAt = &at
	}
	return nil
}

// MapRazorpayStatus normalizes the gateway's status string onto the canonical
// enum. Unknown values land on pending: non-terminal but never usable.
func MapRazorpayStatus(raw string) enums.SubscriptionStatus {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return enums.SubscriptionStatusPending
	}
	if mapped, ok := razorpayStatusAliases[normalized]; ok {
		return mapped
	}
	if parsed, err := enums.ParseSubscriptionStatus(normalized); err == nil {
		return parsed
	}
	return enums.SubscriptionStatusPending
}

var razorpayStatusAliases = map[string]enums.SubscriptionStatus{
	"canceled": enums.SubscriptionStatusCancelled,
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
