package subscriptions

import (
	"time"

	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
)

// IsUsable reports whether the subscription currently grants access to paid
// features. active and authenticated always do. created grants a trial window
// that lapses the moment the first charge date passes; expiry is evaluated
// here on read, there is no background sweep flipping the status.
func IsUsable(sub *models.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case enums.SubscriptionStatusActive, enums.SubscriptionStatusAuthenticated:
		return true
	case enums.SubscriptionStatusCreated:
		return sub.StartAt != nil && now.Before(*sub.StartAt)
	default:
		return false
	}
}
