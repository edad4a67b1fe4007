package enums

import "fmt"

// SubscriptionStatus mirrors the payment gateway's subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusCreated       SubscriptionStatus = "created"
	SubscriptionStatusAuthenticated SubscriptionStatus = "authenticated"
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusPending       SubscriptionStatus = "pending"
	SubscriptionStatusHalted        SubscriptionStatus = "halted"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted     SubscriptionStatus = "completed"
	SubscriptionStatusExpired       SubscriptionStatus = "expired"
	SubscriptionStatusPaused        SubscriptionStatus = "paused"
)

var knownSubscriptionStatuses = map[SubscriptionStatus]struct{}{
	SubscriptionStatusCreated:       {},
	SubscriptionStatusAuthenticated: {},
	SubscriptionStatusActive:        {},
	SubscriptionStatusPending:       {},
	SubscriptionStatusHalted:        {},
	SubscriptionStatusCancelled:     {},
	SubscriptionStatusCompleted:     {},
	SubscriptionStatusExpired:       {},
	SubscriptionStatusPaused:        {},
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known gateway status.
func (s SubscriptionStatus) IsValid() bool {
	_, ok := knownSubscriptionStatuses[s]
	return ok
}

// ParseSubscriptionStatus converts raw gateway input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown subscription status %q", value)
	}
	return status, nil
}
