package enums

import "fmt"

// SeatStatus tracks the lifecycle of a billing seat.
type SeatStatus string

const (
	SeatStatusActive  SeatStatus = "active"
	SeatStatusRevoked SeatStatus = "revoked"
)

var validSeatStatuses = []SeatStatus{
	SeatStatusActive,
	SeatStatusRevoked,
}

func (s SeatStatus) String() string {
	return string(s)
}

func (s SeatStatus) IsValid() bool {
	for _, candidate := range validSeatStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSeatStatus converts raw input into a SeatStatus.
func ParseSeatStatus(value string) (SeatStatus, error) {
	for _, candidate := range validSeatStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seat status %q", value)
}
