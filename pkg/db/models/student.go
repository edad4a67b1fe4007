package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is one roster entry under an educator. Seat assignment requires the
// student to exist here first.
type Student struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EducatorID uuid.UUID  `gorm:"column:educator_id;type:uuid;not null;index"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	Name       string     `gorm:"column:name;not null"`
	Email      *string    `gorm:"column:email"`
	Phone      *string    `gorm:"column:phone"`
	EnrolledAt time.Time  `gorm:"column:enrolled_at;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
