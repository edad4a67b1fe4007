package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/pkg/enums"
)

// BillingSeat entitles one specific student to paid content under an
// educator's subscription. At most one row per (educator, student); revoked
// seats stay around and can be reassigned.
type BillingSeat struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EducatorID uuid.UUID        `gorm:"column:educator_id;type:uuid;not null;uniqueIndex:idx_seat_educator_student"`
	StudentID  uuid.UUID        `gorm:"column:student_id;type:uuid;not null;uniqueIndex:idx_seat_educator_student"`
	Status     enums.SeatStatus `gorm:"column:status;type:seat_status;not null"`
	AssignedAt *time.Time       `gorm:"column:assigned_at"`
	AssignedBy *uuid.UUID       `gorm:"column:assigned_by;type:uuid"`
	RevokedAt  *time.Time       `gorm:"column:revoked_at"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
