package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Educator represents the canonical tenant model: one coaching institute with
// its own subdomain storefront and student base.
type Educator struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug          string         `gorm:"column:slug;not null;uniqueIndex"`
	InstituteName string         `gorm:"column:institute_name;not null"`
	Tagline       *string        `gorm:"column:tagline"`
	Email         *string        `gorm:"column:email"`
	Phone         *string        `gorm:"column:phone"`
	Subjects      pq.StringArray `gorm:"column:subjects;type:text[]"`
	LogoURL       *string        `gorm:"column:logo_url"`
	BannerURL     *string        `gorm:"column:banner_url"`
	ThemeColor    *string        `gorm:"column:theme_color"`
	OwnerID       uuid.UUID      `gorm:"column:owner_id;type:uuid;not null"`
	LastActiveAt  *time.Time     `gorm:"column:last_active_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
