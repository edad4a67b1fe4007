package tenants

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/univlive/univlive-backend/pkg/db/models"
)

// Storefront is the public branding payload served to tenant subdomains.
type Storefront struct {
	ID            uuid.UUID `json:"id"`
	Slug          string    `json:"slug"`
	InstituteName string    `json:"institute_name"`
	Tagline       *string   `json:"tagline,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Subjects      []string  `json:"subjects"`
	LogoURL       *string   `json:"logo_url,omitempty"`
	BannerURL     *string   `json:"banner_url,omitempty"`
	ThemeColor    *string   `json:"theme_color,omitempty"`
}

// CreateEducatorDTO holds the data required by the repo to persist a new educator.
type CreateEducatorDTO struct {
	Slug          string
	InstituteName string
	Tagline       *string
	Email         *string
	Phone         *string
	Subjects      []string
	LogoURL       *string
	BannerURL     *string
	ThemeColor    *string
	OwnerID       uuid.UUID
}

// ResolveResult wraps the outcome of a tenant resolution: Tenant is nil for
// the global site.
type ResolveResult struct {
	Tenant *Storefront `json:"tenant"`
}

func (c CreateEducatorDTO) ToModel() *models.Educator {
	subjects := c.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return &models.Educator{
		Slug:          strings.ToLower(strings.TrimSpace(c.Slug)),
		InstituteName: strings.TrimSpace(c.InstituteName),
		Tagline:       c.Tagline,
		Email:         c.Email,
		Phone:         c.Phone,
		Subjects:      pq.StringArray(subjects),
		LogoURL:       c.LogoURL,
		BannerURL:     c.BannerURL,
		ThemeColor:    c.ThemeColor,
		OwnerID:       c.OwnerID,
	}
}

func toStorefront(e *models.Educator) *Storefront {
	if e == nil {
		return nil
	}
	return &Storefront{
		ID:            e.ID,
		Slug:          e.Slug,
		InstituteName: e.InstituteName,
		Tagline:       e.Tagline,
		Email:         e.Email,
		Phone:         e.Phone,
		Subjects:      append([]string(nil), []string(e.Subjects)...),
		LogoURL:       e.LogoURL,
		BannerURL:     e.BannerURL,
		ThemeColor:    e.ThemeColor,
	}
}
