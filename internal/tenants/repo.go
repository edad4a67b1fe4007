package tenants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/pkg/db/models"
)

// Repository handles educator persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to educator operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists a new educator row.
func (r *Repository) Create(ctx context.Context, dto CreateEducatorDTO) (*models.Educator, error) {
	educator := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(educator).Error; err != nil {
		return nil, err
	}
	return educator, nil
}

// FindByID loads an educator by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Educator, error) {
	var educator models.Educator
	if err := r.db.WithContext(ctx).First(&educator, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &educator, nil
}

// FindBySlug loads an educator by its subdomain slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Educator, error) {
	var educator models.Educator
	if err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&educator).Error; err != nil {
		return nil, err
	}
	return &educator, nil
}

// FindByOwner returns the educator owned by the provided user, if any.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Educator, error) {
	var educator models.Educator
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&educator).Error; err != nil {
		return nil, err
	}
	return &educator, nil
}

// Update saves the provided educator.
func (r *Repository) Update(ctx context.Context, educator *models.Educator) error {
	if educator == nil {
		return fmt.Errorf("educator is required")
	}
	return r.db.WithContext(ctx).Save(educator).Error
}

// TouchLastActive refreshes the educator's last_active_at timestamp.
func (r *Repository) TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Educator{}).
		Where("id = ?", id).
		UpdateColumn("last_active_at", at).Error
}
