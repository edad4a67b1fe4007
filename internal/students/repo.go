package students

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/pkg/db/models"
)

// Repository exposes roster persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a students repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new roster entry.
func (r *Repository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return nil, err
	}
	return student, nil
}

// FindForEducator loads a student only if it belongs to the educator's roster.
func (r *Repository) FindForEducator(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Where("id = ? AND educator_id = ?", studentID, educatorID).
		First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns educator-scoped roster entries using cursor pagination.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Student, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("educator_id = ?", opts.educatorID)

	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Student
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
