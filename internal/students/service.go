package students

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/pkg/db/models"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	pkgpagination "github.com/univlive/univlive-backend/pkg/pagination"
)

type studentsRepository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	FindForEducator(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error)
	List(ctx context.Context, opts listQuery) ([]models.Student, error)
}

// Service exposes roster creation and listing semantics.
type Service interface {
	CreateStudent(ctx context.Context, educatorID uuid.UUID, input CreateStudentInput) (*models.Student, error)
	GetStudent(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error)
	ListStudents(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo studentsRepository
}

// NewService builds a roster service backed by the provided repository.
func NewService(repo studentsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("students repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateStudent(ctx context.Context, educatorID uuid.UUID, input CreateStudentInput) (*models.Student, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	student := &models.Student{
		EducatorID: educatorID,
		Name:       name,
		Email:      input.Email,
		Phone:      input.Phone,
		EnrolledAt: time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create student")
	}
	return created, nil
}

func (s *service) GetStudent(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error) {
	if educatorID == uuid.Nil || studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id is required")
	}
	student, err := s.repo.FindForEducator(ctx, educatorID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup student")
	}
	return student, nil
}

func (s *service) ListStudents(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.EducatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		educatorID: params.EducatorID,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list students")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}
