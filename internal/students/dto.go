package students

import (
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/pkg/db/models"
	pkgpagination "github.com/univlive/univlive-backend/pkg/pagination"
)

// CreateStudentInput holds the roster data accepted from educators.
type CreateStudentInput struct {
	Name  string
	Email *string
	Phone *string
}

// ListParams configures a roster page.
type ListParams struct {
	EducatorID uuid.UUID
	pkgpagination.Params
}

// ListResult is one roster page plus the cursor for the next one.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem is the transport shape of one roster entry.
type ListItem struct {
	ID         uuid.UUID `json:"id"`
	EducatorID uuid.UUID `json:"educator_id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type listQuery struct {
	educatorID uuid.UUID
	limit      int
	cursor     *pkgpagination.Cursor
}

func toListItem(m models.Student) ListItem {
	return ListItem{
		ID:         m.ID,
		EducatorID: m.EducatorID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		EnrolledAt: m.EnrolledAt,
		CreatedAt:  m.CreatedAt,
	}
}
