package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/api/responses"
	"github.com/univlive/univlive-backend/api/validators"
	"github.com/univlive/univlive-backend/internal/students"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	pkgpagination "github.com/univlive/univlive-backend/pkg/pagination"
)

type createStudentRequest struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
}

// StudentCreate adds a student to the educator's roster.
func StudentCreate(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "students service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createStudentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		student, err := svc.CreateStudent(r.Context(), educatorID, students.CreateStudentInput{
			Name:  body.Name,
			Email: body.Email,
			Phone: body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, student)
	}
}

// StudentGet fetches one roster entry scoped to the caller's educator.
func StudentGet(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "students service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid student id"))
			return
		}

		student, err := svc.GetStudent(r.Context(), educatorID, studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, student)
	}
}

// StudentList returns one roster page and the cursor for the next one.
func StudentList(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "students service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pkgpagination.DefaultLimit, 1, pkgpagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListStudents(r.Context(), students.ListParams{
			EducatorID: educatorID,
			Params:     pkgpagination.Params{Limit: limit, Cursor: cursor},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
