package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/api/responses"
	"github.com/univlive/univlive-backend/api/validators"
	"github.com/univlive/univlive-backend/internal/seats"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type seatRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
}

// SeatAssign puts a roster student on one of the subscription's seats.
func SeatAssign(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := userFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body seatRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AssignSeat(r.Context(), educatorID, body.StudentID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SeatRevoke frees the seat held by a roster student.
func SeatRevoke(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body seatRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RevokeSeat(r.Context(), educatorID, body.StudentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "revoked"})
	}
}

// SeatList returns the educator's seats with a usage snapshot.
func SeatList(svc seats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seats service unavailable"))
			return
		}

		educatorID, err := educatorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSeats(r.Context(), educatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
