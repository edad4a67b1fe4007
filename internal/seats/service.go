package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/subscriptions"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rosterRepository interface {
	FindForEducator(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error)
}

// AssignResult reports the outcome of a seat assignment. AlreadyAssigned is
// true when the student held an active seat before this call; the call is
// still a success.
type AssignResult struct {
	Seat            *models.BillingSeat `json:"seat"`
	AlreadyAssigned bool                `json:"already_assigned"`
	UsedSeats       int64               `json:"used_seats"`
	TotalSeats      int                 `json:"total_seats"`
}

// Usage summarizes seat consumption against the subscription quantity.
type Usage struct {
	UsedSeats  int64 `json:"used_seats"`
	TotalSeats int   `json:"total_seats"`
}

// ListResult is the seat roster plus its usage snapshot.
type ListResult struct {
	Seats []models.BillingSeat `json:"seats"`
	Usage Usage                `json:"usage"`
}

// Service allocates and revokes billing seats under an educator's
// subscription.
type Service interface {
	AssignSeat(ctx context.Context, educatorID, studentID, assignedBy uuid.UUID) (*AssignResult, error)
	RevokeSeat(ctx context.Context, educatorID, studentID uuid.UUID) error
	ListSeats(ctx context.Context, educatorID uuid.UUID) (*ListResult, error)
}

type service struct {
	tx      txRunner
	billing billing.Repository
	roster  rosterRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewService builds a seat allocation service.
func NewService(tx txRunner, billingRepo billing.Repository, roster rosterRepository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if billingRepo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if roster == nil {
		return nil, fmt.Errorf("roster repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		billing: billingRepo,
		roster:  roster,
		logger:  logg,
		now:     time.Now,
	}, nil
}

// AssignSeat grants the student an active seat if the educator's subscription
// is usable and has capacity left. The subscription row is locked for the
// duration of the transaction so concurrent assignments cannot both pass the
// capacity check. Re-assigning an already active seat is a no-op.
func (s *service) AssignSeat(ctx context.Context, educatorID, studentID, assignedBy uuid.UUID) (*AssignResult, error) {
	if educatorID == uuid.Nil || studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator and student ids are required")
	}

	var result AssignResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billing.WithTx(tx)

		sub, err := repo.FindSubscriptionByEducatorForUpdate(ctx, educatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		now := s.now().UTC()
		if !subscriptions.IsUsable(sub, now) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "subscription is not usable")
		}
		if sub.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription has no seat quantity")
		}

		if _, err := s.roster.FindForEducator(ctx, educatorID, studentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "student is not in this educator's roster")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup student")
		}

		seat, err := repo.FindSeat(ctx, educatorID, studentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seat")
		}
		if seat != nil && seat.Status == enums.SeatStatusActive {
			used, err := repo.CountActiveSeats(ctx, educatorID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
			}
			result = AssignResult{
				Seat:            seat,
				AlreadyAssigned: true,
				UsedSeats:       used,
				TotalSeats:      sub.Quantity,
			}
			return nil
		}

		used, err := repo.CountActiveSeats(ctx, educatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
		}
		if used >= int64(sub.Quantity) {
			return pkgerrors.New(pkgerrors.CodeSeatLimit, "all seats are in use")
		}

		if seat == nil {
			seat = &models.BillingSeat{
				EducatorID: educatorID,
				StudentID:  studentID,
			}
		}
		seat.Status = enums.SeatStatusActive
		seat.AssignedAt = &now
		seat.AssignedBy = &assignedBy
		seat.RevokedAt = nil

		if err := repo.UpsertSeat(ctx, seat); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist seat")
		}

		result = AssignResult{
			Seat:       seat,
			UsedSeats:  used + 1,
			TotalSeats: sub.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"educator_id":      educatorID.String(),
		"student_id":       studentID.String(),
		"already_assigned": result.AlreadyAssigned,
	})
	s.logger.Info(logCtx, "seat assigned")
	return &result, nil
}

// RevokeSeat frees the student's seat. Revoking an already revoked seat is a
// no-op; revoking a seat that never existed is a not-found error.
func (s *service) RevokeSeat(ctx context.Context, educatorID, studentID uuid.UUID) error {
	if educatorID == uuid.Nil || studentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "educator and student ids are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billing.WithTx(tx)

		seat, err := repo.FindSeat(ctx, educatorID, studentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seat")
		}
		if seat == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "seat not found")
		}
		if seat.Status == enums.SeatStatusRevoked {
			return nil
		}

		now := s.now().UTC()
		seat.Status = enums.SeatStatusRevoked
		seat.RevokedAt = &now

		if err := repo.UpsertSeat(ctx, seat); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist seat")
		}

		logCtx := s.logger.WithFields(ctx, map[string]any{
			"educator_id": educatorID.String(),
			"student_id":  studentID.String(),
		})
		s.logger.Info(logCtx, "seat revoked")
		return nil
	})
}

// ListSeats returns every seat row for the educator along with the current
// usage snapshot. Quantity is zero when no subscription exists yet.
func (s *service) ListSeats(ctx context.Context, educatorID uuid.UUID) (*ListResult, error) {
	if educatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "educator identity missing")
	}

	rows, err := s.billing.ListSeats(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seats")
	}
	used, err := s.billing.CountActiveSeats(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seats")
	}

	total := 0
	sub, err := s.billing.FindSubscriptionByEducator(ctx, educatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub != nil {
		total = sub.Quantity
	}

	return &ListResult{
		Seats: rows,
		Usage: Usage{UsedSeats: used, TotalSeats: total},
	}, nil
}
