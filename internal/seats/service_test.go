package seats

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubBillingRepo struct {
	billing.Repository

	subscription *models.Subscription
	seats        map[uuid.UUID]*models.BillingSeat
	upserted     []*models.BillingSeat
}

func (s *stubBillingRepo) WithTx(tx *gorm.DB) billing.Repository { return s }

func (s *stubBillingRepo) FindSubscriptionByEducator(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error) {
	return s.subscription, nil
}

func (s *stubBillingRepo) FindSubscriptionByEducatorForUpdate(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error) {
	return s.subscription, nil
}

func (s *stubBillingRepo) FindSeat(ctx context.Context, educatorID, studentID uuid.UUID) (*models.BillingSeat, error) {
	if seat, ok := s.seats[studentID]; ok {
		return seat, nil
	}
	return nil, nil
}

func (s *stubBillingRepo) UpsertSeat(ctx context.Context, seat *models.BillingSeat) error {
	if s.seats == nil {
		s.seats = map[uuid.UUID]*models.BillingSeat{}
	}
	s.seats[seat.StudentID] = seat
	s.upserted = append(s.upserted, seat)
	return nil
}

func (s *stubBillingRepo) CountActiveSeats(ctx context.Context, educatorID uuid.UUID) (int64, error) {
	var used int64
	for _, seat := range s.seats {
		if seat.Status == enums.SeatStatusActive {
			used++
		}
	}
	return used, nil
}

func (s *stubBillingRepo) ListSeats(ctx context.Context, educatorID uuid.UUID) ([]models.BillingSeat, error) {
	rows := make([]models.BillingSeat, 0, len(s.seats))
	for _, seat := range s.seats {
		rows = append(rows, *seat)
	}
	return rows, nil
}

type stubRoster struct {
	students map[uuid.UUID]uuid.UUID
}

func (s *stubRoster) FindForEducator(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error) {
	if owner, ok := s.students[studentID]; ok && owner == educatorID {
		return &models.Student{ID: studentID, EducatorID: educatorID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func activeSubscription(educatorID uuid.UUID, quantity int) *models.Subscription {
	return &models.Subscription{
		ID:         uuid.New(),
		EducatorID: educatorID,
		Status:     enums.SubscriptionStatusActive,
		Quantity:   quantity,
	}
}

func newTestService(t *testing.T, repo *stubBillingRepo, roster *stubRoster) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(stubTxRunner{}, repo, roster, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAssignSeat(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()
	adminID := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 2)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: educatorID}}
	svc := newTestService(t, repo, roster)

	result, err := svc.AssignSeat(context.Background(), educatorID, studentID, adminID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if result.AlreadyAssigned {
		t.Fatal("expected fresh assignment")
	}
	if result.UsedSeats != 1 || result.TotalSeats != 2 {
		t.Fatalf("expected usage 1/2, got %d/%d", result.UsedSeats, result.TotalSeats)
	}
	if result.Seat.Status != enums.SeatStatusActive {
		t.Fatalf("expected active seat, got %s", result.Seat.Status)
	}
	if result.Seat.AssignedBy == nil || *result.Seat.AssignedBy != adminID {
		t.Fatal("expected assigned_by recorded")
	}
}

func TestAssignSeatIsIdempotent(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 1)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: educatorID}}
	svc := newTestService(t, repo, roster)

	if _, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New()); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	result, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New())
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if !result.AlreadyAssigned {
		t.Fatal("expected already-assigned outcome")
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected a single seat write, got %d", len(repo.upserted))
	}
}

func TestAssignSeatRejectsWhenFull(t *testing.T) {
	educatorID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 1)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{
		first:  educatorID,
		second: educatorID,
	}}
	svc := newTestService(t, repo, roster)

	if _, err := svc.AssignSeat(context.Background(), educatorID, first, uuid.New()); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := svc.AssignSeat(context.Background(), educatorID, second, uuid.New())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeSeatLimit {
		t.Fatalf("expected seat limit error, got %v", err)
	}
}

func TestAssignSeatRequiresUsableSubscription(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: educatorID}}

	cases := []struct {
		name string
		sub  *models.Subscription
		want pkgerrors.Code
	}{
		{name: "no subscription", sub: nil, want: pkgerrors.CodeForbidden},
		{
			name: "halted subscription",
			sub: &models.Subscription{
				EducatorID: educatorID,
				Status:     enums.SubscriptionStatusHalted,
				Quantity:   5,
			},
			want: pkgerrors.CodeForbidden,
		},
		{
			name: "zero quantity",
			sub: &models.Subscription{
				EducatorID: educatorID,
				Status:     enums.SubscriptionStatusActive,
			},
			want: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubBillingRepo{subscription: tc.sub}
			svc := newTestService(t, repo, roster)

			_, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New())
			domainErr := pkgerrors.As(err)
			if domainErr == nil || domainErr.Code() != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestAssignSeatRejectsForeignStudent(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 3)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: uuid.New()}}
	svc := newTestService(t, repo, roster)

	_, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Fatal("expected no seat write")
	}
}

func TestRevokeSeat(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 1)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: educatorID}}
	svc := newTestService(t, repo, roster)

	if _, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New()); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if err := svc.RevokeSeat(context.Background(), educatorID, studentID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	seat := repo.seats[studentID]
	if seat.Status != enums.SeatStatusRevoked {
		t.Fatalf("expected revoked, got %s", seat.Status)
	}
	if seat.RevokedAt == nil {
		t.Fatal("expected revoked_at set")
	}

	// Revoking again is a no-op.
	writes := len(repo.upserted)
	if err := svc.RevokeSeat(context.Background(), educatorID, studentID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if len(repo.upserted) != writes {
		t.Fatal("expected no additional seat write")
	}

	err := svc.RevokeSeat(context.Background(), educatorID, uuid.New())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRevokedSeatCanBeReassigned(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()

	repo := &stubBillingRepo{subscription: activeSubscription(educatorID, 1)}
	roster := &stubRoster{students: map[uuid.UUID]uuid.UUID{studentID: educatorID}}
	svc := newTestService(t, repo, roster)

	if _, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New()); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := svc.RevokeSeat(context.Background(), educatorID, studentID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	result, err := svc.AssignSeat(context.Background(), educatorID, studentID, uuid.New())
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if result.AlreadyAssigned {
		t.Fatal("expected reassignment, not no-op")
	}
	if result.Seat.Status != enums.SeatStatusActive {
		t.Fatalf("expected active seat, got %s", result.Seat.Status)
	}
	if result.Seat.RevokedAt != nil {
		t.Fatal("expected revoked_at cleared")
	}
}

func TestListSeatsReportsUsage(t *testing.T) {
	educatorID := uuid.New()
	studentID := uuid.New()
	now := time.Now().UTC()

	repo := &stubBillingRepo{
		subscription: activeSubscription(educatorID, 4),
		seats: map[uuid.UUID]*models.BillingSeat{
			studentID: {
				EducatorID: educatorID,
				StudentID:  studentID,
				Status:     enums.SeatStatusActive,
				AssignedAt: &now,
			},
		},
	}
	svc := newTestService(t, repo, &stubRoster{})

	result, err := svc.ListSeats(context.Background(), educatorID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Seats) != 1 {
		t.Fatalf("expected 1 seat, got %d", len(result.Seats))
	}
	if result.Usage.UsedSeats != 1 || result.Usage.TotalSeats != 4 {
		t.Fatalf("expected usage 1/4, got %d/%d", result.Usage.UsedSeats, result.Usage.TotalSeats)
	}
}
