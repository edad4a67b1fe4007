package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/internal/seats"
	"github.com/univlive/univlive-backend/pkg/db/models"
)

type stubSeatsService struct {
	assignedStudent uuid.UUID
	assignedBy      uuid.UUID
	revokedStudent  uuid.UUID
	assignRes       *seats.AssignResult
	listRes         *seats.ListResult
	err             error
}

func (s *stubSeatsService) AssignSeat(ctx context.Context, educatorID, studentID, assignedBy uuid.UUID) (*seats.AssignResult, error) {
	s.assignedStudent = studentID
	s.assignedBy = assignedBy
	return s.assignRes, s.err
}

func (s *stubSeatsService) RevokeSeat(ctx context.Context, educatorID, studentID uuid.UUID) error {
	s.revokedStudent = studentID
	return s.err
}

func (s *stubSeatsService) ListSeats(ctx context.Context, educatorID uuid.UUID) (*seats.ListResult, error) {
	return s.listRes, s.err
}

func TestSeatAssignSuccess(t *testing.T) {
	studentID := uuid.New()
	svc := &stubSeatsService{assignRes: &seats.AssignResult{
		Seat:       &models.BillingSeat{StudentID: studentID},
		UsedSeats:  4,
		TotalSeats: 10,
	}}
	handler := SeatAssign(svc, testLogger())

	body, _ := json.Marshal(map[string]string{"student_id": studentID.String()})
	req := withEducator(httptest.NewRequest(http.MethodPost, "/api/v1/seats/assign", bytes.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.assignedStudent != studentID {
		t.Fatalf("expected student %s, got %s", studentID, svc.assignedStudent)
	}
	if svc.assignedBy == uuid.Nil {
		t.Fatal("expected assigning actor forwarded from context")
	}
	var envelope struct {
		Data seats.AssignResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.UsedSeats != 4 || envelope.Data.TotalSeats != 10 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestSeatAssignRejectsMissingStudent(t *testing.T) {
	svc := &stubSeatsService{}
	handler := SeatAssign(svc, testLogger())

	req := withEducator(httptest.NewRequest(http.MethodPost, "/api/v1/seats/assign", bytes.NewReader([]byte(`{}`))), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.assignedStudent != uuid.Nil {
		t.Fatal("service should not be invoked")
	}
}

func TestSeatRevokeSuccess(t *testing.T) {
	studentID := uuid.New()
	svc := &stubSeatsService{}
	handler := SeatRevoke(svc, testLogger())

	body, _ := json.Marshal(map[string]string{"student_id": studentID.String()})
	req := withEducator(httptest.NewRequest(http.MethodPost, "/api/v1/seats/revoke", bytes.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.revokedStudent != studentID {
		t.Fatalf("expected student %s revoked, got %s", studentID, svc.revokedStudent)
	}
}

func TestSeatListSuccess(t *testing.T) {
	svc := &stubSeatsService{listRes: &seats.ListResult{
		Seats: []models.BillingSeat{},
		Usage: seats.Usage{UsedSeats: 2, TotalSeats: 5},
	}}
	handler := SeatList(svc, testLogger())

	req := withEducator(httptest.NewRequest(http.MethodGet, "/api/v1/seats", nil), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data seats.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Usage.TotalSeats != 5 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}
