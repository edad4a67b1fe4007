package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/internal/auth"
	"github.com/univlive/univlive-backend/internal/billing"
	"github.com/univlive/univlive-backend/internal/seats"
	"github.com/univlive/univlive-backend/internal/students"
	"github.com/univlive/univlive-backend/internal/tenants"
	pkgAuth "github.com/univlive/univlive-backend/pkg/auth"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	"github.com/univlive/univlive-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, jti string) error { return nil }

type stubTenantsService struct{}

func (stubTenantsService) Resolve(ctx context.Context, host, tenantParam string) (*tenants.ResolveResult, error) {
	return &tenants.ResolveResult{}, nil
}

func (stubTenantsService) LocalhostParam() string { return "tenant" }

type stubStudentsService struct{}

func (stubStudentsService) CreateStudent(ctx context.Context, educatorID uuid.UUID, input students.CreateStudentInput) (*models.Student, error) {
	return &models.Student{ID: uuid.New(), EducatorID: educatorID, Name: input.Name}, nil
}

func (stubStudentsService) GetStudent(ctx context.Context, educatorID, studentID uuid.UUID) (*models.Student, error) {
	return &models.Student{ID: studentID, EducatorID: educatorID}, nil
}

func (stubStudentsService) ListStudents(ctx context.Context, params students.ListParams) (*students.ListResult, error) {
	return &students.ListResult{Items: []students.ListItem{}}, nil
}

type stubBillingService struct{}

func (stubBillingService) StartSubscription(ctx context.Context, educatorID uuid.UUID, quantity int) (*billing.CheckoutSession, error) {
	return &billing.CheckoutSession{}, nil
}

func (stubBillingService) VerifyPayment(ctx context.Context, educatorID uuid.UUID, input billing.VerifyPaymentInput) (*billing.VerifyPaymentResult, error) {
	return &billing.VerifyPaymentResult{}, nil
}

func (stubBillingService) CancelSubscription(ctx context.Context, educatorID uuid.UUID, atCycleEnd bool) error {
	return nil
}

func (stubBillingService) GetSubscriptionOverview(ctx context.Context, educatorID uuid.UUID) (*billing.Overview, error) {
	return &billing.Overview{}, nil
}

func (stubBillingService) ListInvoices(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error) {
	return nil, nil
}

type stubSeatsService struct{}

func (stubSeatsService) AssignSeat(ctx context.Context, educatorID, studentID, assignedBy uuid.UUID) (*seats.AssignResult, error) {
	return &seats.AssignResult{}, nil
}

func (stubSeatsService) RevokeSeat(ctx context.Context, educatorID, studentID uuid.UUID) error {
	return nil
}

func (stubSeatsService) ListSeats(ctx context.Context, educatorID uuid.UUID) (*seats.ListResult, error) {
	return &seats.ListResult{}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) HandleEvent(ctx context.Context, body []byte, signature, eventID string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "univlive-test", ExpirationMinutes: 15},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil,
		stubSessionChecker{},
		stubAuthService{},
		stubTenantsService{},
		stubStudentsService{},
		stubBillingService{},
		stubSeatsService{},
		stubWebhookService{},
	)
}

func mintToken(t *testing.T, role enums.UserRole, educatorID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		EducatorID: educatorID,
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthAndPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/api/public/ping", "/api/public/tenants/resolve"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterReadinessReportsMissingRedis(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterWebhookIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay", nil)
	req.Header.Set("X-Razorpay-Signature", "sig")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRouterEducatorRoutesRejectStudents(t *testing.T) {
	router := newTestRouter(t)
	educatorID := uuid.New()
	token := mintToken(t, enums.UserRoleStudent, &educatorID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestRouterEducatorRoutesRejectTokenWithoutEducator(t *testing.T) {
	router := newTestRouter(t)
	token := mintToken(t, enums.UserRoleEducator, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestRouterEducatorRoutesAllowEducator(t *testing.T) {
	router := newTestRouter(t)
	educatorID := uuid.New()
	token := mintToken(t, enums.UserRoleEducator, &educatorID)

	for _, path := range []string{"/api/v1/students", "/api/v1/billing/subscription", "/api/v1/seats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterEducatorRoutesAllowAdmin(t *testing.T) {
	router := newTestRouter(t)
	educatorID := uuid.New()
	token := mintToken(t, enums.UserRoleAdmin, &educatorID)

	for _, path := range []string{"/api/v1/students", "/api/v1/billing/subscription", "/api/v1/seats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestRouterPrivatePing(t *testing.T) {
	router := newTestRouter(t)
	educatorID := uuid.New()
	token := mintToken(t, enums.UserRoleEducator, &educatorID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
