package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/internal/auth"
	pkgAuth "github.com/univlive/univlive-backend/pkg/auth"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/enums"
	"github.com/univlive/univlive-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubAuthService struct {
	registered *auth.RegisterInput
	loggedIn   *auth.LoginInput
	refreshed  bool
	revokedJTI string
	result     *auth.AuthResult
	err        error
}

func (s *stubAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
	s.registered = &input
	return s.result, s.err
}

func (s *stubAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error) {
	s.loggedIn = &input
	return s.result, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.AuthResult, error) {
	s.refreshed = true
	return s.result, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, jti string) error {
	s.revokedJTI = jti
	return s.err
}

func TestAuthRegisterSuccess(t *testing.T) {
	svc := &stubAuthService{result: &auth.AuthResult{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         auth.UserInfo{ID: uuid.New(), Email: "owner@acme.test"},
	}}
	handler := AuthRegister(svc, testLogger())

	body, _ := json.Marshal(map[string]string{
		"email":          "owner@acme.test",
		"password":       "super-secret",
		"name":           "Asha",
		"institute_name": "Acme Coaching",
		"slug":           "acme",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.registered == nil || svc.registered.Slug != "acme" {
		t.Fatalf("unexpected register input: %+v", svc.registered)
	}
	var envelope struct {
		Data auth.AuthResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.AccessToken != "access" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestAuthRegisterRejectsInvalidBody(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthRegister(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if svc.registered != nil {
		t.Fatal("service should not be invoked on invalid body")
	}
}

func TestAuthLoginForwardsCredentials(t *testing.T) {
	svc := &stubAuthService{result: &auth.AuthResult{AccessToken: "access"}}
	handler := AuthLogin(svc, testLogger())

	body, _ := json.Marshal(map[string]string{"email": "owner@acme.test", "password": "super-secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if svc.loggedIn == nil || svc.loggedIn.Email != "owner@acme.test" {
		t.Fatalf("unexpected login input: %+v", svc.loggedIn)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthRefresh(svc, testLogger())

	body, _ := json.Marshal(map[string]string{"refresh_token": "refresh"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if svc.refreshed {
		t.Fatal("service should not be invoked without bearer token")
	}
}

func TestAuthRefreshForwardsTokens(t *testing.T) {
	svc := &stubAuthService{result: &auth.AuthResult{AccessToken: "new-access"}}
	handler := AuthRefresh(svc, testLogger())

	body, _ := json.Marshal(map[string]string{"refresh_token": "refresh"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer stale-access")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.refreshed {
		t.Fatal("expected refresh to be invoked")
	}
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	jti := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleEducator,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := &stubAuthService{}
	handler := AuthLogout(svc, cfg, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.revokedJTI != jti {
		t.Fatalf("expected jti %s revoked, got %s", jti, svc.revokedJTI)
	}
}
