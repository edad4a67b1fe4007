package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/tenants"
	pkgauth "github.com/univlive/univlive-backend/pkg/auth"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "univlive-test",
	ExpirationMinutes: 15,
}

type stubUserStore struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) Update(ctx context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := s.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type stubEducatorStore struct {
	bySlug map[string]*models.Educator
}

func newStubEducatorStore() *stubEducatorStore {
	return &stubEducatorStore{bySlug: map[string]*models.Educator{}}
}

func (s *stubEducatorStore) Create(ctx context.Context, dto tenants.CreateEducatorDTO) (*models.Educator, error) {
	educator := dto.ToModel()
	educator.ID = uuid.New()
	s.bySlug[educator.Slug] = educator
	return educator, nil
}

func (s *stubEducatorStore) FindBySlug(ctx context.Context, slug string) (*models.Educator, error) {
	if educator, ok := s.bySlug[slug]; ok {
		return educator, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubStores struct {
	users     *stubUserStore
	educators *stubEducatorStore
}

func (s *stubStores) Users() userStore         { return s.users }
func (s *stubStores) Educators() educatorStore { return s.educators }

func (s *stubStores) WithTx(ctx context.Context, fn func(users userStore, educators educatorStore) error) error {
	return fn(s.users, s.educators)
}

type stubSessions struct {
	active map[string]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{active: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.active[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.active[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.active, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.active[newID] = token
	return newID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.active, accessID)
	return nil
}

func newAuthService(t *testing.T, stores *stubStores, sessions *stubSessions) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(stores, sessions, testJWTConfig, config.PasswordConfig{}, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:         "Owner@Acme.In",
		Password:      "correct-horse",
		Name:          "Asha Rao",
		InstituteName: "Acme Coaching",
		Slug:          "acme",
	}
}

func TestRegisterCreatesUserAndTenant(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	sessions := newStubSessions()
	svc := newAuthService(t, stores, sessions)

	result, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user := stores.users.byEmail["owner@acme.in"]
	if user == nil {
		t.Fatal("expected user stored under normalized email")
	}
	if user.Role != enums.UserRoleEducator {
		t.Fatalf("expected educator role, got %s", user.Role)
	}
	if user.PasswordHash == "correct-horse" || user.PasswordHash == "" {
		t.Fatal("expected hashed password")
	}

	educator := stores.educators.bySlug["acme"]
	if educator == nil {
		t.Fatal("expected educator created")
	}
	if educator.OwnerID != user.ID {
		t.Fatal("expected educator owned by the new user")
	}
	if user.EducatorID == nil || *user.EducatorID != educator.ID {
		t.Fatal("expected user linked to educator")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleEducator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if result.RefreshToken == "" {
		t.Fatal("expected refresh token")
	}
}

func TestRegisterRejectsDuplicateEmailAndSlug(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	svc := newAuthService(t, stores, newStubSessions())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), validRegisterInput())
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	input := validRegisterInput()
	input.Email = "other@acme.in"
	_, err = svc.Register(context.Background(), input)
	domainErr = pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}

func TestRegisterValidatesSlug(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	svc := newAuthService(t, stores, newStubSessions())

	for _, slug := range []string{"", "Has Space", "has.dot", "-leading", "www", "api"} {
		input := validRegisterInput()
		input.Slug = slug
		_, err := svc.Register(context.Background(), input)
		domainErr := pkgerrors.As(err)
		if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("slug %q: expected validation error, got %v", slug, err)
		}
	}
}

func TestLogin(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	sessions := newStubSessions()
	svc := newAuthService(t, stores, sessions)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "owner@acme.in",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.Email != "owner@acme.in" {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if stores.users.byEmail["owner@acme.in"].LastLoginAt == nil {
		t.Fatal("expected last login stamped")
	}

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "owner@acme.in",
		Password: "wrong",
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Unknown email must be indistinguishable from a wrong password.
	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "nobody@acme.in",
		Password: "correct-horse",
	})
	domainErr = pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	svc := newAuthService(t, stores, newStubSessions())

	hash, err := security.HashPassword("correct-horse", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{
		Email:        "off@acme.in",
		PasswordHash: hash,
		Name:         "Off",
		Role:         enums.UserRoleEducator,
		IsActive:     false,
	}
	if _, err := stores.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: "off@acme.in", Password: "correct-horse"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	sessions := newStubSessions()
	svc := newAuthService(t, stores, sessions)

	registered, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), registered.AccessToken, registered.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == registered.AccessToken {
		t.Fatal("expected a new access token")
	}
	if refreshed.RefreshToken == registered.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// The old pair is burned.
	_, err = svc.Refresh(context.Background(), registered.AccessToken, registered.RefreshToken)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for replayed refresh, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	stores := &stubStores{users: newStubUserStore(), educators: newStubEducatorStore()}
	sessions := newStubSessions()
	svc := newAuthService(t, stores, sessions)

	registered, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig, registered.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.active[claims.ID]; ok {
		t.Fatal("expected session revoked")
	}

	_, err = svc.Refresh(context.Background(), registered.AccessToken, registered.RefreshToken)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}
