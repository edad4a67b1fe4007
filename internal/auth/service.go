package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/internal/tenants"
	"github.com/univlive/univlive-backend/internal/users"
	pkgauth "github.com/univlive/univlive-backend/pkg/auth"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	"github.com/univlive/univlive-backend/pkg/security"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])?$`)

// slugs that would collide with platform hostnames or routes
var reservedSlugs = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true,
	"mail": true, "static": true, "assets": true, "status": true,
}

type userStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type educatorStore interface {
	Create(ctx context.Context, dto tenants.CreateEducatorDTO) (*models.Educator, error)
	FindBySlug(ctx context.Context, slug string) (*models.Educator, error)
}

type txStores interface {
	Users() userStore
	Educators() educatorStore
	WithTx(ctx context.Context, fn func(users userStore, educators educatorStore) error) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type dbRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Stores bundles the repositories auth needs with transaction binding.
type Stores struct {
	db        dbRunner
	users     *users.Repository
	educators *tenants.Repository
}

// NewStores wires the concrete repositories behind the auth store surface.
func NewStores(db dbRunner, usersRepo *users.Repository, educatorsRepo *tenants.Repository) (*Stores, error) {
	if db == nil || usersRepo == nil || educatorsRepo == nil {
		return nil, fmt.Errorf("db, users repository, and educators repository are required")
	}
	return &Stores{db: db, users: usersRepo, educators: educatorsRepo}, nil
}

func (s *Stores) Users() userStore         { return s.users }
func (s *Stores) Educators() educatorStore { return s.educators }

func (s *Stores) WithTx(ctx context.Context, fn func(users userStore, educators educatorStore) error) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.users.WithTx(tx), s.educators.WithTx(tx))
	})
}

// Service implements credential auth for the platform: educator sign-up,
// login, refresh rotation, and logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, jti string) error
}

type service struct {
	stores   txStores
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwdCfg   config.PasswordConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(stores txStores, sessions sessionManager, jwtCfg config.JWTConfig, pwdCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if stores == nil {
		return nil, fmt.Errorf("stores required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		stores:   stores,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwdCfg:   pwdCfg,
		logger:   logg,
		now:      time.Now,
	}, nil
}

// Register creates the educator tenant and its owning user atomically, then
// issues a token pair.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := users.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	institute := strings.TrimSpace(input.InstituteName)
	if name == "" || institute == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and institute name are required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits, or hyphens")
	}
	if reservedSlugs[slug] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "this slug is reserved")
	}

	if existing, err := s.stores.Users().FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken, err := s.stores.Educators().FindBySlug(ctx, slug); err == nil && taken != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "this slug is already taken")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}

	hash, err := security.HashPassword(input.Password, s.pwdCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.stores.WithTx(ctx, func(userStore userStore, educatorStore educatorStore) error {
		created, err := userStore.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Phone:        input.Phone,
			Role:         enums.UserRoleEducator,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		educator, err := educatorStore.Create(ctx, tenants.CreateEducatorDTO{
			Slug:          slug,
			InstituteName: institute,
			Email:         &email,
			Phone:         input.Phone,
			OwnerID:       created.ID,
		})
		if err != nil {
			return err
		}
		created.EducatorID = &educator.ID
		if err := userStore.Update(ctx, created); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	s.logger.Info(s.logger.WithField(ctx, "user_id", user.ID.String()), "educator registered")
	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password return the same error.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := users.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	invalidCredentials := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")

	user, err := s.stores.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		s.logger.Warn(s.logger.WithField(ctx, "user_id", user.ID.String()), "failed login attempt")
		return nil, invalidCredentials
	}

	if err := s.stores.Users().TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Error(ctx, "touch last login", err)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token and issues a fresh pair. The access token
// may be expired; its signature and jti still have to check out.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens are required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newJTI, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.stores.Users().FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		EducatorID: user.EducatorID,
		Role:       user.Role,
		JTI:        newJTI,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &AuthResult{
		AccessToken:  token,
		RefreshToken: newRefresh,
		User:         toUserInfo(user),
	}, nil
}

// Logout revokes the session tied to the token's jti. Idempotent.
func (s *service) Logout(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, jti); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	jti := session.NewAccessID()

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		EducatorID: user.EducatorID,
		Role:       user.Role,
		JTI:        jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, jti)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &AuthResult{
		AccessToken:  token,
		RefreshToken: refresh,
		User:         toUserInfo(user),
	}, nil
}
