package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/univlive/univlive-backend/pkg/config"
	redisclient "github.com/univlive/univlive-backend/pkg/redis"
)

const refreshTokenLen = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Manager owns the refresh side of a login session. Each access token's jti
// maps to exactly one refresh token in redis; rotating or revoking that slot
// is what ends the session.
type Manager struct {
	sessions sessionStore
	ttl      time.Duration
}

// AccessSessionChecker is the read-only view the auth middleware consumes.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager validates the TTL relationship between the two token kinds
// before wiring the manager to redis. A refresh token that outlives nothing
// would make Rotate pointless.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("session manager needs a redis client")
	}
	refreshTTL := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case refreshTTL <= 0:
		return nil, fmt.Errorf("refresh token ttl must be greater than zero")
	case refreshTTL <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}
	return &Manager{sessions: client, ttl: refreshTTL}, nil
}

func requireAccessID(accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return nil
}

// Generate mints a fresh refresh token for accessID and stores it under the
// session key.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if err := requireAccessID(accessID); err != nil {
		return "", err
	}
	return m.openSlot(ctx, accessID)
}

// openSlot writes a brand new refresh token into the session slot.
func (m *Manager) openSlot(ctx context.Context, accessID string) (string, error) {
	token, err := mintRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.sessions.Set(ctx, m.sessions.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the presented refresh token against the stored one in
// constant time, then swaps the session to a new access id and refresh token
// and deletes the old slot.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, presented string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(presented) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	oldKey := m.sessions.AccessSessionKey(oldAccessID)
	stored, err := m.sessions.Get(ctx, oldKey)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	accessID := NewAccessID()
	token, err := m.openSlot(ctx, accessID)
	if err != nil {
		return "", "", err
	}
	if err := m.sessions.Del(ctx, oldKey); err != nil {
		return "", "", err
	}
	return accessID, token, nil
}

// Revoke ends the session for accessID. Used by logout.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if err := requireAccessID(accessID); err != nil {
		return err
	}
	return m.sessions.Del(ctx, m.sessions.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live refresh slot. A
// revoked or rotated session turns the bearer token into a dead credential
// even before it expires.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if err := requireAccessID(accessID); err != nil {
		return false, err
	}
	_, err := m.sessions.Get(ctx, m.sessions.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redislib.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// NewAccessID returns the identifier shared by the JWT jti claim and the
// redis session key.
func NewAccessID() string {
	return uuid.NewString()
}

func mintRefreshToken() (string, error) {
	raw := make([]byte, refreshTokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
