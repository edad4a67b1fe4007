package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/univlive/univlive-backend/api/responses"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
	pkgredis "github.com/univlive/univlive-backend/pkg/redis"
)

const (
	rosterIdempotencyTTL = 24 * time.Hour
	moneyIdempotencyTTL  = 7 * 24 * time.Hour
)

// idempotentRoutes maps "METHOD pattern" to the retention window for its
// replay records. Money-movement routes keep records for a week; roster
// mutations for a day.
var idempotentRoutes = map[string]time.Duration{
	"POST /api/v1/auth/register":          rosterIdempotencyTTL,
	"POST /api/v1/students":               rosterIdempotencyTTL,
	"POST /api/v1/seats/assign":           rosterIdempotencyTTL,
	"POST /api/v1/seats/revoke":           rosterIdempotencyTTL,
	"POST /api/v1/billing/subscribe":      moneyIdempotencyTTL,
	"POST /api/v1/billing/verify-payment": moneyIdempotencyTTL,
	"POST /api/v1/billing/cancel":         moneyIdempotencyTTL,
}

// replayRecord is the stored outcome of a completed request, replayed to the
// caller when the same Idempotency-Key arrives again.
type replayRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays the first response for any repeated Idempotency-Key on
// the routes listed above. A repeat with a different body is rejected rather
// than replayed.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guard := &idempotencyGuard{store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := routeTTL(r.Method, routePattern(r))
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			guard.serve(w, r, next, ttl)
		})
	}
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) {
	ctx := r.Context()

	clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if clientKey == "" {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	digest := requestDigest(body)
	storeKey := g.store.IdempotencyKey(callerScope(r), clientKey)

	done, err := g.tryReplay(ctx, w, storeKey, digest)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, err)
		return
	}
	if done {
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)
	g.persist(ctx, storeKey, digest, capture, ttl)
}

// tryReplay serves a stored outcome when one exists. It returns done=true
// once a response (replay or conflict) has been written.
func (g *idempotencyGuard) tryReplay(ctx context.Context, w http.ResponseWriter, storeKey, digest string) (bool, error) {
	stored, err := g.store.Get(ctx, storeKey)
	if errors.Is(err, redis.Nil) || (err == nil && stored == "") {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	if record.RequestHash != digest {
		return false, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	}

	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
	return true, nil
}

// persist stores the captured response. Failures here only lose replay
// protection for this key; the caller already has their response.
func (g *idempotencyGuard) persist(ctx context.Context, storeKey, digest string, capture *responseCapture, ttl time.Duration) {
	record := replayRecord{
		Status:      normalizeStatus(capture.status),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: digest,
	}
	if ct := capture.Header().Get("Content-Type"); ct != "" {
		record.Headers = map[string]string{"Content-Type": ct}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		g.logError(ctx, "marshal idempotency record", err)
		return
	}
	if _, err := g.store.SetNX(ctx, storeKey, string(payload), ttl); err != nil {
		g.logError(ctx, "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg == nil || err == nil {
		return
	}
	g.logg.Error(ctx, msg, err)
}

// callerScope isolates replay records per caller so two users sending the
// same key never collide. Anonymous routes fall back to method+path alone.
func callerScope(r *http.Request) string {
	parts := []string{
		UserIDFromContext(r.Context()),
		EducatorIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}
	return strings.Join(parts, "|")
}

func requestDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func normalizeStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

// routePattern prefers the chi route pattern so path params do not fragment
// the replay scope.
func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

// responseCapture tees the handler's response so it can be stored for replay.
type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
