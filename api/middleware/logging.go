package middleware

import (
	"net/http"
	"time"

	"github.com/univlive/univlive-backend/pkg/logger"
)

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Logging emits one line at request start and one at completion with
// status and duration attached.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			logg.Info(ctx, "request.start")

			sw := &statusWriter{ResponseWriter: w}
			begin := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.code == 0 {
				sw.code = http.StatusOK
			}
			logg.Info(logg.WithFields(ctx, map[string]any{
				"status":      sw.code,
				"duration_ms": time.Since(begin).Milliseconds(),
			}), "request.complete")
		})
	}
}
