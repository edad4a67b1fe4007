package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
)

func queryFault(message string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ParseQueryInt reads an integer query parameter, falling back to defaultVal
// when the parameter is absent. Values outside [min, max] are rejected.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}

	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, queryFault("query parameter must be numeric", map[string]any{"field": key})
	case value < min, value > max:
		return 0, queryFault("query parameter out of range", map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// SanitizeString trims whitespace and caps the result at maxLen bytes. A
// non-positive maxLen means unbounded.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return trimmed
}
