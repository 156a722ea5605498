package validate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/outbreak-atlas/atlas-server/internal/apperr"
)

// Float parses an optional numeric query parameter.
func Float(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.BadRequest("%s must be a number", key)
	}
	return &f, nil
}

// Bool parses an optional true/false query parameter.
func Bool(q url.Values, key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(q.Get(key)))
	switch raw {
	case "":
		return nil, nil
	case "true":
		b := true
		return &b, nil
	case "false":
		b := false
		return &b, nil
	}
	return nil, apperr.BadRequest("%s must be true or false", key)
}

// PositiveInt parses an optional positive integer query parameter, returning
// def when it is absent and capping it at max when max > 0.
func PositiveInt(q url.Values, key string, def, max int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", key)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

// ID parses a numeric path parameter.
func ID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.BadRequest("%s must be a positive integer", name)
	}
	return id, nil
}
