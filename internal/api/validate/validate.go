// Package validate holds request decoding and parameter checks shared by
// the HTTP handlers. Every failure wraps model.ErrValidation.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sakina-app/sakina-server/internal/model"
)

// MaxBodyBytes caps request bodies; journal content is at most 5000 characters.
const MaxBodyBytes = 64 << 10

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// entryIDRx matches the UUIDs handed out for entries.
var entryIDRx = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}

// DecodeJSON reads a single JSON object from r into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return invalid("request body exceeds %d bytes", MaxBodyBytes)
		case errors.Is(err, io.EOF):
			return invalid("request body is required")
		default:
			return invalid("invalid JSON")
		}
	}
	if dec.More() {
		return invalid("request body must hold a single JSON object")
	}
	return nil
}

// QueryInt reads an optional integer query parameter and checks it lies in [min, max].
func QueryInt(q url.Values, name string, def, min, max int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("%s must be an integer", name)
	}
	if n < min || n > max {
		return 0, invalid("%s must be between %d and %d", name, min, max)
	}
	return n, nil
}

// EntryID checks the shape of a journal entry id path parameter.
func EntryID(v string) error {
	if !entryIDRx.MatchString(v) {
		return invalid("invalid entry id")
	}
	return nil
}

// Email accepts the empty string since identity tokens may omit it.
func Email(v string) error {
	if v == "" {
		return nil
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return invalid("invalid email")
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return invalid("%s exceeds %d characters", field, limit)
	}
	return nil
}
