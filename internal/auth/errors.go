package auth

import (
	"fmt"

	"github.com/sakina-app/sakina-server/internal/model"
)

var (
	// ErrMissingToken is returned when the request carries no bearer token.
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", model.ErrUnauthorized)

	// ErrInvalidToken is returned when a token fails verification or has expired.
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", model.ErrUnauthorized)
)
