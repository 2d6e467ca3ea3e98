package auth

import (
	"context"
	"fmt"

	"github.com/sakina-app/sakina-server/internal/config"
)

// Identity is the authenticated caller. UserID is the identity provider's subject.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// NewVerifier picks the verifier for cfg.AuthMode.
func NewVerifier(cfg *config.Config) (Verifier, error) {
	switch cfg.AuthMode {
	case "dev":
		return NewDevVerifier(), nil
	case "jwt":
		v, err := NewJWTVerifier(cfg.JWTSecret, supabaseAudience)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}
