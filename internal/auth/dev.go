package auth

import (
	"context"
	"strings"
)

const (
	// LocalDevToken is the hardcoded bearer token for local development only.
	LocalDevToken = "sk_local_sakina_dev_key"
	// DevUserID is the identity LocalDevToken resolves to.
	DevUserID = "sakina-dev"

	devTokenPrefix = "dev:"
)

// DevVerifier accepts LocalDevToken, or "dev:<user-id>" to act as any user.
type DevVerifier struct{}

func NewDevVerifier() *DevVerifier { return &DevVerifier{} }

func (DevVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == LocalDevToken {
		return &Identity{UserID: DevUserID, Email: DevUserID + "@localhost"}, nil
	}
	if id, ok := strings.CutPrefix(token, devTokenPrefix); ok && id != "" {
		return &Identity{UserID: id}, nil
	}
	return nil, ErrInvalidToken
}
