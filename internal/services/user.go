package services

import (
	"context"
	"errors"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

var (
	locales = map[string]bool{"en": true, "ar": true}
	themes  = map[string]bool{"light": true, "dark": true, "system": true}
)

// UserService handles user-related operations.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// EnsureUser returns the user, creating it with default preferences on first sight.
func (s *UserService) EnsureUser(ctx context.Context, userID, email string) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	u, err = s.store.Users().Create(ctx, store.NewUser(userID, email))
	if errors.Is(err, model.ErrConflict) {
		// a concurrent request created it first
		return s.store.Users().Get(ctx, userID)
	}
	return u, err
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// UpdatePreferences applies a partial update after validating the enumerated fields.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, p model.UserPreferences) (*model.User, error) {
	if p.Locale != nil && !locales[*p.Locale] {
		return nil, invalid("locale must be one of en, ar")
	}
	if p.Theme != nil && !themes[*p.Theme] {
		return nil, invalid("theme must be one of light, dark, system")
	}
	return s.store.Users().UpdatePreferences(ctx, userID, p)
}
