// Package services loads records from the store, runs the wellness
// computations over them and keeps the derived-result cache coherent.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store store.Store
	Gen   generative.Completer
	Cache cache.Cache
	Now   func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}

// optional turns ErrNotFound into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// cached serves key from c or computes, stores and returns a fresh value.
// Cache failures are logged and never surface to the caller.
func cached[T any](ctx context.Context, c cache.Cache, key string, compute func() (T, error)) (T, error) {
	var v T
	if ok, err := c.GetInto(ctx, key, &v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache read failed")
	} else if ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}
