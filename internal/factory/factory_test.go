package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/config"
	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/store"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "nested", "sakina.db")

	st, closeFn, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	u, err := st.Users().Create(context.Background(), store.NewUser("u1", ""))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestNewStore_Errors(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "postgres"
	_, _, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	cfg.DBDriver = "mysql"
	_, _, err = NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewGenerator_WithoutKeyFailsSoft(t *testing.T) {
	cfg := config.NewForTesting()
	g := NewGenerator(context.Background(), cfg, zerolog.Nop())

	_, err := g.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, generative.ErrGeneration)
}
