package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/config"
	"github.com/sakina-app/sakina-server/internal/generative/gemini"
)

// NewGenerator creates the Gemini client from config. A missing API key is
// not fatal: every call then fails with ErrGeneration and callers fall back
// to their defaults.
func NewGenerator(ctx context.Context, cfg *config.Config, log zerolog.Logger) *gemini.Client {
	c := gemini.New(gemini.Config{
		BaseURL:    cfg.GeminiBaseURL,
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		Timeout:    cfg.GenerationTimeout(),
		MaxRetries: cfg.GenerationMaxRetries,
		RPS:        cfg.GenerationRPS,
	}, log)

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("gemini api key not set; analyses and insights use fallbacks")
		return c
	}

	// Optional async warmup; don't block startup
	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()
		if err := c.HealthPing(warmupCtx); err != nil {
			log.Warn().Err(err).Str("model", cfg.GeminiModel).Msg("generator warmup failed")
		} else {
			log.Debug().Str("model", cfg.GeminiModel).Msg("generator warmup completed")
		}
	}()
	return c
}
