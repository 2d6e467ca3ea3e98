// Package gemini implements generative.Completer against the Gemini REST API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/sakina-app/sakina-server/internal/generative"
)

// Config controls the client. Zero values get sensible defaults.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration // per attempt
	MaxRetries int           // retries after the first attempt
	RPS        float64       // process-wide request rate; <=0 means unlimited
	Backoff    time.Duration // initial retry interval
}

// Client calls models/{model}:generateContent.
type Client struct {
	http    *resty.Client
	cfg     Config
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New constructs a Client.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = int(cfg.RPS) + 1
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{http: c, cfg: cfg, limiter: rate.NewLimiter(limit, burst), log: log}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Complete sends prompt and returns the first candidate's text. Every
// failure is reported as generative.ErrGeneration.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		requestsTotal.WithLabelValues("unconfigured").Inc()
		return "", fmt.Errorf("%w: gemini api key not configured", generative.ErrGeneration)
	}

	start := time.Now()
	var text string
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		out, err := c.generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.Backoff
	exp.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.MaxRetries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Dur("retry_in", wait).Msg("gemini call failed, retrying")
	})
	latency.Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, generative.ErrGeneration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", generative.ErrGeneration, err)
	}
	requestsTotal.WithLabelValues("ok").Inc()
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.cfg.Model))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		err := fmt.Errorf("%w: gemini status %d: %.200s", generative.ErrGeneration, status, resp.String())
		// Client errors other than throttling will not improve on retry.
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	body := gjson.ParseBytes(resp.Body())
	if msg := body.Get("error.message"); msg.Exists() {
		return "", backoff.Permanent(fmt.Errorf("%w: gemini error: %s", generative.ErrGeneration, msg.String()))
	}
	text := body.Get("candidates.0.content.parts.0.text")
	if !text.Exists() {
		reason := body.Get("promptFeedback.blockReason").String()
		return "", backoff.Permanent(fmt.Errorf("%w: gemini returned no candidates (block reason %q)", generative.ErrGeneration, reason))
	}
	return text.String(), nil
}

// HealthPing implements health.HealthPinger by fetching the model descriptor.
func (c *Client) HealthPing(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("gemini api key not configured")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		Get(fmt.Sprintf("/v1beta/models/%s", c.cfg.Model))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("gemini status %d", resp.StatusCode())
	}
	return nil
}
