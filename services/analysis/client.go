package analysis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/logger"
	apperrors "sjsage522/dealscout/pkg/errors"
	"sjsage522/dealscout/services/cache"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	maxTokens   = 1000
	temperature = 0.7
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint sends every request to url instead of the provider's
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithCache stores answers for ttl
func WithCache(svc cache.CacheService, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		c.cacheTTL = ttl
	}
}

// WithRateLimit allows at most perMinute calls per minute
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

// Client calls a chat completion API
type Client struct {
	settings Settings
	http     *http.Client
	endpoint string
	limiter  *rate.Limiter
	cache    cache.CacheService
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewClient creates a client; timeout bounds each HTTP call
func NewClient(settings Settings, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logger.ForAnalysis(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the settings the client was built with
func (c *Client) Settings() Settings {
	return c.settings
}

// Analyze returns the model's opinion of rec
func (c *Client) Analyze(ctx context.Context, rec *listing.Record) (string, error) {
	ep, err := c.settings.Resolve()
	if err != nil {
		return "", err
	}
	if rec == nil || len(listing.DisplayFields(rec)) == 0 {
		return "", apperrors.NewValidation("analysis", "no listing data to analyze")
	}
	if c.endpoint != "" {
		ep.URL = c.endpoint
	}

	prompt := BuildPrompt(rec)
	key := cache.AnalysisKey(digest(ep.Model, prompt))
	if c.cache != nil {
		if cached, err := c.cache.Get(key); err == nil && len(cached) > 0 {
			c.log.Debug().Str("key", key).Msg("Analysis served from cache")
			return string(cached), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", apperrors.NewAnalysis(string(c.settings.Provider), "throttled", err)
		}
	}

	text, err := c.complete(ctx, ep, prompt)
	if err != nil {
		return "", err
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(key, []byte(text), c.cacheTTL); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache analysis")
		}
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, ep Endpoint, prompt string) (string, error) {
	source := ep.Model
	body, err := json.Marshal(chatRequest{
		Model: ep.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", apperrors.NewAnalysis(source, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewAnalysis(source, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.NewNetwork(source, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", apperrors.NewAnalysis(source, fmt.Sprintf("API hatası: %d", resp.StatusCode), nil)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.NewAnalysis(source, "decode response", err)
	}
	if len(out.Choices) == 0 {
		return "", apperrors.NewAnalysis(source, "empty response", nil)
	}

	c.log.Info().Str("model", ep.Model).Int("length", len(out.Choices[0].Message.Content)).Msg("Analysis received")
	return out.Choices[0].Message.Content, nil
}

func digest(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
