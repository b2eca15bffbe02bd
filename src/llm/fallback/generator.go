package fallback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linebot_responder/src/logger"
	"linebot_responder/src/metrics"
	"linebot_responder/src/model"

	"github.com/ollama/ollama/api"
)

// ErrEmptyResponse means the service answered 200 without any generated text
var ErrEmptyResponse = errors.New("generation service returned an empty response")

// Generator asks an Ollama model for an answer when no greeting matched
type Generator struct {
	client  *api.Client
	model   string
	suffix  string
	marker  string
	apology string
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewGenerator creates a generator against the Ollama base URL
func NewGenerator(ollama model.OllamaConfig, config model.FallbackConfig, m *metrics.Metrics) (*Generator, error) {
	u, err := url.Parse(ollama.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", ollama.URL, err)
	}
	if ollama.Model == "" {
		return nil, fmt.Errorf("generation model is required")
	}
	if config.Apology == "" {
		return nil, fmt.Errorf("apology text is required")
	}

	// The per-call context deadline is the real bound; the client timeout is a backstop.
	httpClient := &http.Client{}
	if config.Timeout > 0 {
		httpClient.Timeout = config.Timeout + time.Second
	}

	return &Generator{
		client:  api.NewClient(u, httpClient),
		model:   ollama.Model,
		suffix:  config.Suffix,
		marker:  config.Marker,
		apology: config.Apology,
		timeout: config.Timeout,
		metrics: m,
	}, nil
}

// Generate sends text plus the instruction suffix to /api/generate and returns
// the marker-prefixed answer.
func (g *Generator) Generate(ctx context.Context, text string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  g.model,
		Prompt: buildPrompt(text, g.suffix),
		Stream: &stream,
	}

	var answer strings.Builder
	err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		answer.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", fmt.Errorf("generation service returned status %d: %w", statusErr.StatusCode, err)
		}
		return "", fmt.Errorf("error contacting generation service: %w", err)
	}

	if strings.TrimSpace(answer.String()) == "" {
		return "", ErrEmptyResponse
	}
	return g.marker + answer.String(), nil
}

// Reply is Generate with failures mapped to the apology text. Service errors are
// logged, never shown to the end user.
func (g *Generator) Reply(ctx context.Context, text string) string {
	start := time.Now()
	answer, err := g.Generate(ctx, text)
	if err != nil {
		g.metrics.Fallback("error")
		logger.Error().
			Err(err).
			Str("model", g.model).
			Dur("elapsed", time.Since(start)).
			Msg("fallback generation failed, sending apology")
		return g.apology
	}

	g.metrics.Fallback("ok")
	logger.Info().
		Str("model", g.model).
		Int("answer_length", len(answer)).
		Dur("elapsed", time.Since(start)).
		Msg("fallback answer generated")
	return answer
}
