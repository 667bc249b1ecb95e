package llm

// gemini.go: cliente de Gemini para el clasificador de dependencia, sobre el
// SDK oficial. Rate limit por minuto y retries con backoff exponencial.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/alejandrodnm/polyarb/internal/ports"
)

const (
	defaultModel = "gemini-2.0-flash"

	maxRetries    = 3
	baseRetryWait = time.Second
)

// Options configura el cliente. Los ceros toman defaults; BaseURL vacío usa el
// endpoint público de la Gemini API.
type Options struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerMinute int
	RetryWait         time.Duration
}

// GeminiClient implementa ports.Completer con google.golang.org/genai.
type GeminiClient struct {
	client    *genai.Client
	model     string
	limiter   *rate.Limiter
	retryWait time.Duration
}

var _ ports.Completer = (*GeminiClient)(nil)

// NewGeminiClient crea el cliente. Falla si no hay API key.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm.NewGeminiClient: GEMINI_API_KEY is not set")
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 15
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = baseRetryWait
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: 60 * time.Second},
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("llm.NewGeminiClient: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     opts.Model,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		retryWait: opts.RetryWait,
	}, nil
}

// Complete envía el prompt y devuelve el texto del primer candidato.
// El modelo del request tiene prioridad sobre el del cliente.
func (c *GeminiClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	resp, err := c.generateWithRetry(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("llm.Complete: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("llm.Complete: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("llm.Complete: empty response")
	}
	return resp.Text(), nil
}

// generateWithRetry reintenta 429, 5xx y errores de red; otros errores de la
// API fallan en el acto.
func (c *GeminiClient) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
		}
		slog.Warn("llm request throttled or failed, retrying", "err", err, "attempt", attempt+1)
		c.sleep(ctx, attempt)
	}
	return nil, fmt.Errorf("exhausted %d retries", maxRetries)
}

func retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

func (c *GeminiClient) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
