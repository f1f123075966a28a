package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"

	defaultTimeout = 30 * time.Second
	probePrompt    = "ping"
	probeMaxTokens = 8
	listPageSize   = 100
)

// modelService is the part of genai.Models the package relies on.
type modelService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	List(ctx context.Context, config *genai.ListModelsConfig) (genai.Page[genai.Model], error)
}

type ClientConfig struct {
	APIKey string
	// BaseURL overrides the public Gemini API endpoint.
	BaseURL string
	Timeout time.Duration
}

// Client wraps the Google GenAI client for the Gemini API backend.
type Client struct {
	models modelService
	logger *zap.Logger
}

// NewClient creates a Client. Every request it issues is bounded by cfg.Timeout.
func NewClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{models: client.Models, logger: logger}, nil
}

// Probe issues a minimal generation request against model to check that it
// exists and that the key still has quota for it.
func (c *Client) Probe(ctx context.Context, model string) error {
	_, err := c.models.GenerateContent(ctx, model, genai.Text(probePrompt), &genai.GenerateContentConfig{
		MaxOutputTokens: probeMaxTokens,
	})
	return err
}
