package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.0-flash-exp"
	defaultTimeout  = 120 * time.Second

	maxOutputTokens = 8192
	temperature     = 0.7
)

// Config identifies one distinct client configuration. Comparable by value:
// Acquire memoizes one client per Config.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// GeminiClient calls the Gemini generateContent API. It is stateless between
// calls and safe for concurrent use.
type GeminiClient struct {
	cfg    Config
	http   *resty.Client
	logger *zap.Logger
}

// NewGeminiClient builds a client for the given configuration. An empty API
// key is a configuration error.
func NewGeminiClient(cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfiguration)
	}

	httpClient := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &GeminiClient{cfg: cfg, http: httpClient, logger: logger}, nil
}

// -- Request/Response Structures --

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64-encoded bytes
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Analyze submits a text-only prompt and returns the model's free-form text.
func (c *GeminiClient) Analyze(ctx context.Context, prompt string) (string, error) {
	parts := []part{{Text: prompt}}
	return c.generate(ctx, parts)
}

// AnalyzeImage submits the prompt together with the raw image bytes as
// inline data and returns the model's free-form text.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	parts := []part{
		{Text: prompt},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return c.generate(ctx, parts)
}

func (c *GeminiClient) generate(ctx context.Context, parts []part) (string, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
			TopP:            0.95,
			TopK:            40,
		},
	}

	c.logger.Info("calling model",
		zap.String("model", c.cfg.Model),
		zap.Int("parts", len(parts)),
	)

	var result generateResponse
	var errResp apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(payload).
		SetResult(&result).
		SetError(&errResp).
		Post(fmt.Sprintf("/models/%s:generateContent", c.cfg.Model))
	if err != nil {
		c.logger.Error("model call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("model API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", errResp.Error.Message),
		)
		switch resp.StatusCode() {
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: %s", ErrRateLimitExceeded, errResp.Error.Message)
		case http.StatusServiceUnavailable:
			return "", fmt.Errorf("%w: %s", ErrModelUnavailable, errResp.Error.Message)
		default:
			return "", fmt.Errorf("%w: %s (status: %d)", ErrAPICallFailed, errResp.Error.Message, resp.StatusCode())
		}
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, result.PromptFeedback.BlockReason)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("model call succeeded", zap.Int("response_chars", len(text)))
	return text, nil
}
