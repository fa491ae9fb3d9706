// Package ai wraps the multimodal chart-analysis LLM call shared by
// the active-trade and macro-sentiment engines: send prompt text plus
// one or more chart images, get back a verdict the caller parses.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"binance-trading-bot/internal/apperr"
	"binance-trading-bot/internal/logging"

	"github.com/hashicorp/go-retryablehttp"
)

type Provider string

const (
	ProviderClaude   Provider = "claude"
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

// Config holds AI client configuration.
type Config struct {
	Enabled        bool
	Provider       Provider
	ClaudeAPIKey   string
	OpenAIAPIKey   string
	DeepSeekAPIKey string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
}

// Image is a single chart render to attach to the prompt.
type Image struct {
	PNG   []byte
	Label string
}

// Client calls a multimodal LLM provider.
type Client struct {
	cfg        Config
	httpClient *retryablehttp.Client
	log        *logging.Logger
}

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.RequestTimeout

	return &Client{cfg: cfg, httpClient: rc, log: logging.WithComponent("ai")}
}

func (c *Client) apiKey() string {
	switch c.cfg.Provider {
	case ProviderOpenAI:
		return c.cfg.OpenAIAPIKey
	case ProviderDeepSeek:
		return c.cfg.DeepSeekAPIKey
	default:
		return c.cfg.ClaudeAPIKey
	}
}

// Analyze sends systemPrompt/userPrompt plus any chart images to the
// configured provider and returns the raw completion text. The
// configured RequestTimeout is a hard wall-clock ceiling across all
// retries, not per-attempt.
func (c *Client) Analyze(ctx context.Context, systemPrompt, userPrompt string, images []Image) (string, error) {
	if !c.cfg.Enabled {
		return "", apperr.New(apperr.Fatal, "AI_DISABLED", "ai client is disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	switch c.cfg.Provider {
	case ProviderClaude:
		return c.completeClaude(ctx, systemPrompt, userPrompt, images)
	case ProviderOpenAI, ProviderDeepSeek:
		return c.completeOpenAICompatible(ctx, systemPrompt, userPrompt, images)
	default:
		return "", apperr.New(apperr.Fatal, "AI_PROVIDER_UNKNOWN", fmt.Sprintf("unsupported provider: %s", c.cfg.Provider))
	}
}

type claudeContentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *claudeImgSrc   `json:"source,omitempty"`
}

type claudeImgSrc struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system,omitempty"`
	Messages  []struct {
		Role    string                `json:"role"`
		Content []claudeContentBlock `json:"content"`
	} `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) completeClaude(ctx context.Context, systemPrompt, userPrompt string, images []Image) (string, error) {
	blocks := make([]claudeContentBlock, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, claudeContentBlock{
			Type: "image",
			Source: &claudeImgSrc{
				Type:      "base64",
				MediaType: "image/png",
				Data:      base64.StdEncoding.EncodeToString(img.PNG),
			},
		})
	}
	blocks = append(blocks, claudeContentBlock{Type: "text", Text: userPrompt})

	req := claudeRequest{Model: c.cfg.Model, MaxTokens: 2048, System: systemPrompt}
	req.Messages = []struct {
		Role    string                `json:"role"`
		Content []claudeContentBlock `json:"content"`
	}{{Role: "user", Content: blocks}}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey())
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.Transient, "AI_REQUEST_FAILED", "claude request failed", err)
	}
	defer resp.Body.Close()

	var claudeResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&claudeResp); err != nil {
		return "", apperr.Wrap(apperr.ParseError, "AI_PARSE_ERROR", "could not decode claude response", err)
	}
	if claudeResp.Error != nil {
		return "", apperr.New(apperr.Transient, "AI_REQUEST_FAILED", claudeResp.Error.Message)
	}
	if len(claudeResp.Content) == 0 {
		return "", apperr.New(apperr.ParseError, "AI_PARSE_ERROR", "empty response from claude")
	}
	return claudeResp.Content[0].Text, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content []struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url,omitempty"`
	} `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) completeOpenAICompatible(ctx context.Context, systemPrompt, userPrompt string, images []Image) (string, error) {
	userContent := make([]struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url,omitempty"`
	}, 0, len(images)+1)

	for _, img := range images {
		userContent = append(userContent, struct {
			Type     string `json:"type"`
			Text     string `json:"text,omitempty"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url,omitempty"`
		}{
			Type: "image_url",
			ImageURL: &struct {
				URL string `json:"url"`
			}{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.PNG)},
		})
	}
	userContent = append(userContent, struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url,omitempty"`
	}{Type: "text", Text: userPrompt})

	req := openAIRequest{
		Model: c.cfg.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: []struct {
				Type     string `json:"type"`
				Text     string `json:"text,omitempty"`
				ImageURL *struct {
					URL string `json:"url"`
				} `json:"image_url,omitempty"`
			}{{Type: "text", Text: systemPrompt}}},
			{Role: "user", Content: userContent},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := "https://api.openai.com/v1/chat/completions"
	if c.cfg.Provider == ProviderDeepSeek {
		url = "https://api.deepseek.com/v1/chat/completions"
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperr.Wrap(apperr.Transient, "AI_REQUEST_FAILED", "request failed", err)
	}
	defer resp.Body.Close()

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.ParseError, "AI_PARSE_ERROR", "could not decode response", err)
	}
	if out.Error != nil {
		return "", apperr.New(apperr.Transient, "AI_REQUEST_FAILED", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", apperr.New(apperr.ParseError, "AI_PARSE_ERROR", "empty response")
	}
	return out.Choices[0].Message.Content, nil
}
