// Package aichat answers free-text prompts through the OpenRouter chat
// completions API, which speaks the OpenAI wire protocol.
package aichat

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/m3rciful/superbot/core/netutil"
	"github.com/m3rciful/superbot/internal/upstream"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is a free OpenRouter model.
	DefaultModel = "z-ai/glm-4.5-air:free"
	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 2048
	// DefaultReferer identifies the calling site to OpenRouter.
	DefaultReferer = "https://yourdomain.com/"
	// DefaultTimeout bounds one completion request.
	DefaultTimeout = 90 * time.Second

	service = "aichat"
)

// Fixed replies for failed completions.
const (
	ReplyNoResponse = "Maaf, tidak ada respon dari model OpenRouter."
	replyAPIError   = "Error OpenRouter: "
	replyTransport  = "Maaf, error OpenRouter API: "
)

// Config configures the OpenRouter client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int64
	Referer    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs single-turn chat completions.
type Client struct {
	api       openai.Client
	model     string
	maxTokens int64
}

// New returns a Client. Requests are sent exactly once.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: cfg.Timeout, ResponseHeaderTimeout: cfg.Timeout})
	}

	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHeader("HTTP-Referer", cfg.Referer),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	return &Client{api: api, model: cfg.Model, maxTokens: cfg.MaxTokens}
}

// Model reports the configured model id.
func (c *Client) Model() string { return c.model }

// Chat sends prompt as a single user message and returns the first choice.
// Failures are *upstream.Error values whose UserMessage is ready to send.
func (c *Client) Chat(ctx context.Context, prompt string) (reply string, err error) {
	start := time.Now()
	defer func() { upstream.Observe(ctx, service, start, err) }()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		MaxTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) > 0 {
		if content := strings.TrimSpace(resp.Choices[0].Message.Content); content != "" {
			return resp.Choices[0].Message.Content, nil
		}
	}
	// OpenRouter reports some provider failures inside a 200 response.
	if msg := gjson.Get(resp.RawJSON(), "error.message"); msg.Exists() {
		return "", upstream.Fail(service, http.StatusOK, replyAPIError+msg.String(), errors.New(msg.String()))
	}
	return "", upstream.Fail(service, http.StatusOK, ReplyNoResponse, errors.New("no choices in response"))
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return upstream.Fail(service, apiErr.StatusCode, replyAPIError+msg, err)
	}
	return upstream.Fail(service, 0, replyTransport+transportReason(err), err)
}

// transportReason drops the request URL from net/url errors.
func transportReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	reason := strings.TrimSpace(err.Error())
	if reason == "" {
		return "Unknown error."
	}
	return reason
}
