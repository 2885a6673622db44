// Package aiimage renders images from text prompts through the Hugging Face
// inference API.
package aiimage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/superbot/core/netutil"
	"github.com/m3rciful/superbot/internal/upstream"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "stabilityai/stable-diffusion-xl-base-1.0"
	DefaultTimeout = 120 * time.Second

	maxImageBytes = 20 << 20
	service       = "aiimage"
)

const (
	// ReplyUnavailable is sent when the model answers without an image.
	ReplyUnavailable = "Gagal membuat gambar AI (model limit/maintenance)."
	// ReplyFailed is sent when the request itself fails.
	ReplyFailed = "Gagal membuat gambar AI."
)

// Image is a generated picture.
type Image struct {
	Data        []byte
	ContentType string
}

// Config configures the inference client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls a text-to-image model.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// New returns a Client for cfg.Model.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: cfg.Timeout, ResponseHeaderTimeout: cfg.Timeout})
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/models/" + strings.Trim(cfg.Model, "/"),
		http:     httpClient,
	}
}

// Generate asks the model for one image matching prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (img Image, err error) {
	start := time.Now()
	defer func() {
		upstream.Observe(ctx, service, start, err)
	}()

	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return Image{}, upstream.Fail(service, 0, ReplyFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Image{}, upstream.Fail(service, 0, ReplyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, upstream.Fail(service, 0, ReplyFailed, err)
	}

	contentType := imageType(resp.Header.Get("Content-Type"))
	if resp.StatusCode != http.StatusOK || contentType == "" {
		body := netutil.ReadErrorBody(resp.Body, 1024)
		return Image{}, upstream.Fail(service, resp.StatusCode, ReplyUnavailable,
			fmt.Errorf("unexpected response %q: %s", resp.Header.Get("Content-Type"), body))
	}
	defer netutil.DrainAndClose(resp.Body, 4096)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, upstream.Fail(service, resp.StatusCode, ReplyFailed, err)
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		return Image{}, upstream.Fail(service, resp.StatusCode, ReplyUnavailable,
			fmt.Errorf("image size %d out of range", len(data)))
	}
	return Image{Data: data, ContentType: contentType}, nil
}

// imageType returns the media type when it is PNG or JPEG.
func imageType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	switch mt {
	case "image/png", "image/jpeg":
		return mt
	}
	return ""
}
