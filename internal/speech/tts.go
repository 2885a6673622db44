// Package speech synthesizes short voice notes with the Google Translate
// text-to-speech endpoint.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/superbot/core/netutil"
	"github.com/m3rciful/superbot/internal/upstream"
)

const (
	DefaultBaseURL = "https://translate.google.com"
	DefaultTimeout = 20 * time.Second

	// MaxTextLength is the longest text the endpoint accepts in one request.
	MaxTextLength = 200

	maxAudioBytes = 5 << 20
	service       = "speech"
)

// ReplyFailed is the fixed reply for every synthesis failure.
const ReplyFailed = "Gagal membuat voice note."

// ErrTextTooLong is wrapped when the text exceeds MaxTextLength runes.
var ErrTextTooLong = errors.New("speech: text too long")

// Audio is a synthesized clip.
type Audio struct {
	Data        []byte
	ContentType string
}

// Config configures the synthesizer.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client fetches TTS audio.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: cfg.Timeout})
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: httpClient}
}

// AudioURL builds the request URL for text spoken in lang.
func (c *Client) AudioURL(lang, text string) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", text)
	q.Set("tl", lang)
	q.Set("total", "1")
	q.Set("idx", "0")
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))
	q.Set("client", "tw-ob")
	q.Set("prev", "input")
	q.Set("ttsspeed", "1")
	return c.baseURL + "/translate_tts?" + q.Encode()
}

// Synthesize returns MP3 audio of text in language lang.
func (c *Client) Synthesize(ctx context.Context, lang, text string) (audio Audio, err error) {
	start := time.Now()
	defer func() {
		upstream.Observe(ctx, service, start, err, slog.String("lang", lang), slog.Int("bytes", len(audio.Data)))
	}()

	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return Audio{}, upstream.Fail(service, 0, ReplyFailed, fmt.Errorf("%w: %d > %d", ErrTextTooLong, n, MaxTextLength))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AudioURL(lang, text), nil)
	if err != nil {
		return Audio{}, upstream.Fail(service, 0, ReplyFailed, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Audio{}, upstream.Fail(service, 0, ReplyFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		body := netutil.ReadErrorBody(resp.Body, 512)
		return Audio{}, upstream.Fail(service, resp.StatusCode, ReplyFailed, errors.New(strings.TrimSpace(body)))
	}
	defer netutil.DrainAndClose(resp.Body, 4096)

	contentType := "audio/mpeg"
	if mt, _, perr := mime.ParseMediaType(resp.Header.Get("Content-Type")); perr == nil {
		if !strings.HasPrefix(mt, "audio/") {
			return Audio{}, upstream.Fail(service, resp.StatusCode, ReplyFailed, fmt.Errorf("unexpected content type %q", mt))
		}
		contentType = mt
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return Audio{}, upstream.Fail(service, resp.StatusCode, ReplyFailed, err)
	}
	if len(data) == 0 {
		return Audio{}, upstream.Fail(service, resp.StatusCode, ReplyFailed, errors.New("empty audio"))
	}
	return Audio{Data: data, ContentType: contentType}, nil
}
