package netutil

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/superbot/core/buildinfo"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 15 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryBackoff      = 2 * time.Second
)

// ClientOptions tunes NewClient. Zero values select defaults; Retries stays 0
// so every request is attempted exactly once unless a caller opts in.
type ClientOptions struct {
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	Retries               int
	RetryBackoff          time.Duration
	UserAgent             string
}

// NewClient returns an HTTP client with bounded dial, TLS and header timeouts.
// Transient dial failures are retried only when opts.Retries > 0.
func NewClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = defaultResponseTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent()
	}

	var rt http.RoundTripper = newTransport(opts.ResponseHeaderTimeout)
	if opts.Retries > 0 {
		rt = &retryTransport{base: rt, maxRetries: opts.Retries, backoff: opts.RetryBackoff}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{base: rt, userAgent: opts.UserAgent},
	}
}

func newTransport(headerTimeout time.Duration) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext
	tr.MaxIdleConnsPerHost = 10
	tr.IdleConnTimeout = defaultIdleConnTimeout
	tr.TLSHandshakeTimeout = defaultTLSHandshake
	tr.ResponseHeaderTimeout = headerTimeout
	return tr
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// retryTransport repeats requests that failed with ShouldRetry errors.
// Requests with a body are repeated only when GetBody can rewind it.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.maxRetries && ShouldRetry(err); attempt++ {
		if werr := sleepCtx(req, Backoff(t.backoff, attempt)); werr != nil {
			return nil, werr
		}
		next, rerr := rewind(req)
		if rerr != nil {
			return nil, rerr
		}
		if next == nil {
			break
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}

// rewind clones req for another attempt. It returns nil when the body
// cannot be replayed.
func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	switch {
	case req.GetBody != nil:
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		next.Body = body
	case req.Body != nil && req.Body != http.NoBody:
		return nil, nil
	}
	return next, nil
}

func sleepCtx(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// ReadErrorBody reads at most limit bytes of an error response body for
// diagnostics, then drains and closes it so the connection can be reused.
func ReadErrorBody(rc io.ReadCloser, limit int64) string {
	if rc == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(rc, limit))
	DrainAndClose(rc, 4096)
	if err != nil {
		return fmt.Sprintf("(failed to read error body: %v)", err)
	}
	return string(body)
}

// DrainAndClose discards up to limit remaining bytes and closes rc.
func DrainAndClose(rc io.ReadCloser, limit int64) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, limit))
	_ = rc.Close()
}
