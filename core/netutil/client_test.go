package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewClient(ClientOptions{UserAgent: "superbot/test"}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "superbot/test", got)
}

func TestNewClientKeepsExplicitUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err := NewClient(ClientOptions{}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "custom", got)
}

type flakyTransport struct {
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	base := &flakyTransport{failures: 2}
	rt := &retryTransport{base: base, maxRetries: 2, backoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodGet, "http://example.invalid", nil)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, base.calls)
}

func TestRetryTransportGivesUp(t *testing.T) {
	base := &flakyTransport{failures: 5}
	rt := &retryTransport{base: base, maxRetries: 1, backoff: time.Millisecond}

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.invalid", nil))
	require.Error(t, err)
	require.Equal(t, 2, base.calls)
}

func TestShouldRetry(t *testing.T) {
	require.False(t, ShouldRetry(nil))
	require.False(t, ShouldRetry(errors.New("plain")))
	require.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	require.True(t, ShouldRetry(&url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}))
}

func TestShouldRetryMarkedTemporary(t *testing.T) {
	require.True(t, ShouldRetry(fmt.Errorf("upstream 503: %w", ErrTemporary)))
	require.Equal(t, 4*time.Millisecond, Backoff(2*time.Millisecond, 2))
	require.Equal(t, time.Millisecond, Backoff(time.Millisecond, 0))
}

func TestRetryTransportSkipsUnreplayableBody(t *testing.T) {
	base := &flakyTransport{failures: 5}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodPost, "http://example.invalid", strings.NewReader("payload"))
	req.GetBody = nil
	_, err := rt.RoundTrip(req)
	require.Error(t, err)
	require.Equal(t, 1, base.calls)
}
