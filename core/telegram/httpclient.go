package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/superbot/core/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// The header timeout leaves room for the long-poll window so getUpdates is
// never cut short while Telegram holds the request open.
func BuildHTTPClient(longPollTimeout time.Duration, retries int) *http.Client {
	header := longPollTimeout + 10*time.Second
	return netutil.NewClient(netutil.ClientOptions{
		Timeout:               header + 30*time.Second,
		ResponseHeaderTimeout: header,
		Retries:               retries,
	})
}
