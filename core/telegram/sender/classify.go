package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

var (
	tokenRe      = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
	trailingCode = regexp.MustCompile(`\((\d{3})\)\s*$`)
)

// classifiers run in order; the first non-empty answer wins.
var classifiers = []func(error) string{
	func(err error) string {
		var dns *net.DNSError
		if !errors.As(err, &dns) {
			return ""
		}
		if dns.IsTimeout {
			return "timeout"
		}
		return "dns"
	},
	func(err error) string {
		var t interface{ Timeout() bool }
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &t) && t.Timeout()) {
			return "timeout"
		}
		return ""
	},
	func(err error) string {
		var op *net.OpError
		if errors.As(err, &op) && op.Op == "dial" {
			return "dial"
		}
		return ""
	},
	func(err error) string {
		var alert tls.AlertError
		if errors.As(err, &alert) {
			return "tls"
		}
		return ""
	},
	func(err error) string {
		switch code := statusCode(err); {
		case code >= 500:
			return "http_5xx"
		case code >= 400:
			return "http_4xx"
		}
		return ""
	},
}

// classifyError buckets a delivery failure for the err_code field.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	for _, classify := range classifiers {
		if kind := classify(err); kind != "" {
			return kind
		}
	}
	return "unknown"
}

// statusCode reads the HTTP status from telebot errors, or from a trailing
// "(NNN)" in the message.
func statusCode(err error) int {
	var api *tele.Error
	var flood tele.FloodError
	var group tele.GroupError
	switch {
	case errors.As(err, &api):
		return api.Code
	case errors.As(err, &flood):
		return http.StatusTooManyRequests
	case errors.As(err, &group):
		return http.StatusBadRequest
	}
	m := trailingCode.FindStringSubmatch(strings.TrimSpace(err.Error()))
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// sanitizeErrorMessage masks bot tokens that telebot embeds in request URLs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
