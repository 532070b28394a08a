package chatprovider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultRetryConfig is the harness's default HTTP retry policy.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	BaseBackoff: 500 * time.Millisecond,
	MaxBackoff:  30 * time.Second,
	Jitter:      250 * time.Millisecond,
}

// RetryConfig configures exponential backoff with jitter for HTTP requests.
type RetryConfig struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      time.Duration
}

// RetryTransport retries transient network errors and 5xx/429/timeout
// responses with exponential backoff and jitter.
type RetryTransport struct {
	Transport http.RoundTripper
	Config    RetryConfig
}

// NewRetryTransport wraps transport (or http.DefaultTransport) with retry.
func NewRetryTransport(transport http.RoundTripper, cfg RetryConfig) *RetryTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &RetryTransport{Transport: transport, Config: cfg}
}

func (rt *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	backoff := retry.NewExponential(rt.Config.BaseBackoff)
	backoff = retry.WithCappedDuration(rt.Config.MaxBackoff, backoff)
	backoff = retry.WithJitter(rt.Config.Jitter, backoff)
	backoff = retry.WithMaxRetries(rt.Config.MaxRetries, backoff)

	var bodyBytes []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
	}

	var resp, lastResp *http.Response
	attempt := 0

	err := retry.Do(req.Context(), backoff, func(ctx context.Context) error {
		attempt++
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		var err error
		resp, err = rt.Transport.RoundTrip(req)
		if err != nil {
			if isRetryableError(err) {
				slog.Warn("chat request failed, retrying", "url", req.URL.String(), "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}

		if isRetryableStatus(resp.StatusCode) {
			lastResp = resp
			delay := retryAfter(resp)
			slog.Warn("chat request returned retryable status, retrying",
				"url", req.URL.String(), "status", resp.StatusCode, "attempt", attempt, "retry_after", delay)
			return retry.RetryableError(errors.New(resp.Status))
		}

		return nil
	})
	if err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return resp, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	errStr := err.Error()
	for _, pattern := range []string{
		"connection reset", "connection refused", "no such host",
		"network is unreachable", "i/o timeout", "TLS handshake timeout",
		"context deadline exceeded",
	} {
		if bytes.Contains([]byte(errStr), []byte(pattern)) {
			return true
		}
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}

// NewHTTPClientWithRetry returns an *http.Client wrapping the default
// transport with retry, for use by every OpenAI-shape and bridge client.
func NewHTTPClientWithRetry(cfg RetryConfig) *http.Client {
	return &http.Client{Transport: NewRetryTransport(nil, cfg)}
}
