package remote

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs method, path, status and latency of every request.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", req.Header.Get("X-Request-ID"),
	}
	if err != nil {
		t.logger.Debug("request failed", append(attrs, "error", err)...)
		return nil, err
	}
	t.logger.Debug("request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

// WithLogger logs every HTTP exchange of the client at debug level.
func (c *GraphQLClient) WithLogger(logger *slog.Logger) *GraphQLClient {
	if logger == nil {
		return c
	}
	next := c.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.httpClient.Transport = &loggingTransport{next: next, logger: logger}
	return c
}
