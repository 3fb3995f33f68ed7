package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Proxy Handler
// ============================================================

// Headers that describe a single hop and must not be forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Forwarder relays requests to an upstream service unchanged: method, path,
// query, headers (Authorization included) and body go up; status, headers
// and body come back.
type Forwarder struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewForwarder(baseURL string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Pass forwards the request to the same path on the upstream.
func (f *Forwarder) Pass() fiber.Handler {
	return func(c fiber.Ctx) error {
		return f.forward(c, f.baseURL+c.OriginalURL())
	}
}

// To forwards the request to a fixed upstream path, keeping the query.
func (f *Forwarder) To(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		target := f.baseURL + path
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}
		return f.forward(c, target)
	}
}

func (f *Forwarder) forward(c fiber.Ctx, targetURL string) error {
	f.logger.Debug("proxy request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("content_length", len(c.Body())),
		zap.String("target", targetURL),
	)

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		f.logger.Error("build proxy request", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	for key, values := range c.GetReqHeaders() {
		if hopHeaders[http.CanonicalHeaderKey(key)] || strings.EqualFold(key, "Host") {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("X-Forwarded-For", c.IP())

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("upstream unreachable", zap.String("target", targetURL), zap.Error(err))
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp, f.logger)
}

func copyResponse(c fiber.Ctx, resp *http.Response, logger *zap.Logger) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("read upstream response", zap.Error(err))
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if hopHeaders[key] || key == "Content-Length" {
			continue
		}
		for i, v := range values {
			if i == 0 {
				c.Set(key, v)
			} else {
				c.Append(key, v)
			}
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
