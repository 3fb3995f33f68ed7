package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query"`
	Auth   string `json:"auth"`
	Body   string `json:"body"`
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "auth")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(echo{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPassForwardsRequestVerbatim(t *testing.T) {
	upstream := newUpstream(t)
	fw := NewForwarder(upstream.URL+"/", time.Second, zap.NewNop())

	app := fiber.New()
	app.All("/api/v1/users/*", fw.Pass())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/42?page=2", strings.NewReader(`{"email":"a@b.c"}`))
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "auth", resp.Header.Get("X-Upstream"))

	var got echo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/api/v1/users/42", got.Path)
	assert.Equal(t, "page=2", got.Query)
	assert.Equal(t, "Bearer abc", got.Auth)
	assert.Equal(t, `{"email":"a@b.c"}`, got.Body)
}

func TestToRewritesPath(t *testing.T) {
	upstream := newUpstream(t)
	fw := NewForwarder(upstream.URL, time.Second, nil)

	app := fiber.New()
	app.Post("/login", fw.To("/api/v1/auth/login"))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got echo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "/api/v1/auth/login", got.Path)
}

func TestUnreachableUpstream(t *testing.T) {
	upstream := newUpstream(t)
	url := upstream.URL
	upstream.Close()

	fw := NewForwarder(url, time.Second, nil)
	app := fiber.New()
	app.Get("/*", fw.Pass())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
