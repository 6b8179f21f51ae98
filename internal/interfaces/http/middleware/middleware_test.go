package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/ratelimit"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	secret string
	err    error
	calls  int
}

func (f *fakeVerifier) VerifyOwner(ctx context.Context, sessionID, supplied string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return supplied != "" && supplied == f.secret, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.Any("/s/:sessionId", handlers...)
	r.Any("/plain", handlers...)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *utils.ErrorInfo {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestOwnerAuthMiddleware_RequireOwner(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		verifyErr  error
		wantStatus int
	}{
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer s3cret"}, wantStatus: http.StatusOK},
		{name: "bearer is case insensitive", headers: map[string]string{"Authorization": "bearer s3cret"}, wantStatus: http.StatusOK},
		{name: "owner header fallback", headers: map[string]string{"X-Owner-Token": " s3cret "}, wantStatus: http.StatusOK},
		{name: "wrong secret", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusForbidden},
		{name: "no credential", wantStatus: http.StatusForbidden},
		{name: "store failure", headers: map[string]string{"X-Owner-Token": "s3cret"}, verifyErr: errors.New("down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{secret: "s3cret", err: tt.verifyErr}
			mw := NewOwnerAuthMiddleware(verifier, logger.NewNopLogger())
			r := newEngine(mw.RequireOwner())

			req := httptest.NewRequest(http.MethodGet, "/s/abc", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func TestSessionRateLimiter_Limit(t *testing.T) {
	t.Run("sets headers when allowed", func(t *testing.T) {
		lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 6, Remaining: 5, ResetSeconds: 60}}
		r := newEngine(NewSessionRateLimiter(lim, ratelimit.PurposeSubmit, nil, logger.NewNopLogger()).Limit())

		req := httptest.NewRequest(http.MethodPost, "/s/sess-1", nil)
		req.Header.Set(ClientIDHeader, " device-9 ")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "6", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Reset"))
		assert.Equal(t, []string{"sess-1:device-9"}, lim.keys)
	})

	t.Run("keys by ip without client id", func(t *testing.T) {
		lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 6, Remaining: 5}}
		r := newEngine(NewSessionRateLimiter(lim, ratelimit.PurposeSubmit, nil, logger.NewNopLogger()).Limit())

		req := httptest.NewRequest(http.MethodPost, "/s/sess-1", nil)
		req.RemoteAddr = "10.1.2.3:4567"
		r.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, []string{"sess-1:ip:10.1.2.3"}, lim.keys)
	})

	t.Run("rejects over the limit", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		lim := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 6, Remaining: 0, ResetSeconds: 12}}
		r := newEngine(NewSessionRateLimiter(lim, ratelimit.PurposeMint, m, logger.NewNopLogger()).Limit())

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/s/sess-1", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, ReasonRateLimited, decodeError(t, w).Reason)
		assert.Equal(t, "12", w.Header().Get("X-RateLimit-Reset"))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitRejections.WithLabelValues(ratelimit.PurposeMint)))
	})

	t.Run("fails open", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		lim := &fakeLimiter{err: errors.New("redis down")}
		r := newEngine(NewSessionRateLimiter(lim, ratelimit.PurposeSubmit, m, logger.NewNopLogger()).Limit())

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/s/sess-1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitErrors.WithLabelValues(ratelimit.PurposeSubmit)))
	})

	t.Run("bypasses routes without a session", func(t *testing.T) {
		lim := &fakeLimiter{}
		r := newEngine(NewSessionRateLimiter(lim, ratelimit.PurposeSubmit, nil, logger.NewNopLogger()).Limit())

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plain", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, lim.keys)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://x.example", want: "*"},
		{name: "listed origin", allowed: []string{"https://a.example"}, origin: "https://a.example", want: "https://a.example"},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, origin: "https://evil.example", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(CORS(tt.allowed))
			req := httptest.NewRequest(http.MethodGet, "/plain", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		r := newEngine(CORS([]string{"*"}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/plain", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Owner-Token")
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/plain", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(logger.NewNopLogger()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error occurred", decodeError(t, w).Message)
}

func TestHTTPMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(HTTPMetrics(m))
	r.GET("/s/:sessionId", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/s/one", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/s/two", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/s/:sessionId", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
