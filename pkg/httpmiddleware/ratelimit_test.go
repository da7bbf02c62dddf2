package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = ip + ":4321"
	return req
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := serve(h, fromIP("10.0.0.1"))
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_Exceeded(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	require.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.1")).Code)
	w := serve(h, fromIP("10.0.0.1"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var (
		code int
		msg  string
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Int()
			code = v
			return err
		case "message":
			v, err := d.Str()
			msg = v
			return err
		}
		return d.Skip()
	}))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", msg)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(h, fromIP("10.0.0.2")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("10.0.0.1")).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{})(okHandler())

	for range 5 {
		w := serve(h, fromIP("10.0.0.1"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	req := fromIP("192.168.1.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = fromIP("192.168.1.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.50")
	assert.Equal(t, http.StatusTooManyRequests, serve(h, req).Code)
}

type userKey struct{}

func TestUserOrIP(t *testing.T) {
	key := UserOrIP(func(ctx context.Context) string {
		u, _ := ctx.Value(userKey{}).(string)
		return u
	})

	req := fromIP("10.0.0.9")
	assert.Equal(t, "ip:10.0.0.9", key(req))

	req = req.WithContext(context.WithValue(req.Context(), userKey{}, "user_1"))
	assert.Equal(t, "user:user_1", key(req))
}

func TestRateLimit_PerUser(t *testing.T) {
	h := RateLimit(t.Context(), RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: UserOrIP(func(ctx context.Context) string {
			u, _ := ctx.Value(userKey{}).(string)
			return u
		}),
	})(okHandler())

	as := func(user string) *http.Request {
		req := fromIP("10.0.0.1")
		return req.WithContext(context.WithValue(req.Context(), userKey{}, user))
	}

	assert.Equal(t, http.StatusOK, serve(h, as("alice")).Code)
	assert.Equal(t, http.StatusOK, serve(h, as("bob")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, as("alice")).Code)
}
