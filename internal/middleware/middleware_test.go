package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/insider-transfers/internal/auth"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimit(t *testing.T) {
	now := time.Unix(0, 0)
	h := rateLimit(2, func() time.Time { return now })(okHandler)

	codes := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, codes())
	assert.Equal(t, http.StatusNoContent, codes())
	assert.Equal(t, http.StatusTooManyRequests, codes())

	now = now.Add(500 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, codes())
	assert.Equal(t, http.StatusTooManyRequests, codes())
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0)(okHandler)
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestAuth(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour, "test")
	pair, err := tm.GeneratePair(7, "admin")
	require.NoError(t, err)

	var got UserCtx
	h := NewAuthMiddleware(tm, "prod").Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromCtx(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"dev token outside dev", "Bearer dev-7", http.StatusUnauthorized},
		{"access token", "Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, c.code, rec.Code)
		})
	}
	assert.Equal(t, UserCtx{AccountID: 7, Role: "admin"}, got)
}

func TestAuthDevToken(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour, "test")
	var got UserCtx
	h := NewAuthMiddleware(tm, "dev").Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer dev-"+strconv.Itoa(12))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, UserCtx{AccountID: 12, Role: "user"}, got)

	req.Header.Set("Authorization", "Bearer dev-abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorize(t *testing.T) {
	az := auth.NewAuthorizer("../auth/testdata/model.conf", "../auth/testdata/policy.csv")
	h := Authorize(az, auth.ObjectTransfers, auth.ActionApprove)(okHandler)

	serve := func(u *UserCtx) int {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		if u != nil {
			req = req.WithContext(WithUser(req.Context(), *u))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&UserCtx{AccountID: 1, Role: "user"}))
	assert.Equal(t, http.StatusNoContent, serve(&UserCtx{AccountID: 1, Role: "admin"}))
}
