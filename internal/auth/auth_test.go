package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/storage"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "terminal_user",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newSigningServer(t *testing.T, token func() string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ccai/auth", r.URL.Path)

		var req wire.AuthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, DefaultIdentity.Identifier, req.Identifier)

		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wire.AuthResponse{Token: token()})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestTokenIsFetchedOnceAndCached(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))
	srv, calls := newSigningServer(t, func() string { return fresh })
	home := t.TempDir()

	c := NewClient(srv.URL+"/", home)
	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, tok)

	tok, err = c.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, tok)
	require.EqualValues(t, 1, calls.Load())

	cached, ok, err := storage.LoadAccessToken(home)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, fresh, cached)

	// A new client picks up the cached token without signing in.
	tok, err = NewClient(srv.URL, home).Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, tok)
	require.EqualValues(t, 1, calls.Load())
}

func TestExpiringTokenIsRefreshed(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))
	srv, calls := newSigningServer(t, func() string { return fresh })
	home := t.TempDir()
	require.NoError(t, storage.SaveAccessToken(home, signedToken(t, time.Now().Add(time.Minute))))

	tok, err := NewClient(srv.URL, home).Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, tok)
	require.EqualValues(t, 1, calls.Load())
}

func TestInvalidateForcesSignIn(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))
	srv, calls := newSigningServer(t, func() string { return fresh })

	c := NewClient(srv.URL, t.TempDir())
	_, err := c.Token(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestSigningErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Token(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")

	empty, _ := newSigningServer(t, func() string { return "" })
	_, err = NewClient(empty.URL, "").Token(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

func TestExpiringSoon(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewClient("http://unused", "", WithClock(func() time.Time { return now }))

	require.True(t, c.expiringSoon("garbage"))
	require.True(t, c.expiringSoon(signedToken(t, now.Add(5*time.Minute))))
	require.False(t, c.expiringSoon(signedToken(t, now.Add(time.Hour))))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.False(t, c.expiringSoon(noExp))
}
