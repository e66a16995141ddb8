package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// issue runs Issue and returns a request carrying the resulting cookie.
func issue(t *testing.T, s SessionManager, userID int64) (*http.Request, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, s.Issue(context.Background(), rec, userID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	return req, c
}

func TestCookieSessions_RoundTrip(t *testing.T) {
	s := NewCookieSessions("secret", time.Hour, true)

	req, c := issue(t, s, 7)
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 3600, c.MaxAge)

	id, ok, err := s.Resolve(req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestCookieSessions_NoCookie(t *testing.T) {
	s := NewCookieSessions("secret", time.Hour, false)

	_, ok, err := s.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieSessions_RejectsForeignSecret(t *testing.T) {
	req, _ := issue(t, NewCookieSessions("other", time.Hour, false), 7)

	_, ok, err := NewCookieSessions("secret", time.Hour, false).Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieSessions_RejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-token"})

	_, ok, err := NewCookieSessions("secret", time.Hour, false).Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieSessions_RejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{UserID: 1})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})

	_, ok, err := NewCookieSessions("secret", time.Hour, false).Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieSessions_Expiry(t *testing.T) {
	s := NewCookieSessions("secret", time.Hour, false)
	start := time.Now()
	s.now = func() time.Time { return start }
	req, _ := issue(t, s, 7)

	s.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, ok, err := s.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieSessions_RevokeClearsCookie(t *testing.T) {
	s := NewCookieSessions("secret", time.Hour, false)
	req, _ := issue(t, s, 7)

	rec := httptest.NewRecorder()
	require.NoError(t, s.Revoke(context.Background(), rec, req))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func newRedisSessions(t *testing.T, ttl time.Duration) (*RedisSessions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisSessions(rdb, ttl, false), mr
}

func TestRedisSessions_RoundTripAndRevoke(t *testing.T) {
	s, mr := newRedisSessions(t, time.Hour)

	req, c := issue(t, s, 42)
	assert.Len(t, c.Value, 32)
	assert.True(t, mr.Exists(redisKeyPrefix+c.Value))

	id, ok, err := s.Resolve(req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	require.NoError(t, s.Revoke(context.Background(), httptest.NewRecorder(), req))
	assert.False(t, mr.Exists(redisKeyPrefix+c.Value))

	_, ok, err = s.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok, "revoked session id must not resolve")
}

func TestRedisSessions_Expiry(t *testing.T) {
	s, mr := newRedisSessions(t, time.Minute)
	req, _ := issue(t, s, 42)

	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessions_UnknownID(t *testing.T) {
	s, _ := newRedisSessions(t, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})

	_, ok, err := s.Resolve(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessions_StoreDown(t *testing.T) {
	s, mr := newRedisSessions(t, time.Minute)
	req, _ := issue(t, s, 42)
	mr.Close()

	_, ok, err := s.Resolve(req)
	assert.Error(t, err)
	assert.False(t, ok)
}
