package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const SessionCookieName = "session"

// SessionManager binds a browser to a user id through a cookie.
type SessionManager interface {
	// Issue starts a session for userID and sets the cookie on w.
	Issue(ctx context.Context, w http.ResponseWriter, userID int64) error
	// Resolve returns the user id for the request's session, or ok=false
	// when there is no valid session.
	Resolve(r *http.Request) (userID int64, ok bool, err error)
	// Revoke ends the request's session and clears the cookie.
	Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

type cookieOptions struct {
	ttl    time.Duration
	secure bool
}

func (o cookieOptions) set(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(o.ttl.Seconds()),
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (o cookieOptions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// CookieSessions keeps the whole session in an HS256-signed token stored in
// the cookie. Nothing is kept server-side.
type CookieSessions struct {
	secret []byte
	opts   cookieOptions
	now    func() time.Time
}

type sessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

func NewCookieSessions(secret string, ttl time.Duration, secure bool) *CookieSessions {
	return &CookieSessions{
		secret: []byte(secret),
		opts:   cookieOptions{ttl: ttl, secure: secure},
		now:    time.Now,
	}
}

func (s *CookieSessions) Issue(ctx context.Context, w http.ResponseWriter, userID int64) error {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	s.opts.set(w, token)
	return nil
}

// Resolve treats a malformed, forged or expired token as "no session".
func (s *CookieSessions) Resolve(r *http.Request) (int64, bool, error) {
	raw, ok := sessionCookie(r)
	if !ok {
		return 0, false, nil
	}
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return 0, false, nil
	}
	return claims.UserID, true, nil
}

func (s *CookieSessions) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.opts.clear(w)
	return nil
}

const redisKeyPrefix = "session:"

// RedisSessions stores a random session id in the cookie and the user id in
// Redis, so logout invalidates the session server-side.
type RedisSessions struct {
	rdb  *redis.Client
	opts cookieOptions
}

func NewRedisSessions(rdb *redis.Client, ttl time.Duration, secure bool) *RedisSessions {
	return &RedisSessions{rdb: rdb, opts: cookieOptions{ttl: ttl, secure: secure}}
}

func (s *RedisSessions) Issue(ctx context.Context, w http.ResponseWriter, userID int64) error {
	id, err := newSessionID()
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+id, userID, s.opts.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s.opts.set(w, id)
	return nil
}

func (s *RedisSessions) Resolve(r *http.Request) (int64, bool, error) {
	id, ok := sessionCookie(r)
	if !ok {
		return 0, false, nil
	}
	userID, err := s.rdb.Get(r.Context(), redisKeyPrefix+id).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load session: %w", err)
	}
	return userID, true, nil
}

func (s *RedisSessions) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.opts.clear(w)
	id, ok := sessionCookie(r)
	if !ok {
		return nil
	}
	if err := s.rdb.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
