package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (int, uint) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen uint
	err := mw(func(c echo.Context) error {
		seen = UserID(c)
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("unexpected error type %T", err)
		}
		return he.Code, 0
	}
	return rec.Code, seen
}

func sign(t *testing.T, secret string, userID uint, exp time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestJWTAuthMiddleware(t *testing.T) {
	mw := JWTAuthMiddleware("secret")
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name   string
		header string
		code   int
		user   uint
	}{
		{"valid", "Bearer " + sign(t, "secret", 7, future), http.StatusOK, 7},
		{"missing", "", http.StatusUnauthorized, 0},
		{"not bearer", "Basic abc", http.StatusUnauthorized, 0},
		{"wrong secret", "Bearer " + sign(t, "other", 7, future), http.StatusUnauthorized, 0},
		{"expired", "Bearer " + sign(t, "secret", 7, time.Now().Add(-time.Hour)), http.StatusUnauthorized, 0},
		{"no user", "Bearer " + sign(t, "secret", 0, future), http.StatusUnauthorized, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, user := run(t, mw, tc.header)
			if code != tc.code || user != tc.user {
				t.Fatalf("got %d/%d, want %d/%d", code, user, tc.code, tc.user)
			}
		})
	}
}

type stubVerifier map[string]string

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := s[idToken]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

type stubUsers map[string]uint

func (s stubUsers) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	id, ok := s[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.User{ID: id}, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	mw := FirebaseAuthMiddleware(
		stubVerifier{"good": "uid-1", "orphan": "uid-2"},
		stubUsers{"uid-1": 42},
	)

	if code, user := run(t, mw, "Bearer good"); code != http.StatusOK || user != 42 {
		t.Fatalf("expected 200/42, got %d/%d", code, user)
	}
	if code, _ := run(t, mw, "Bearer orphan"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlinked uid, got %d", code)
	}
	if code, _ := run(t, mw, "Bearer nope"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", code)
	}
}
