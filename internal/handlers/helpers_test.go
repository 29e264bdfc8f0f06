package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

func TestServiceError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrSelfFollow, http.StatusBadRequest},
		{services.ErrNotLiked, http.StatusBadRequest},
		{services.ErrInvalidCursor, http.StatusBadRequest},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrPostNotFound, http.StatusNotFound},
		{fmt.Errorf("like: %w", services.ErrAlreadyLiked), http.StatusBadRequest},
		{services.ErrStorage, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var he *echo.HTTPError
		if !errors.As(serviceError("test", tc.err), &he) {
			t.Fatalf("%v: expected *echo.HTTPError", tc.err)
		}
		if he.Code != tc.code {
			t.Fatalf("%v: status %d, want %d", tc.err, he.Code, tc.code)
		}
	}
}

func TestServiceError_BodyCarriesCode(t *testing.T) {
	var he *echo.HTTPError
	errors.As(serviceError("test", services.ErrAlreadyFollowing), &he)
	body, ok := he.Message.(echo.Map)
	if !ok || body["code"] != "already_following" {
		t.Fatalf("unexpected body %#v", he.Message)
	}
}

func TestParseIDAndPageRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?cursor=abc&limit=7", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("12")

	if id, err := parseID(c, "id", "post"); err != nil || id != 12 {
		t.Fatalf("parseID = %d, %v", id, err)
	}
	if p := pageRequest(c); p.Cursor != "abc" || p.Limit != 7 {
		t.Fatalf("unexpected page request %+v", p)
	}

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c.SetParamValues(bad)
		if _, err := parseID(c, "id", "post"); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRequireUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, err := requireUser(c); err == nil {
		t.Fatalf("expected 401 for anonymous request")
	}
	c.Set(middleware.UserIDKey, uint(5))
	if id, err := requireUser(c); err != nil || id != 5 {
		t.Fatalf("requireUser = %d, %v", id, err)
	}
}

func TestUsernameFor(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9]{3,50}$`)
	for _, email := range []string{"jane.doe+tag@example.com", "@example.com", "ünï@example.com"} {
		name := usernameFor(email)
		if !valid.MatchString(name) {
			t.Fatalf("usernameFor(%q) = %q is not a valid username", email, name)
		}
	}
	if a, b := usernameFor("x@y.z"), usernameFor("x@y.z"); a == b {
		t.Fatalf("expected random suffix, got %q twice", a)
	}
}
