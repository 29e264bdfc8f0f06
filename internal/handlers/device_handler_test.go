package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/validators"
	"github.com/labstack/echo/v4"
)

// memDevices keys tokens the way the Mongo collection's unique index does.
type memDevices struct {
	mu     sync.Mutex
	tokens map[string]models.DeviceToken
}

func newMemDevices() *memDevices {
	return &memDevices{tokens: map[string]models.DeviceToken{}}
}

func (m *memDevices) Upsert(_ context.Context, token *models.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.tokens[token.Token]; ok {
		token.CreatedAt = prev.CreatedAt
	} else {
		token.CreatedAt = now
	}
	token.UpdatedAt = now
	m.tokens[token.Token] = *token
	return nil
}

func (m *memDevices) Delete(_ context.Context, userID uint, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.tokens[token]
	if !ok || d.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *memDevices) ListByUser(_ context.Context, userID uint) ([]models.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DeviceToken
	for _, d := range m.tokens {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDevices) DeleteTokens(_ context.Context, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tokens {
		delete(m.tokens, t)
	}
	return nil
}

// newDeviceServer mounts the device routes behind a stand-in for the auth
// middleware that trusts the X-User-ID header.
func newDeviceServer(devices repositories.DeviceTokenRepository) *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, err := strconv.ParseUint(c.Request().Header.Get("X-User-ID"), 10, 32); err == nil {
				c.Set(middleware.UserIDKey, uint(id))
			}
			return next(c)
		}
	})
	NewDeviceHandler(devices).RegisterDeviceRoutes(g)
	return e
}

func deviceRequest(t *testing.T, e *echo.Echo, method, user, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/devices", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func TestDeviceHandler_RegisterListUnregister(t *testing.T) {
	devices := newMemDevices()
	e := newDeviceServer(devices)

	code, out := deviceRequest(t, e, http.MethodPost, "7", `{"token":"tok:abc/1","platform":"android"}`)
	if code != http.StatusCreated {
		t.Fatalf("register: %d %v", code, out)
	}
	device := out["data"].(map[string]interface{})["device"].(map[string]interface{})
	if device["token"] != "tok:abc/1" || device["user_id"].(float64) != 7 {
		t.Fatalf("unexpected device %v", device)
	}
	if code, _ := deviceRequest(t, e, http.MethodPost, "7", `{"token":"tok-2","platform":"ios"}`); code != http.StatusCreated {
		t.Fatalf("second register: %d", code)
	}

	code, out = deviceRequest(t, e, http.MethodGet, "7", "")
	if code != http.StatusOK {
		t.Fatalf("list: %d %v", code, out)
	}
	if list := out["data"].(map[string]interface{})["devices"].([]interface{}); len(list) != 2 {
		t.Fatalf("expected 2 devices, got %v", list)
	}

	code, out = deviceRequest(t, e, http.MethodGet, "8", "")
	if list := out["data"].(map[string]interface{})["devices"].([]interface{}); code != http.StatusOK || len(list) != 0 {
		t.Fatalf("other user should see no devices: %d %v", code, out)
	}

	if code, _ := deviceRequest(t, e, http.MethodDelete, "8", `{"token":"tok:abc/1"}`); code != http.StatusNotFound {
		t.Fatalf("unregistering a foreign token: %d, want 404", code)
	}
	if code, _ := deviceRequest(t, e, http.MethodDelete, "7", `{"token":"tok:abc/1"}`); code != http.StatusNoContent {
		t.Fatalf("unregister: %d, want 204", code)
	}
	if code, _ := deviceRequest(t, e, http.MethodDelete, "7", `{"token":"tok:abc/1"}`); code != http.StatusNotFound {
		t.Fatalf("second unregister: %d, want 404", code)
	}
}

func TestDeviceHandler_ReassignsTokenToNewOwner(t *testing.T) {
	devices := newMemDevices()
	e := newDeviceServer(devices)

	deviceRequest(t, e, http.MethodPost, "7", `{"token":"shared","platform":"web"}`)
	deviceRequest(t, e, http.MethodPost, "9", `{"token":"shared","platform":"web"}`)

	if list, _ := devices.ListByUser(context.Background(), 7); len(list) != 0 {
		t.Fatalf("previous owner still holds the token: %v", list)
	}
	if list, _ := devices.ListByUser(context.Background(), 9); len(list) != 1 {
		t.Fatalf("new owner should hold the token: %v", list)
	}
}

func TestDeviceHandler_Rejects(t *testing.T) {
	e := newDeviceServer(newMemDevices())

	cases := []struct {
		name   string
		method string
		user   string
		body   string
		code   int
	}{
		{"bad platform", http.MethodPost, "7", `{"token":"t","platform":"windows-phone"}`, http.StatusBadRequest},
		{"missing token", http.MethodPost, "7", `{"platform":"ios"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "7", `{"token":`, http.StatusBadRequest},
		{"unregister without token", http.MethodDelete, "7", `{}`, http.StatusBadRequest},
		{"register anonymous", http.MethodPost, "", `{"token":"t","platform":"ios"}`, http.StatusUnauthorized},
		{"list anonymous", http.MethodGet, "", "", http.StatusUnauthorized},
		{"unregister anonymous", http.MethodDelete, "", `{"token":"t"}`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, out := deviceRequest(t, e, tc.method, tc.user, tc.body); code != tc.code {
				t.Fatalf("got %d (%v), want %d", code, out, tc.code)
			}
		})
	}
}
