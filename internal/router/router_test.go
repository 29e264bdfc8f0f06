package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/validators"
	"github.com/anonto42/nano-midea/socialgraph/pkg/config"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWithDevices(t, nil)
}

func newAPIWithDevices(t *testing.T, devices DeviceStore) *api {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := repositories.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	cfg := &config.Config{
		AuthMode:        "jwt",
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		PageSizeDefault: 20,
		PageSizeMax:     50,
	}
	deps := Dependencies{Config: cfg, Postgres: db}
	if devices != nil {
		deps.Devices = devices
	}
	if err := SetupRoutes(e, deps); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return &api{t: t, e: e}
}

// do sends a request and returns the status and decoded body. For the
// success envelope the body is the "data" object.
func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	if data, ok := out["data"].(map[string]interface{}); ok {
		return rec.Code, data
	}
	return rec.Code, out
}

func (a *api) expect(want int, method, path, token string, body interface{}) map[string]interface{} {
	a.t.Helper()
	code, out := a.do(method, path, token, body)
	if code != want {
		a.t.Fatalf("%s %s: status %d, want %d (body %v)", method, path, code, want, out)
	}
	return out
}

func (a *api) signup(username string) (string, uint) {
	a.t.Helper()
	out := a.expect(http.StatusCreated, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	user := out["user"].(map[string]interface{})
	return out["token"].(string), uint(user["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	a.signup("alice")

	code, out := a.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	if code != http.StatusConflict {
		t.Fatalf("duplicate signup: %d %v", code, out)
	}

	a.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": "x", "email": "not-an-email", "password": "short",
	})
	a.expect(http.StatusUnauthorized, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	out = a.expect(http.StatusOK, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "ALICE@example.com", "password": "password123",
	})
	token := out["token"].(string)

	a.expect(http.StatusUnauthorized, http.MethodGet, "/api/v1/feed", "", nil)
	profile := a.expect(http.StatusOK, http.MethodGet, "/api/v1/profile", token, nil)["user"].(map[string]interface{})
	if profile["username"] != "alice" {
		t.Fatalf("unexpected profile %v", profile)
	}
	if _, leaked := profile["Password"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestSocialFlow(t *testing.T) {
	a := newAPI(t)
	aliceTok, alice := a.signup("alice")
	bobTok, bob := a.signup("bob")

	followPath := fmt.Sprintf("/api/v1/users/%d/follow", bob)
	a.expect(http.StatusCreated, http.MethodPost, followPath, aliceTok, nil)
	if out := a.expect(http.StatusBadRequest, http.MethodPost, followPath, aliceTok, nil); out["code"] != "already_following" {
		t.Fatalf("expected already_following, got %v", out)
	}
	if out := a.expect(http.StatusBadRequest, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice), aliceTok, nil); out["code"] != "self_follow" {
		t.Fatalf("expected self_follow, got %v", out)
	}
	a.expect(http.StatusNotFound, http.MethodPost, "/api/v1/users/9999/follow", aliceTok, nil)

	bobProfile := a.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", bob), aliceTok, nil)["user"].(map[string]interface{})
	if bobProfile["followers_count"].(float64) != 1 || bobProfile["is_following"] != true {
		t.Fatalf("unexpected profile %v", bobProfile)
	}

	ids := a.expect(http.StatusOK, http.MethodGet, "/api/v1/followees", aliceTok, nil)["ids"].([]interface{})
	if len(ids) != 1 || uint(ids[0].(float64)) != bob {
		t.Fatalf("unexpected followees %v", ids)
	}
	if out := a.expect(http.StatusNotFound, http.MethodDelete, "/api/v1/users/9999/follow", aliceTok, nil); out["code"] != "user_not_found" {
		t.Fatalf("expected user_not_found, got %v", out)
	}

	a.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/posts", bobTok, map[string]string{"title": "", "content": "x"})
	post := a.expect(http.StatusCreated, http.MethodPost, "/api/v1/posts", bobTok, map[string]string{
		"title": "hello", "content": "world",
	})["post"].(map[string]interface{})
	postID := uint(post["id"].(float64))
	if author := post["author"].(map[string]interface{}); author["username"] != "bob" {
		t.Fatalf("unexpected author %v", author)
	}

	feed := a.expect(http.StatusOK, http.MethodGet, "/api/v1/feed", aliceTok, nil)
	if posts := feed["posts"].([]interface{}); len(posts) != 1 || feed["has_more"] != false {
		t.Fatalf("unexpected feed %v", feed)
	}
	a.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/feed?cursor=garbage", aliceTok, nil)

	likePath := fmt.Sprintf("/api/v1/posts/%d/likes", postID)
	if out := a.expect(http.StatusCreated, http.MethodPost, likePath, aliceTok, nil); out["likes_count"].(float64) != 1 {
		t.Fatalf("unexpected like response %v", out)
	}
	if out := a.expect(http.StatusBadRequest, http.MethodPost, likePath, aliceTok, nil); out["code"] != "already_liked" {
		t.Fatalf("expected already_liked, got %v", out)
	}
	viewed := a.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), aliceTok, nil)["post"].(map[string]interface{})
	if viewed["is_liked"] != true || viewed["likes_count"].(float64) != 1 {
		t.Fatalf("unexpected post view %v", viewed)
	}

	a.expect(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", postID), aliceTok, map[string]string{"content": "nice"})
	comments := a.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", postID), bobTok, nil)
	if list := comments["comments"].([]interface{}); len(list) != 1 {
		t.Fatalf("unexpected comments %v", comments)
	}

	// follow, like and comment
	if out := a.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications/unread-count", bobTok, nil); out["count"].(float64) != 3 {
		t.Fatalf("unexpected unread count %v", out)
	}
	list := a.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications?limit=2", bobTok, nil)
	notes := list["notifications"].([]interface{})
	if len(notes) != 2 || list["has_more"] != true {
		t.Fatalf("unexpected page %v", list)
	}
	newest := notes[0].(map[string]interface{})
	if newest["notification_type"] != "comment" || newest["actor"].(map[string]interface{})["username"] != "alice" {
		t.Fatalf("unexpected newest notification %v", newest)
	}
	rest := a.expect(http.StatusOK, http.MethodGet, "/api/v1/notifications?limit=2&cursor="+list["next_cursor"].(string), bobTok, nil)
	if n := rest["notifications"].([]interface{}); len(n) != 1 || rest["has_more"] != false {
		t.Fatalf("unexpected second page %v", rest)
	}

	notePath := fmt.Sprintf("/api/v1/notifications/%d", uint(newest["id"].(float64)))
	a.expect(http.StatusForbidden, http.MethodPut, notePath+"/read", aliceTok, nil)
	for i := 0; i < 2; i++ {
		if out := a.expect(http.StatusOK, http.MethodPut, notePath+"/read", bobTok, nil); out["is_read"] != true {
			t.Fatalf("unexpected mark read %v", out)
		}
	}
	if out := a.expect(http.StatusOK, http.MethodPut, "/api/v1/notifications/read-all", bobTok, nil); out["updated"].(float64) != 2 {
		t.Fatalf("unexpected mark all %v", out)
	}

	postPath := fmt.Sprintf("/api/v1/posts/%d", postID)
	a.expect(http.StatusForbidden, http.MethodDelete, postPath, aliceTok, nil)
	a.expect(http.StatusNoContent, http.MethodDelete, postPath, bobTok, nil)
	a.expect(http.StatusNotFound, http.MethodGet, postPath, aliceTok, nil)

	a.expect(http.StatusOK, http.MethodDelete, followPath, aliceTok, nil)
	if out := a.expect(http.StatusBadRequest, http.MethodDelete, followPath, aliceTok, nil); out["code"] != "not_following" {
		t.Fatalf("expected not_following, got %v", out)
	}
}

// indexedDevices is a DeviceStore that records index creation.
type indexedDevices struct {
	mu        sync.Mutex
	ensured   int
	ensureErr error
	tokens    []models.DeviceToken
}

func (d *indexedDevices) EnsureIndexes(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("index creation without deadline")
	}
	d.ensured++
	return d.ensureErr
}

func (d *indexedDevices) Upsert(_ context.Context, token *models.DeviceToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ensured == 0 {
		return errors.New("upsert before indexes")
	}
	d.tokens = append(d.tokens, *token)
	return nil
}

func (d *indexedDevices) Delete(context.Context, uint, string) error {
	return repositories.ErrNotFound
}

func (d *indexedDevices) ListByUser(_ context.Context, userID uint) ([]models.DeviceToken, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.DeviceToken
	for _, tok := range d.tokens {
		if tok.UserID == userID {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (d *indexedDevices) DeleteTokens(context.Context, []string) error { return nil }

func TestDeviceRoutesNeedStore(t *testing.T) {
	a := newAPI(t)
	tok, _ := a.signup("carol")
	a.expect(http.StatusNotFound, http.MethodGet, "/api/v1/devices", tok, nil)
}

func TestSetupRoutes_EnsuresDeviceIndexes(t *testing.T) {
	devices := &indexedDevices{}
	a := newAPIWithDevices(t, devices)
	if devices.ensured != 1 {
		t.Fatalf("indexes ensured %d times, want 1", devices.ensured)
	}

	tok, uid := a.signup("carol")
	a.expect(http.StatusCreated, http.MethodPost, "/api/v1/devices", tok, map[string]string{
		"token":    "device-1",
		"platform": "android",
	})
	list, err := devices.ListByUser(context.Background(), uid)
	if err != nil || len(list) != 1 {
		t.Fatalf("stored tokens %v (err %v), want 1", list, err)
	}
}

func TestSetupRoutes_DeviceIndexFailure(t *testing.T) {
	devices := &indexedDevices{ensureErr: errors.New("mongo unavailable")}
	cfg := &config.Config{AuthMode: "jwt", JWTSecret: "test-secret"}
	err := SetupRoutes(echo.New(), Dependencies{Config: cfg, Devices: devices})
	if err == nil || !errors.Is(err, devices.ensureErr) {
		t.Fatalf("SetupRoutes error %v, want wrapped index failure", err)
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	if out := a.expect(http.StatusOK, http.MethodGet, "/health", "", nil); out["status"] != "healthy" {
		t.Fatalf("unexpected health %v", out)
	}
}

func TestSetupRoutes_FirebaseModeNeedsVerifier(t *testing.T) {
	cfg := &config.Config{AuthMode: "firebase"}
	if err := SetupRoutes(echo.New(), Dependencies{Config: cfg}); err == nil {
		t.Fatalf("expected error without firebase verifier")
	}
}
