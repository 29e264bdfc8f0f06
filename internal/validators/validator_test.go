package validators

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/labstack/echo/v4"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&models.CreatePostRequest{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	err := v.Validate(&models.CreatePostRequest{Content: strings.Repeat("x", 5001)})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	msg, _ := he.Message.(string)
	if !strings.Contains(msg, "title is required") || !strings.Contains(msg, "content must be at most 5000") {
		t.Fatalf("unexpected message %q", msg)
	}

	if err := v.Validate(&models.RegisterDeviceRequest{Token: "x", Platform: "symbian"}); err == nil {
		t.Fatalf("expected oneof failure")
	}
}
