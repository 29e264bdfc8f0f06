package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var logg = logger.New()

func getUserIDFromContext(c echo.Context) uint {
	return middleware.UserID(c)
}

// requireUser returns the authenticated user id or a 401.
func requireUser(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func parseID(c echo.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label+" ID")
	}
	return uint(id), nil
}

// pageRequest reads ?cursor= and ?limit=. Clamping happens in the services.
func pageRequest(c echo.Context) services.PageRequest {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return services.PageRequest{Cursor: c.QueryParam("cursor"), Limit: limit}
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// serviceError maps a typed service failure onto an HTTP error. Business
// rule rejections are expected traffic and only logged at debug; anything
// else is a system fault.
func serviceError(module string, err error) error {
	var typed *services.Error
	if !errors.As(err, &typed) || typed.Kind == services.KindStorage {
		logg.Error(module, "operation failed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	status := http.StatusBadRequest
	switch typed.Kind {
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindNotFound:
		status = http.StatusNotFound
	}
	logg.Debug(module, "request rejected", zap.String("code", typed.Code), zap.Int("status", status))
	return echo.NewHTTPError(status, echo.Map{"code": typed.Code, "message": typed.Message})
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// PostResponse is a post with its author resolved
type PostResponse struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

// CommentResponse is a comment with its author resolved
type CommentResponse struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// NotificationResponse is a notification with its actor resolved
type NotificationResponse struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

// compactUsers loads the given users in one query. Missing users map to a bare {id}.
func compactUsers(ctx context.Context, users repositories.UserRepository, ids []uint) map[uint]models.UserCompact {
	out := make(map[uint]models.UserCompact, len(ids))
	uniq := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; !seen {
			out[id] = models.UserCompact{ID: id}
			uniq = append(uniq, id)
		}
	}
	found, err := users.GetUsersByIDs(ctx, uniq)
	if err != nil {
		logg.Warn("handlers", "failed to load users for response", zap.Int("users", len(uniq)))
		return out
	}
	for i := range found {
		out[found[i].ID] = found[i].ToCompact()
	}
	return out
}

func postResponses(ctx context.Context, users repositories.UserRepository, posts []models.Post) []PostResponse {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors := compactUsers(ctx, users, ids)
	out := make([]PostResponse, len(posts))
	for i, p := range posts {
		out[i] = PostResponse{Post: p, Author: authors[p.AuthorID]}
	}
	return out
}

func commentResponses(ctx context.Context, users repositories.UserRepository, comments []models.Comment) []CommentResponse {
	ids := make([]uint, len(comments))
	for i, cm := range comments {
		ids[i] = cm.AuthorID
	}
	authors := compactUsers(ctx, users, ids)
	out := make([]CommentResponse, len(comments))
	for i, cm := range comments {
		out[i] = CommentResponse{Comment: cm, Author: authors[cm.AuthorID]}
	}
	return out
}

func notificationResponses(ctx context.Context, users repositories.UserRepository, notes []models.Notification) []NotificationResponse {
	ids := make([]uint, len(notes))
	for i, n := range notes {
		ids[i] = n.ActorID
	}
	actors := compactUsers(ctx, users, ids)
	out := make([]NotificationResponse, len(notes))
	for i, n := range notes {
		out[i] = NotificationResponse{Notification: n, Actor: actors[n.ActorID]}
	}
	return out
}

func pageBody(key string, items interface{}, next string) echo.Map {
	return echo.Map{key: items, "next_cursor": next, "has_more": next != ""}
}
