package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like-related HTTP requests
type LikeHandler struct {
	content *services.ContentService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(content *services.ContentService) *LikeHandler {
	return &LikeHandler{content: content}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.GET("/posts/:id/likes/count", h.GetLikesCountForPost)
}

// LikePost likes a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.content.Like(ctx, postID, currentUserID); err != nil {
		return serviceError("like", err)
	}
	count, err := h.content.LikesCount(ctx, postID)
	if err != nil {
		return serviceError("like", err)
	}
	return ok(c, http.StatusCreated, echo.Map{"liked": true, "likes_count": count})
}

// UnlikePost removes the current user's like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.content.Unlike(ctx, postID, currentUserID); err != nil {
		return serviceError("like", err)
	}
	count, err := h.content.LikesCount(ctx, postID)
	if err != nil {
		return serviceError("like", err)
	}
	return ok(c, http.StatusOK, echo.Map{"liked": false, "likes_count": count})
}

// GetLikesCountForPost returns the number of likes on a post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	count, err := h.content.LikesCount(c.Request().Context(), postID)
	if err != nil {
		return serviceError("like", err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": count})
}
