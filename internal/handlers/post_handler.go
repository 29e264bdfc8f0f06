package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	content        *services.ContentService
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(content *services.ContentService, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{content: content, userRepository: userRepo}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts) // ?q= searches title and content
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post authored by the current user
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.content.CreatePost(ctx, currentUserID, req.Title, req.Content)
	if err != nil {
		return serviceError("post", err)
	}
	return ok(c, http.StatusCreated, echo.Map{"post": postResponses(ctx, h.userRepository, []models.Post{*post})[0]})
}

// GetPost returns a post with its counters
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	post, err := h.content.GetPost(ctx, postID, getUserIDFromContext(c))
	if err != nil {
		return serviceError("post", err)
	}
	return ok(c, http.StatusOK, echo.Map{"post": postResponses(ctx, h.userRepository, []models.Post{*post})[0]})
}

// GetPosts lists all posts newest first, optionally filtered by ?q=
func (h *PostHandler) GetPosts(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := h.content.ListPosts(ctx, getUserIDFromContext(c), c.QueryParam("q"), pageRequest(c))
	if err != nil {
		return serviceError("post", err)
	}
	return ok(c, http.StatusOK, pageBody("posts", postResponses(ctx, h.userRepository, page.Items), page.NextCursor))
}

// UpdatePost updates title and/or content; author only
func (h *PostHandler) UpdatePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.content.UpdatePost(ctx, postID, currentUserID, req)
	if err != nil {
		return serviceError("post", err)
	}
	return ok(c, http.StatusOK, echo.Map{"post": postResponses(ctx, h.userRepository, []models.Post{*post})[0]})
}

// DeletePost deletes a post with its comments and likes; author only
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	if err := h.content.DeletePost(c.Request().Context(), postID, currentUserID); err != nil {
		return serviceError("post", err)
	}
	return c.NoContent(http.StatusNoContent)
}
