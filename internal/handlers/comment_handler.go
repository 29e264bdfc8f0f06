package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	content        *services.ContentService
	userRepository repositories.UserRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(content *services.ContentService, userRepo repositories.UserRepository) *CommentHandler {
	return &CommentHandler{content: content, userRepository: userRepo}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.GET("/posts/:id/comments/count", h.GetCommentsCount)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment adds a comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.content.AddComment(ctx, postID, currentUserID, req.Content)
	if err != nil {
		return serviceError("comment", err)
	}
	return ok(c, http.StatusCreated, echo.Map{"comment": commentResponses(ctx, h.userRepository, []models.Comment{*comment})[0]})
}

// GetCommentsByPostID lists a post's comments, oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	page, err := h.content.ListComments(ctx, postID, pageRequest(c))
	if err != nil {
		return serviceError("comment", err)
	}
	return ok(c, http.StatusOK, pageBody("comments", commentResponses(ctx, h.userRepository, page.Items), page.NextCursor))
}

func (h *CommentHandler) GetCommentsCount(c echo.Context) error {
	postID, err := parseID(c, "id", "post")
	if err != nil {
		return err
	}
	count, err := h.content.CommentsCount(c.Request().Context(), postID)
	if err != nil {
		return serviceError("comment", err)
	}
	return ok(c, http.StatusOK, echo.Map{"count": count})
}

// UpdateComment edits a comment; author only
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.content.UpdateComment(ctx, commentID, currentUserID, req.Content)
	if err != nil {
		return serviceError("comment", err)
	}
	return ok(c, http.StatusOK, echo.Map{"comment": commentResponses(ctx, h.userRepository, []models.Comment{*comment})[0]})
}

// DeleteComment removes a comment; author only
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	if err := h.content.DeleteComment(c.Request().Context(), commentID, currentUserID); err != nil {
		return serviceError("comment", err)
	}
	return c.NoContent(http.StatusNoContent)
}
