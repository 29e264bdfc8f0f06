package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves timelines assembled from the follow graph
type FeedHandler struct {
	feed           *services.FeedService
	userRepository repositories.UserRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService, userRepo repositories.UserRepository) *FeedHandler {
	return &FeedHandler{feed: feed, userRepository: userRepo}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// GetFeed returns posts of the accounts the current user follows, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	page, err := h.feed.Feed(ctx, currentUserID, pageRequest(c))
	if err != nil {
		return serviceError("feed", err)
	}
	return ok(c, http.StatusOK, pageBody("posts", postResponses(ctx, h.userRepository, page.Items), page.NextCursor))
}

// GetUserPosts returns one author's posts, newest first
func (h *FeedHandler) GetUserPosts(c echo.Context) error {
	authorID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	page, err := h.feed.UserPosts(ctx, authorID, getUserIDFromContext(c), pageRequest(c))
	if err != nil {
		return serviceError("feed", err)
	}
	return ok(c, http.StatusOK, pageBody("posts", postResponses(ctx, h.userRepository, page.Items), page.NextCursor))
}
