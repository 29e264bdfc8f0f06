package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	graph *services.GraphService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.GraphService) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/follow", h.FollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/followees", h.GetFolloweeIDs)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	follow, err := h.graph.Follow(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return serviceError("follow", err)
	}
	return ok(c, http.StatusCreated, echo.Map{"following": true, "follow": follow})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.graph.Unfollow(c.Request().Context(), currentUserID, targetID); err != nil {
		return serviceError("follow", err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": false})
}

// FollowStatus reports whether the current user follows :id
func (h *FollowHandler) FollowStatus(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	following, err := h.graph.IsFollowing(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return serviceError("follow", err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": following})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.graph.Followers(c.Request().Context(), userID)
	if err != nil {
		return serviceError("follow", err)
	}
	return ok(c, http.StatusOK, echo.Map{"followers": compact(users)})
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	users, err := h.graph.FolloweeUsers(c.Request().Context(), userID)
	if err != nil {
		return serviceError("follow", err)
	}
	return ok(c, http.StatusOK, echo.Map{"following": compact(users)})
}

// GetFolloweeIDs returns the ids the current user follows, for marking
// follow buttons client side
func (h *FollowHandler) GetFolloweeIDs(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	ids, err := h.graph.Followees(c.Request().Context(), currentUserID)
	if err != nil {
		return serviceError("follow", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ok(c, http.StatusOK, echo.Map{"ids": ids})
}

func compact(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
