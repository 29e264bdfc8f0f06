package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

const userSearchLimit = 20

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	graph          *services.GraphService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, graph *services.GraphService) *UserHandler {
	return &UserHandler{userRepository: userRepo, graph: graph}
}

// ProfileResponse is a user with follow counters and the viewer's follow state
type ProfileResponse struct {
	*models.User
	services.FollowCounts
	IsFollowing bool `json:"is_following"`
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

func (h *UserHandler) profile(c echo.Context, userID uint) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		logg.Error("user", "failed to load user", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	counts, err := h.graph.Counts(ctx, userID)
	if err != nil {
		return serviceError("user", err)
	}
	resp := ProfileResponse{User: user, FollowCounts: counts}

	if viewer := getUserIDFromContext(c); viewer != 0 && viewer != userID {
		if resp.IsFollowing, err = h.graph.IsFollowing(ctx, viewer, userID); err != nil {
			return serviceError("user", err)
		}
	}
	return ok(c, http.StatusOK, echo.Map{"user": resp})
}

// GetUser returns another user's profile by ID
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	return h.profile(c, id)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	return h.profile(c, currentUserID)
}

// UpdateProfile updates the authenticated user's name and bio
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		logg.Error("user", "failed to load user", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		logg.Error("user", "failed to update user", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

// SearchUsers searches for users by username or name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, userSearchLimit)
	if err != nil {
		logg.Error("user", "failed to search users", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}

	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return ok(c, http.StatusOK, echo.Map{"users": out})
}
