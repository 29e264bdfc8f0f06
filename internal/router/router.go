package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/broker"
	"github.com/anonto42/nano-midea/socialgraph/internal/handlers"
	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/anonto42/nano-midea/socialgraph/pkg/config"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var logg = logger.New()

// DeviceStore is the push-token registry; its indexes must exist before the
// first registration.
type DeviceStore interface {
	repositories.DeviceTokenRepository
	EnsureIndexes(ctx context.Context) error
}

// Dependencies are the connections and clients the routes are built on.
// Mongo, Devices, FirebaseAuth and Publisher are optional.
type Dependencies struct {
	Config       *config.Config
	Postgres     *gorm.DB
	Mongo        *mongo.Client
	Devices      DeviceStore
	FirebaseAuth middleware.TokenVerifier
	Publisher    broker.Publisher
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	cfg := deps.Config
	if cfg.AuthMode == "firebase" && deps.FirebaseAuth == nil {
		return fmt.Errorf("AUTH_MODE=firebase requires FIREBASE_CREDENTIALS_PATH")
	}

	// Health check - always accessible
	health := handlers.NewHealthHandler(deps.Postgres, deps.Mongo)
	e.GET("/health", health.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "socialgraph api"})
	})

	// --- Core services ---
	store := repositories.NewStore(deps.Postgres)
	dispatcher := services.NewDispatcher(deps.Publisher)
	paging := services.Paging{Default: cfg.PageSizeDefault, Max: cfg.PageSizeMax}

	graph := services.NewGraphService(store, dispatcher)
	content := services.NewContentService(store, dispatcher, paging)
	feed := services.NewFeedService(store, paging)
	notifications := services.NewNotificationService(store, paging)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(store.Users, deps.FirebaseAuth, cfg.JWTSecret, cfg.JWTTTL).RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	switch cfg.AuthMode {
	case "firebase":
		api.Use(middleware.FirebaseAuthMiddleware(deps.FirebaseAuth, store.Users))
	default:
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}
	logg.Info("router", "authentication middleware applied", zap.String("mode", cfg.AuthMode))

	handlers.NewUserHandler(store.Users, graph).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(graph).RegisterFollowRoutes(api)
	handlers.NewPostHandler(content, store.Users).RegisterPostRoutes(api)
	handlers.NewFeedHandler(feed, store.Users).RegisterFeedRoutes(api)
	handlers.NewCommentHandler(content, store.Users).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(content).RegisterLikeRoutes(api)
	handlers.NewNotificationHandler(notifications, store.Users).RegisterNotificationRoutes(api)

	if deps.Devices != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := deps.Devices.EnsureIndexes(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("device token indexes: %w", err)
		}
		handlers.NewDeviceHandler(deps.Devices).RegisterDeviceRoutes(api)
	} else {
		logg.Warn("router", "device routes disabled, no device store")
	}

	logg.Info("router", "all routes configured", zap.Int("routes", len(e.Routes())))
	return nil
}
