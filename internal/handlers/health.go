package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthHandler reports whether the backing stores answer
type HealthHandler struct {
	db    *gorm.DB
	mongo *mongo.Client
}

// NewHealthHandler creates a HealthHandler. mongoClient may be nil.
func NewHealthHandler(db *gorm.DB, mongoClient *mongo.Client) *HealthHandler {
	return &HealthHandler{db: db, mongo: mongoClient}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"postgres": "ok"}
	status := http.StatusOK

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["postgres"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.mongo != nil {
		checks["mongo"] = "ok"
		if err := h.mongo.Ping(ctx, nil); err != nil {
			checks["mongo"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "degraded"
	}
	return c.JSON(status, echo.Map{
		"status":  health,
		"service": "socialgraph-api",
		"checks":  checks,
	})
}
