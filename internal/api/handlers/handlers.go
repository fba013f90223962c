package handlers

import (
	"linkguard/internal/config"
	"linkguard/internal/domain/services"
	"linkguard/internal/infrastructure/cache"
	"linkguard/internal/infrastructure/database"
	"linkguard/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Scan      *ScanHandler
	KnownScam *KnownScamHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Scans  *services.ScanService
	Cache  *cache.RedisCache
	DB     *database.PostgresDB
	Config config.Config
	Logger *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Cache, deps.DB, deps.Config.App.Version, deps.Logger),
		Scan:      NewScanHandler(deps.Scans, deps.Logger),
		KnownScam: NewKnownScamHandler(deps.Scans, deps.Logger),
	}
}
