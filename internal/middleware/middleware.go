package middleware

import (
	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/pkg/logger"
)

type MiddlewareManager struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewMiddlewareManager(cfg *config.Config, log logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{cfg: cfg, logger: log}
}
