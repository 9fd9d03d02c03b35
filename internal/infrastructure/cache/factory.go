package cache

import (
	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
	"github.com/chafiq1992/order-scanner/internal/infrastructure/config"
)

// NewResolutionCache builds the resolution cache selected by configuration.
// When the Redis backend is requested but unreachable it falls back to the
// in-memory cache so a cache outage never takes down scanning.
func NewResolutionCache(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger) upstream.ResolutionCache {
	if cacheCfg.Backend == "redis" {
		c, err := NewRedisResolutionCache(redisCfg)
		if err == nil {
			logger.Info("using Redis resolution cache", zap.String("addr", redisCfg.Addr()))
			return c
		}
		logger.Warn("Redis resolution cache unavailable, falling back to in-memory",
			zap.String("addr", redisCfg.Addr()),
			zap.Error(err))
	}

	logger.Info("using in-memory resolution cache")
	return NewMemoryResolutionCache(WithMemoryLogger(logger))
}
