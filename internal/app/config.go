package app

import (
	"strings"
	"time"

	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/utils"
)

type Config struct {
	Port             string
	Cooldown         time.Duration
	StaleLockTimeout time.Duration
	AllowOrigins     []string
	RedisAddr        string
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	cooldownSeconds := utils.GetEnvAsInt("SYNC_COOLDOWN_SECONDS", 300, log)
	staleSeconds := utils.GetEnvAsInt("SYNC_STALE_LOCK_SECONDS", 60, log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)

	var allowOrigins []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowOrigins = append(allowOrigins, o)
		}
	}

	return Config{
		Port:             port,
		Cooldown:         time.Duration(cooldownSeconds) * time.Second,
		StaleLockTimeout: time.Duration(staleSeconds) * time.Second,
		AllowOrigins:     allowOrigins,
		RedisAddr:        redisAddr,
	}
}
