package app

import (
	"strings"

	"github.com/valkhart/grimoire-backend/internal/platform/envutil"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey     string
	Port             string
	SourceConfigPath string
	DefaultLang      string
	AllowOrigins     []string
	Environment      string
	Version          string
}

func LoadConfig(log *logger.Logger) Config {
	origins := envutil.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	var allowOrigins []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowOrigins = append(allowOrigins, o)
		}
	}
	return Config{
		JWTSecretKey:     envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Port:             envutil.GetEnv("PORT", "8080", log),
		SourceConfigPath: envutil.GetEnv("SOURCE_CONFIG_PATH", "configs/dofusdb.yaml", log),
		DefaultLang:      envutil.GetEnv("DEFAULT_LANG", "fr", log),
		AllowOrigins:     allowOrigins,
		Environment:      envutil.GetEnv("APP_ENV", "development", log),
		Version:          envutil.GetEnv("APP_VERSION", "dev", log),
	}
}
