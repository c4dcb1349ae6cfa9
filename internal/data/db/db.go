package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/valkhart/grimoire-backend/internal/platform/envutil"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewService opens the configured database. Postgres is the default; sqlite is
// available for local development (DB_DRIVER=sqlite, DB_PATH).
func NewService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	driver := envutil.GetEnv("DB_DRIVER", "postgres", logg)
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		path := envutil.GetEnv("DB_PATH", "grimoire.db", logg)
		dialector = sqlite.Open(path)
	case "postgres":
		host := envutil.GetEnv("POSTGRES_HOST", "localhost", logg)
		port := envutil.GetEnv("POSTGRES_PORT", "5432", logg)
		user := envutil.GetEnv("POSTGRES_USER", "postgres", logg)
		password := envutil.GetEnv("POSTGRES_PASSWORD", "", logg)
		name := envutil.GetEnv("POSTGRES_NAME", "grimoire", logg)
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, password, host, port, name,
		)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
