package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hearc-ig/guideresto/pkg/config"
	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/logging"
	"github.com/hearc-ig/guideresto/pkg/mappers"
	"github.com/hearc-ig/guideresto/pkg/sequence"
	"github.com/hearc-ig/guideresto/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration file")
	seedFile := flag.String("seed", "", "YAML catalog to load (overrides seed_file)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("guideresto failed", zap.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dbURL := cfg.Database.ConnectionURL()
	logger.Info("Starting guideresto",
		zap.String("version", Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(dbURL)),
		zap.String("sequence_backend", cfg.Sequence.Backend),
		zap.Bool("cache_enabled", cfg.Cache.Enabled))

	db, err := database.NewConnection(ctx, database.ConfigFrom(&cfg.Database))
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		// golang-migrate needs a database/sql handle
		sqlDB, err := sql.Open("pgx", dbURL)
		if err != nil {
			return err
		}
		err = database.RunMigrations(sqlDB, logger)
		_ = sqlDB.Close()
		if err != nil {
			return err
		}
	}

	var seq sequence.Source = sequence.NewPostgresSource()
	if cfg.Sequence.Backend == config.SequenceBackendRedis {
		client, err := database.NewRedisClient(ctx, &cfg.Redis, nil)
		if err != nil {
			return err
		}
		defer client.Close()
		seq = sequence.NewRedisSource(client, cfg.Sequence.KeyPrefix)
	}

	session, err := db.NewSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()
	ctx = database.SetSession(ctx, session)
	logger = logger.With(zap.String("session_id", session.ID.String()))

	set := mappers.NewSet(seq, cfg.Cache.Enabled, logger)

	if cfg.SeedFile != "" {
		seed, err := services.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if _, err := services.NewSeedService(set, logger).Seed(ctx, seed); err != nil {
			return err
		}
	}

	catalog := services.NewCatalogService(set, logger)
	restaurants, err := catalog.Restaurants(ctx)
	if err != nil {
		return err
	}
	for _, r := range restaurants {
		summary, err := catalog.RestaurantSummary(ctx, r.ID)
		if err != nil {
			return err
		}
		if summary == nil {
			continue
		}
		logger.Info("Restaurant",
			zap.Int64("id", r.ID),
			zap.String("name", r.Name),
			zap.String("city", r.Address.City.Name),
			zap.String("type", r.Type.Label),
			zap.Int("likes", summary.Likes),
			zap.Int("dislikes", summary.Dislikes),
			zap.Int("comments", summary.Comments))
	}
	logger.Info("Catalog loaded", zap.Int("restaurants", len(restaurants)))
	return nil
}
