package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PKayu/cannabis-compare-sub000/config"
	"github.com/PKayu/cannabis-compare-sub000/db/migrations"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/brand"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/price"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/product"
	"github.com/PKayu/cannabis-compare-sub000/internal/repositories/reviewqueue"
	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/matching"
	"github.com/PKayu/cannabis-compare-sub000/pkg/processor"
	"github.com/PKayu/cannabis-compare-sub000/pkg/resolver"
	"github.com/PKayu/cannabis-compare-sub000/pkg/review"
)

// app holds the wired catalog services shared by every command.
type app struct {
	config    *config.Config
	logger    ectologger.Logger
	db        database.DB
	resolver  *resolver.EntityResolver
	processor *processor.Processor
	review    *review.Service
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	var zapConfig zap.Config
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		Path:            cfg.DatabasePath,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

func resolverConfig(cfg *config.Config) resolver.Config {
	return resolver.Config{
		Similarity: matching.Config{
			NameWeight:         cfg.NameWeight,
			BrandWeight:        cfg.BrandWeight,
			PotencyWeight:      cfg.PotencyWeight,
			PotencyTolerance:   cfg.PotencyTolerance,
			AutoMergeThreshold: cfg.AutoMergeThreshold,
			ReviewThreshold:    cfg.ReviewThreshold,
		},
		GramTolerance:   cfg.VariantGramTolerance,
		UnknownBrand:    cfg.UnknownBrand,
		DefaultCategory: cfg.DefaultCategory,
	}
}

func migrate(cfg *config.Config, db database.DB, logger ectologger.Logger) error {
	version := cfg.DatabaseMigrationVersion
	if version < 0 {
		version = 0
	}
	service := database.NewMigrationService(logger, &database.MigrationConfig{
		Source:       migrations.FS,
		Version:      uint(version),
		Force:        cfg.DatabaseMigrationForce,
		AutoRollback: cfg.DatabaseMigrationAutoRollback,
	})
	return service.Migrate(db)
}

func loadConfig() (*config.Config, ectologger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newApp connects to the catalog database and wires the resolution services.
// publisher may be nil.
func newApp(ctx context.Context, cfg *config.Config, logger ectologger.Logger, publisher events.Publisher) (*app, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.Open(connectCtx, databaseConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseMigrateOnStart {
		if err := migrate(cfg, db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	products := product.NewRepository(db, logger)
	brands := brand.NewRepository(db, logger)
	prices := price.NewRepository(db, logger)
	entries := reviewqueue.NewRepository(db, logger)

	entityResolver := resolver.NewEntityResolver(db, products, brands, entries, resolverConfig(cfg), logger)
	emitter := events.NewEmitter(publisher, logger)

	return &app{
		config:    cfg,
		logger:    logger,
		db:        db,
		resolver:  entityResolver,
		processor: processor.NewProcessor(entityResolver, prices, emitter, logger),
		review:    review.NewService(db, entries, products, prices, entityResolver, emitter, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
