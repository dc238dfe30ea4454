package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/PKayu/cannabis-compare-sub000/config"
	"github.com/PKayu/cannabis-compare-sub000/pkg/events"
	"github.com/PKayu/cannabis-compare-sub000/pkg/kafka"
	"github.com/PKayu/cannabis-compare-sub000/pkg/middleware"
	"github.com/PKayu/cannabis-compare-sub000/pkg/models"
	"github.com/PKayu/cannabis-compare-sub000/pkg/routes/health"
	"github.com/PKayu/cannabis-compare-sub000/pkg/routes/ingest"
	"github.com/PKayu/cannabis-compare-sub000/pkg/routes/reviewqueue"
	"github.com/PKayu/cannabis-compare-sub000/pkg/startup"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing"
	"github.com/PKayu/cannabis-compare-sub000/pkg/tracing/exporters"
)

const version = "1.0.0"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the listing batch consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func newExporter(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (sdktrace.SpanExporter, error) {
	if cfg.OTLPEndpoint == "" {
		return exporters.NewLogExporter(logger), nil
	}
	return exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
		Timeout:  10 * time.Second,
	})
}

func producerConfig(cfg *config.Config) kafka.ProducerConfig {
	producerConfig := kafka.DefaultProducerConfig()
	producerConfig.Brokers = kafka.ParseBrokers(cfg.KafkaBrokers)
	producerConfig.Topic = cfg.KafkaOutputTopic
	producerConfig.BatchSize = cfg.KafkaBatchSize
	producerConfig.BatchTimeout = time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond
	producerConfig.RequiredAcks = cfg.KafkaRequiredAcks
	producerConfig.Compression = cfg.KafkaCompression
	return producerConfig
}

func consumerConfig(cfg *config.Config) kafka.ConsumerConfig {
	consumerConfig := kafka.DefaultConsumerConfig()
	consumerConfig.Brokers = kafka.ParseBrokers(cfg.KafkaBrokers)
	consumerConfig.Topic = cfg.KafkaInputTopic
	consumerConfig.GroupID = cfg.KafkaConsumerGroup
	return consumerConfig
}

func serve(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	provider := tracing.Init(cfg.AppName, exporter)

	var (
		producer  *kafka.Producer
		publisher events.Publisher
	)
	if cfg.KafkaProducerEnabled {
		producer, err = kafka.NewProducer(producerConfig(cfg), logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		publisher = producer
	}

	a, err := newApp(ctx, cfg, logger, publisher)
	if err != nil {
		return err
	}

	checker := health.NewChecker(version)
	checker.AddCheck("database", a.db.PingContext)

	e := newServer(cfg, logger, a, checker)

	components := startup.New(logger, cfg.StartupMaxAttempts)
	components.Add(startup.Func{
		ComponentName: "database",
		OnStart:       a.db.PingContext,
		OnStop: func(context.Context) error {
			return a.Close()
		},
	})
	components.Add(startup.Func{
		ComponentName: "tracing",
		OnStop:        provider.Shutdown,
	})
	if producer != nil {
		components.Add(startup.Func{
			ComponentName: "kafka-producer",
			OnStop: func(context.Context) error {
				return producer.Close()
			},
		})
	}
	if cfg.KafkaConsumerEnabled {
		consumer, err := kafka.NewConsumer(consumerConfig(cfg), logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		checker.AddCheck("kafka-consumer", func(context.Context) error {
			logger.WithField("lag", consumer.Lag()).Debug("Kafka consumer lag")
			return nil
		})
		components.Add(startup.Func{
			ComponentName: "kafka-consumer",
			Dependencies:  []string{"database"},
			OnStart: func(ctx context.Context) error {
				return consumer.Start(ctx, func(ctx context.Context, batch *models.ListingBatch) error {
					_, err := a.processor.Process(ctx, batch)
					return err
				})
			},
			OnStop: func(context.Context) error {
				return consumer.Stop()
			},
		})
	}
	components.Add(startup.Func{
		ComponentName: "http",
		Dependencies:  []string{"database"},
		OnStart: func(context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("HTTP server stopped")
				}
			}()
			return nil
		},
		OnStop: e.Shutdown,
	})

	if err := components.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)
	logger.Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	checker.SetReady(false)
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return components.Stop(shutdownCtx)
}

func newServer(cfg *config.Config, logger ectologger.Logger, a *app, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID, middleware.HeaderReviewer},
	}))

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	reviewqueue.NewHandler(a.review).Register(v1.Group("/review-queue"))
	ingest.NewHandler(a.processor).Register(v1.Group("/ingest"))

	return e
}
