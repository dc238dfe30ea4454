package config

import (
	"fmt"
	"math"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName                       string   `mapstructure:"app_name"`
	Port                          int      `mapstructure:"port"`
	LogLevel                      string   `mapstructure:"log_level"`
	PrettyLogs                    bool     `mapstructure:"pretty_logs"`
	HttpServerWriteTimeoutSeconds int      `mapstructure:"http_server_write_timeout_seconds"`
	HttpServerReadTimeoutSeconds  int      `mapstructure:"http_server_read_timeout_seconds"`
	HttpServerIdleTimeoutSeconds  int      `mapstructure:"http_server_idle_timeout_seconds"`
	MaxHeaderBytes                int      `mapstructure:"http_server_max_header_bytes"`
	AllowOrigins                  []string `mapstructure:"http_server_allow_origins"`
	StartupMaxAttempts            int      `mapstructure:"startup_max_attempts"`

	// Tracing
	OTLPEndpoint string `mapstructure:"otel_exporter_otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otel_exporter_otlp_insecure"`

	// Catalog database
	DatabaseDriver                string        `mapstructure:"db_driver"`
	DatabaseHost                  string        `mapstructure:"db_host"`
	DatabasePort                  string        `mapstructure:"db_port"`
	DatabaseUserName              string        `mapstructure:"db_user_name"`
	DatabasePassword              string        `mapstructure:"db_password"`
	DatabaseName                  string        `mapstructure:"db_name"`
	DatabaseSSLMode               string        `mapstructure:"db_ssl_mode"`
	DatabasePath                  string        `mapstructure:"db_path"`
	DatabaseMaxOpenConns          int           `mapstructure:"db_max_open_conns"`
	DatabaseMaxIdleConns          int           `mapstructure:"db_max_idle_conns"`
	DatabaseConnMaxLifetime       time.Duration `mapstructure:"db_conn_max_lifetime"`
	DatabaseMigrateOnStart        bool          `mapstructure:"db_migrate_on_start"`
	DatabaseMigrationVersion      int           `mapstructure:"db_migration_version"`
	DatabaseMigrationForce        int           `mapstructure:"db_migration_force"`
	DatabaseMigrationAutoRollback bool          `mapstructure:"db_migration_auto_rollback"`

	// Kafka consumer (scraper batches)
	KafkaBrokers         []string `mapstructure:"kafka_brokers"`
	KafkaInputTopic      string   `mapstructure:"kafka_input_topic"`
	KafkaConsumerGroup   string   `mapstructure:"kafka_consumer_group"`
	KafkaConsumerEnabled bool     `mapstructure:"kafka_consumer_enabled"`

	// Kafka producer (catalog events)
	KafkaProducerEnabled bool   `mapstructure:"kafka_producer_enabled"`
	KafkaOutputTopic     string `mapstructure:"kafka_output_topic"`
	KafkaBatchSize       int    `mapstructure:"kafka_batch_size"`
	KafkaBatchTimeout    int    `mapstructure:"kafka_batch_timeout_ms"`
	KafkaRequiredAcks    int    `mapstructure:"kafka_required_acks"`
	KafkaCompression     string `mapstructure:"kafka_compression"`

	// Resolution
	AutoMergeThreshold   float64 `mapstructure:"auto_merge_threshold"`
	ReviewThreshold      float64 `mapstructure:"review_threshold"`
	NameWeight           float64 `mapstructure:"name_weight"`
	BrandWeight          float64 `mapstructure:"brand_weight"`
	PotencyWeight        float64 `mapstructure:"potency_weight"`
	PotencyTolerance     float64 `mapstructure:"potency_tolerance"`
	VariantGramTolerance float64 `mapstructure:"variant_gram_tolerance"`
	UnknownBrand         string  `mapstructure:"unknown_brand"`
	DefaultCategory      string  `mapstructure:"default_category"`
}

// Load reads an optional .env file, then config.yaml and the environment.
// Environment variables use the upper-case key names, e.g. AUTO_MERGE_THRESHOLD.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "catalog-resolver")
	v.SetDefault("port", 3004)
	v.SetDefault("log_level", "info")
	v.SetDefault("pretty_logs", false)
	v.SetDefault("http_server_write_timeout_seconds", 10)
	v.SetDefault("http_server_read_timeout_seconds", 10)
	v.SetDefault("http_server_idle_timeout_seconds", 10)
	v.SetDefault("http_server_max_header_bytes", 64000)
	v.SetDefault("http_server_allow_origins", []string{"*"})
	v.SetDefault("startup_max_attempts", 5)

	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_insecure", true)

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user_name", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "catalog")
	v.SetDefault("db_ssl_mode", "disable")
	v.SetDefault("db_path", "")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", "5m")
	v.SetDefault("db_migrate_on_start", true)
	v.SetDefault("db_migration_version", 0)
	v.SetDefault("db_migration_force", 0)
	v.SetDefault("db_migration_auto_rollback", true)

	v.SetDefault("kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("kafka_input_topic", "scraped-listings")
	v.SetDefault("kafka_consumer_group", "catalog-resolver")
	v.SetDefault("kafka_consumer_enabled", false)
	v.SetDefault("kafka_producer_enabled", false)
	v.SetDefault("kafka_output_topic", "catalog-events")
	v.SetDefault("kafka_batch_size", 100)
	v.SetDefault("kafka_batch_timeout_ms", 100)
	v.SetDefault("kafka_required_acks", 1)
	v.SetDefault("kafka_compression", "snappy")

	v.SetDefault("auto_merge_threshold", 0.90)
	v.SetDefault("review_threshold", 0.60)
	v.SetDefault("name_weight", 0.70)
	v.SetDefault("brand_weight", 0.20)
	v.SetDefault("potency_weight", 0.10)
	v.SetDefault("potency_tolerance", 30.0)
	v.SetDefault("variant_gram_tolerance", 0.01)
	v.SetDefault("unknown_brand", "Unknown")
	v.SetDefault("default_category", "other")
}

func Validate(cfg *Config) error {
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return fmt.Errorf("db driver must be 'postgres' or 'sqlite', got: %s", cfg.DatabaseDriver)
	}

	for name, value := range map[string]float64{
		"auto_merge_threshold": cfg.AutoMergeThreshold,
		"review_threshold":     cfg.ReviewThreshold,
		"name_weight":          cfg.NameWeight,
		"brand_weight":         cfg.BrandWeight,
		"potency_weight":       cfg.PotencyWeight,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be within [0, 1], got: %v", name, value)
		}
	}

	if cfg.ReviewThreshold > cfg.AutoMergeThreshold {
		return fmt.Errorf("review_threshold (%v) must not exceed auto_merge_threshold (%v)", cfg.ReviewThreshold, cfg.AutoMergeThreshold)
	}

	if sum := cfg.NameWeight + cfg.BrandWeight + cfg.PotencyWeight; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("name, brand and potency weights must sum to 1, got: %v", sum)
	}

	if cfg.PotencyTolerance <= 0 {
		return fmt.Errorf("potency_tolerance must be positive, got: %v", cfg.PotencyTolerance)
	}

	if cfg.VariantGramTolerance < 0 {
		return fmt.Errorf("variant_gram_tolerance must not be negative, got: %v", cfg.VariantGramTolerance)
	}

	if cfg.UnknownBrand == "" {
		return fmt.Errorf("unknown_brand must not be empty")
	}

	if cfg.KafkaConsumerEnabled && len(cfg.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka_brokers is required when the consumer is enabled")
	}

	return nil
}
