package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"dayslot/pkg/client"
	"dayslot/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BookingWindowDays    int
	RetentionPeriod      time.Duration
	DefaultWeeklyQuota   int
	RequireJustification bool
	BookingTimezone      string
	FacilitiesFile       string

	NotificationTopic string
	OtelEndpoint      string

	// Location is BookingTimezone resolved; dates and ISO weeks are computed in it.
	Location  *time.Location
	Catalogue *Catalogue

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BookingWindowDays:    getEnvNum(EnvBookingWindowDays, DefaultBookingWindowDays),
		RetentionPeriod:      getEnvDuration(EnvRetentionPeriod, DefaultRetentionPeriod),
		DefaultWeeklyQuota:   getEnvNum(EnvDefaultWeeklyQuota, DefaultDefaultWeeklyQuota),
		RequireJustification: getEnvBool(EnvRequireJustification, DefaultRequireJustification),
		BookingTimezone:      getEnvStr(EnvBookingTimezone, DefaultBookingTimezone),
		FacilitiesFile:       getEnvStr(EnvFacilitiesFile, DefaultFacilitiesFile),

		NotificationTopic: getEnvStr(EnvNotificationTopic, DefaultNotificationTopic),
		OtelEndpoint:      getEnvStr(EnvOtelEndpoint, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		cfg.Log.Fatal("Invalid booking timezone", "timezone", cfg.BookingTimezone, "error", err)
	}
	cfg.Location = loc

	catalogue, err := LoadCatalogue(cfg.FacilitiesFile)
	if err != nil {
		cfg.Log.Fatal("Failed to load facility catalogue", "path", cfg.FacilitiesFile, "error", err)
	}
	cfg.Catalogue = catalogue

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.BookingWindowDays < 0 {
		errors = append(errors, fmt.Sprintf("BookingWindowDays cannot be negative, got: %d", cfg.BookingWindowDays))
	}
	if cfg.RetentionPeriod < 24*time.Hour {
		errors = append(errors, fmt.Sprintf("RetentionPeriod must be at least 24h, got: %s", cfg.RetentionPeriod))
	}
	if cfg.DefaultWeeklyQuota < 0 {
		errors = append(errors, fmt.Sprintf("DefaultWeeklyQuota cannot be negative, got: %d", cfg.DefaultWeeklyQuota))
	}
	if cfg.Location == nil {
		errors = append(errors, fmt.Sprintf("BookingTimezone could not be resolved: %s", cfg.BookingTimezone))
	}
	if cfg.Catalogue == nil || len(cfg.Catalogue.All()) == 0 {
		errors = append(errors, "Facility catalogue must define at least one facility")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	facilities := 0
	if cfg.Catalogue != nil {
		facilities = len(cfg.Catalogue.All())
	}
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"booking_window_days", cfg.BookingWindowDays,
		"retention_period", cfg.RetentionPeriod,
		"default_weekly_quota", cfg.DefaultWeeklyQuota,
		"require_justification", cfg.RequireJustification,
		"booking_timezone", cfg.BookingTimezone,
		"facilities_file", cfg.FacilitiesFile,
		"facilities", facilities,
		"notification_topic", cfg.NotificationTopic,
		"otel_enabled", cfg.OtelEndpoint != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
