package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingWindowDays    = "BOOKING_WINDOW_DAYS"
	EnvRetentionPeriod      = "RETENTION_PERIOD"
	EnvDefaultWeeklyQuota   = "DEFAULT_WEEKLY_QUOTA"
	EnvRequireJustification = "REQUIRE_JUSTIFICATION"
	EnvBookingTimezone      = "BOOKING_TIMEZONE"
	EnvFacilitiesFile       = "FACILITIES_FILE"

	EnvNotificationTopic = "NOTIFICATION_TOPIC"
	EnvOtelEndpoint      = "OTEL_ENDPOINT"
)
