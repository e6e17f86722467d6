package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "dayslot"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingWindowDays    = 14
	DefaultRetentionPeriod      = 90 * 24 * time.Hour
	DefaultDefaultWeeklyQuota   = 3
	DefaultRequireJustification = false
	DefaultBookingTimezone      = "UTC"
	DefaultFacilitiesFile       = "config/facilities.yaml"

	DefaultNotificationTopic = "booking-justifications"

	DefaultMaxAvailabilityDays = 62
)
