package config

import (
	"fmt"
	"os"
)

type Config struct {
	DatabaseURL string // FLEETDECK_DATABASE_URL (required)
	HTTPAddr    string // FLEETDECK_HTTP_ADDR (default ":8080")
	NATSURL     string // FLEETDECK_NATS_URL (optional, empty = no events)
	AuthToken   string // FLEETDECK_AUTH_TOKEN (optional, empty = auth disabled)

	// Behavioral tracker settings
	UEBALogPath    string // FLEETDECK_UEBA_LOG (default "fleetdeck-events.json")
	UEBAS3Bucket   string // FLEETDECK_UEBA_S3_BUCKET (enables S3 flush when set)
	UEBAS3Endpoint string // FLEETDECK_UEBA_S3_ENDPOINT (custom endpoint for MinIO)
	UEBAS3Region   string // FLEETDECK_UEBA_S3_REGION (default "us-east-1")
	UEBAS3Prefix   string // FLEETDECK_UEBA_S3_PREFIX (default "fleetdeck/events")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("FLEETDECK_DATABASE_URL"),
		HTTPAddr:       envOrDefault("FLEETDECK_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("FLEETDECK_NATS_URL"),
		AuthToken:      os.Getenv("FLEETDECK_AUTH_TOKEN"),
		UEBALogPath:    envOrDefault("FLEETDECK_UEBA_LOG", "fleetdeck-events.json"),
		UEBAS3Bucket:   os.Getenv("FLEETDECK_UEBA_S3_BUCKET"),
		UEBAS3Endpoint: os.Getenv("FLEETDECK_UEBA_S3_ENDPOINT"),
		UEBAS3Region:   envOrDefault("FLEETDECK_UEBA_S3_REGION", "us-east-1"),
		UEBAS3Prefix:   envOrDefault("FLEETDECK_UEBA_S3_PREFIX", "fleetdeck/events"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("FLEETDECK_DATABASE_URL is required")
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
