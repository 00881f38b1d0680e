package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	JWTSecret   string

	// RTC provider (OpenVidu-compatible REST API).
	RTCURL     string
	RTCDomain  string
	RTCSecret  string
	RTCTimeout time.Duration

	CORSAllowedOrigins []string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RTCURL:      os.Getenv("RTC_URL"),
		RTCDomain:   os.Getenv("RTC_DOMAIN"),
		RTCSecret:   os.Getenv("RTC_SECRET"),
		RTCTimeout:  time.Duration(getEnvInt("RTC_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = []string{origins}
	} else {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "JWT_SECRET", value: c.JWTSecret},
		{name: "RTC_URL", value: c.RTCURL},
		{name: "RTC_DOMAIN", value: c.RTCDomain},
		{name: "RTC_SECRET", value: c.RTCSecret},
	}
}

// Validate checks the required fields and value ranges.
func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.RTCTimeout <= 0 {
		return fmt.Errorf("RTC_TIMEOUT_SECONDS must be positive, got %s", c.RTCTimeout)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
