package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server ServerConfig
	Device DeviceConfig
	Relay  RelayConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// DeviceConfig holds wearable-platform connection settings. These are
// passed through to the transport layer untouched.
type DeviceConfig struct {
	PackageName   string
	APIKey        string
	WebhookSecret string
	WSURL         string
}

// RelayConfig holds the in-memory relay bounds.
type RelayConfig struct {
	QueueCapacity  int
	PollLimitMax   int
	HistoryLimit   int
	DisplayTimeout time.Duration
}

// Load reads configuration from environment variables. Defaults are
// safe for local development; the device API key and webhook secret
// must be set for a real deployment and only produce warnings here.
func Load() (*Config, error) {
	readTimeout, err := getEnvDuration("GLASSBRIDGE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("GLASSBRIDGE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("GLASSBRIDGE_RATE_LIMIT_RPS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("GLASSBRIDGE_RATE_LIMIT_BURST", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	queueCapacity, err := getEnvInt("GLASSBRIDGE_QUEUE_CAPACITY", 1000)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollLimitMax, err := getEnvInt("GLASSBRIDGE_POLL_LIMIT_MAX", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	historyLimit, err := getEnvInt("GLASSBRIDGE_HISTORY_LIMIT", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	displayTimeout, err := getEnvDuration("GLASSBRIDGE_DISPLAY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           getEnv("GLASSBRIDGE_SERVER_ADDR", ":8000"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("GLASSBRIDGE_CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Device: DeviceConfig{
			PackageName:   getEnv("GLASSBRIDGE_PACKAGE_NAME", "com.codeofhonor.glassbridge"),
			APIKey:        getEnv("GLASSBRIDGE_API_KEY", ""),
			WebhookSecret: getEnv("GLASSBRIDGE_WEBHOOK_SECRET", ""),
			WSURL:         getEnv("GLASSBRIDGE_DEVICE_WS_URL", ""),
		},
		Relay: RelayConfig{
			QueueCapacity:  queueCapacity,
			PollLimitMax:   pollLimitMax,
			HistoryLimit:   historyLimit,
			DisplayTimeout: displayTimeout,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds and warns on missing device credentials.
func (c *Config) validate() error {
	if c.Relay.QueueCapacity < 1 {
		return fmt.Errorf("GLASSBRIDGE_QUEUE_CAPACITY must be >= 1, got %d", c.Relay.QueueCapacity)
	}
	if c.Relay.PollLimitMax < 1 {
		return fmt.Errorf("GLASSBRIDGE_POLL_LIMIT_MAX must be >= 1, got %d", c.Relay.PollLimitMax)
	}
	if c.Relay.HistoryLimit < 1 {
		return fmt.Errorf("GLASSBRIDGE_HISTORY_LIMIT must be >= 1, got %d", c.Relay.HistoryLimit)
	}
	if c.Relay.DisplayTimeout <= 0 {
		return fmt.Errorf("GLASSBRIDGE_DISPLAY_TIMEOUT must be positive, got %s", c.Relay.DisplayTimeout)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("GLASSBRIDGE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("GLASSBRIDGE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("GLASSBRIDGE_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("GLASSBRIDGE_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}

	if c.Device.APIKey == "" {
		log.Warn().Msg("GLASSBRIDGE_API_KEY not set; device connection disabled")
	}
	if c.Device.WebhookSecret == "" {
		log.Warn().Msg("GLASSBRIDGE_WEBHOOK_SECRET not set; webhook signature verification disabled")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
