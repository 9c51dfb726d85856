// Package config loads the server configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	// FrontendURLs are the allowed CORS origins. The first entry is also the
	// base for the payment success and cancel return URLs.
	FrontendURLs []string

	ContentAPIURL string
	HotelAPIURL   string

	UnsplashAccessKey string
	StripeSecretKey   string

	// SessionDBPath is the Badger directory. Empty keeps sessions in memory.
	SessionDBPath string
	SessionTTL    time.Duration

	// DatabaseURL enables the orders ledger when set.
	DatabaseURL string

	GazetteerPath string

	GatewayTimeout  time.Duration
	DebounceDelay   time.Duration
	PrefetchTimeout time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a malformed duration is, and the error names the variable.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		FrontendURLs:      splitCSV(getEnv("FRONTEND_URL", "http://localhost:3000")),
		ContentAPIURL:     strings.TrimRight(getEnv("CONTENT_API_URL", "https://mominaabid.pythonanywhere.com"), "/"),
		HotelAPIURL:       strings.TrimRight(getEnv("HOTEL_API_URL", "https://honesttravel.pythonanywhere.com"), "/"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		SessionDBPath:     os.Getenv("SESSION_DB_PATH"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		GazetteerPath:     os.Getenv("GAZETTEER_PATH"),
	}

	var bad []string
	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"SESSION_TTL", 720 * time.Hour, &cfg.SessionTTL},
		{"GATEWAY_TIMEOUT", 30 * time.Second, &cfg.GatewayTimeout},
		{"DEBOUNCE_DELAY", 300 * time.Millisecond, &cfg.DebounceDelay},
		{"PREFETCH_TIMEOUT", 45 * time.Second, &cfg.PrefetchTimeout},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.fallback)
		if err != nil {
			bad = append(bad, d.key)
			continue
		}
		*d.dst = v
	}
	if len(bad) > 0 {
		return Config{}, fmt.Errorf("invalid duration in environment variables: %s", strings.Join(bad, ", "))
	}

	return cfg, nil
}

// FrontendBase is the origin used to build payment return URLs.
func (c Config) FrontendBase() string {
	if len(c.FrontendURLs) == 0 {
		return "http://localhost:3000"
	}
	return strings.TrimRight(c.FrontendURLs[0], "/")
}

// Release reports whether gin runs in release mode.
func (c Config) Release() bool {
	return c.GinMode == "release"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: %q is not a valid duration", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
