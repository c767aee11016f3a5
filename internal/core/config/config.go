package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the binaries read from the environment.
type Config struct {
	Port           string
	DatabaseURL    string
	YouTubeAPIKey  string
	YouTubeTimeout time.Duration
	AdminToken     string
	LogLevel       string
	Environment    string
	CORSOrigins    []string
	MigrationsPath string
	AutoMigrate    bool

	RefreshInterval     time.Duration
	RefreshChannelDelay time.Duration
	RefreshInServer     bool
}

// Requirement names a setting a binary cannot start without.
type Requirement int

const (
	NeedDatabase Requirement = iota
	NeedYouTube
	NeedAdminToken
)

// LoadDotEnv loads .env.<ENVIRONMENT> and then .env. Values already present in
// the environment are never overwritten. It returns the files that were found.
func LoadDotEnv() []string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	var loaded []string
	for _, name := range []string{".env." + env + ".local", ".env." + env, ".env"} {
		if err := godotenv.Load(name); err == nil {
			loaded = append(loaded, name)
		}
	}
	return loaded
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		YouTubeAPIKey:  os.Getenv("YOUTUBE_API_KEY"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://db/migrations"),
	}

	var err error
	if cfg.YouTubeTimeout, err = getDuration("YOUTUBE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshChannelDelay, err = getDuration("REFRESH_CHANNEL_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInServer, err = getBool("REFRESH_IN_SERVER", true); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings a binary needs are present.
func (c *Config) Validate(reqs ...Requirement) error {
	var errs []error
	for _, r := range reqs {
		switch r {
		case NeedDatabase:
			if c.DatabaseURL == "" {
				errs = append(errs, errors.New("DATABASE_URL must be set"))
			}
		case NeedYouTube:
			if c.YouTubeAPIKey == "" {
				errs = append(errs, errors.New("YOUTUBE_API_KEY must be set"))
			}
		case NeedAdminToken:
			if c.AdminToken == "" {
				errs = append(errs, errors.New("ADMIN_TOKEN must be set"))
			}
		}
	}
	return errors.Join(errs...)
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
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
