package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ErrConfig marks bad configuration or missing credentials.
var ErrConfig = errors.New("invalid configuration")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	AutoDevAPIKey     string
	MarketcheckAPIKey string

	StoreDriver string
	StorePath   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	PrioritiesFile string

	PageSize   int
	Delay      time.Duration
	Timeout    time.Duration
	MaxRetries int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		AutoDevAPIKey:     getEnv("AUTODEV_API_KEY", ""),
		MarketcheckAPIKey: getEnv("MARKETCHECK_API_KEY", ""),

		StoreDriver: getEnv("UNIFIED_DB_DRIVER", "sqlite"),
		StorePath:   getEnv("UNIFIED_DB_PATH", "data/unified_vehicles.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "listings"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "unified_vehicles"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		PrioritiesFile: getEnv("SOURCE_PRIORITIES_FILE", ""),

		PageSize:   getEnvInt("PAGE_SIZE", 250),
		Delay:      getEnvDuration("REQUEST_DELAY", time.Second),
		Timeout:    getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		MaxRetries: getEnvInt("MAX_RETRIES", 5),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// StoreDSN returns the DSN for the configured store driver.
func (c *Config) StoreDSN() string {
	switch c.StoreDriver {
	case "postgres", "postgresql", "pg":
		return c.DSN()
	}
	return c.StorePath
}

// APIKey returns the credential for source.
func (c *Config) APIKey(source string) (string, error) {
	var key, env string
	switch source {
	case "autodev":
		key, env = c.AutoDevAPIKey, "AUTODEV_API_KEY"
	case "marketcheck":
		key, env = c.MarketcheckAPIKey, "MARKETCHECK_API_KEY"
	default:
		return "", fmt.Errorf("%w: unknown source %q", ErrConfig, source)
	}
	if key == "" {
		return "", fmt.Errorf("%w: %s environment variable is required for %s fetches", ErrConfig, env, source)
	}
	return key, nil
}

type priorityFile struct {
	Priorities map[string]int `toml:"priorities"`
}

// LoadPriorities reads a source priority table from a TOML file:
//
//	[priorities]
//	marketcheck = 10
//	autodev = 5
func LoadPriorities(path string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open priorities: %v", ErrConfig, err)
	}
	defer file.Close()

	var pf priorityFile
	if err := toml.NewDecoder(file).Decode(&pf); err != nil {
		return nil, fmt.Errorf("%w: decode priorities %q: %v", ErrConfig, path, err)
	}
	if len(pf.Priorities) == 0 {
		return nil, fmt.Errorf("%w: %q has no [priorities] entries", ErrConfig, path)
	}
	return pf.Priorities, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
