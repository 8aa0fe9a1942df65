package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"petitiondesk/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig
	Store      StoreConfig
	Server     ServerConfig
	Transcribe TranscribeConfig
	LogLevel   string
}

// DataConfig holds dataset and training settings
type DataConfig struct {
	File string
	Seed int64
}

// StoreConfig selects and configures the model blob backend
type StoreConfig struct {
	Kind     string
	Dir      string
	DBDriver string
	DBDSN    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	APIPort        string
	GinMode        string
	SessionIdleTTL time.Duration
	MaxSessions    int
}

// TranscribeConfig holds speech-to-text endpoint settings. An empty URL selects
// the static transcriber.
type TranscribeConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Model store kinds
const (
	StoreLocal = "local"
	StoreSQL   = "sql"
)

// LoadDotEnv reads a .env file into the environment if one exists. Variables
// already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to load %s", p)
		}
	}
	return nil
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:       *loadDataConfig(),
		Store:      *loadStoreConfig(),
		Server:     *loadServerConfig(),
		Transcribe: *loadTranscribeConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File: getEnvOrDefault("DATA_FILE", "petitions_dataset.csv"),
		Seed: int64(getEnvIntOrDefault("SEED", 42)),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Kind:     getEnvOrDefault("MODEL_STORE", StoreLocal),
		Dir:      getEnvOrDefault("MODEL_DIR", "./models"),
		DBDriver: getEnvOrDefault("MODEL_DB_DRIVER", "sqlite3"),
		DBDSN:    getEnvOrDefault("MODEL_DB_DSN", "file:models.db?cache=shared"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		APIPort:        getEnvOrDefault("API_PORT", "8081"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		SessionIdleTTL: getEnvDurationOrDefault("SESSION_IDLE_TTL", 2*time.Hour),
		MaxSessions:    getEnvIntOrDefault("MAX_SESSIONS", 10000),
	}
}

func loadTranscribeConfig() *TranscribeConfig {
	return &TranscribeConfig{
		URL:     getEnvOrDefault("TRANSCRIBE_URL", ""),
		APIKey:  getEnvOrDefault("TRANSCRIBE_API_KEY", ""),
		Model:   getEnvOrDefault("TRANSCRIBE_MODEL", "whisper-1"),
		Timeout: getEnvDurationOrDefault("TRANSCRIBE_TIMEOUT", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	switch config.Store.Kind {
	case StoreLocal:
		if config.Store.Dir == "" {
			return errors.ConfigInvalid("MODEL_DIR is required for the local model store")
		}
	case StoreSQL:
		if config.Store.DBDriver != "sqlite3" && config.Store.DBDriver != "postgres" {
			return errors.ConfigInvalid("MODEL_DB_DRIVER must be sqlite3 or postgres")
		}
		if config.Store.DBDSN == "" {
			return errors.ConfigInvalid("MODEL_DB_DSN is required for the sql model store")
		}
	default:
		return errors.ConfigInvalid("MODEL_STORE must be local or sql")
	}
	if config.Server.SessionIdleTTL <= 0 {
		return errors.ConfigInvalid("SESSION_IDLE_TTL must be positive")
	}
	if config.Server.MaxSessions <= 0 {
		return errors.ConfigInvalid("MAX_SESSIONS must be positive")
	}
	if config.Transcribe.Timeout <= 0 {
		return errors.ConfigInvalid("TRANSCRIBE_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
