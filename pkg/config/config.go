package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server        ServerConfig        `envconfig:"SERVER"`
	Database      DatabaseConfig      `envconfig:"DB"`
	Redis         RedisConfig         `envconfig:"REDIS"`
	Storage       StorageConfig       `envconfig:"STORAGE"`
	Gladia        GladiaConfig        `envconfig:"GLADIA"`
	AssemblyAI    AssemblyAIConfig    `envconfig:"ASSEMBLYAI"`
	Transcription TranscriptionConfig `envconfig:"TRANSCRIPTION"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `split_words:"true" default:"8080"`
	Host            string   `split_words:"true" default:"0.0.0.0"`
	Environment     string   `split_words:"true" default:"development"`
	AllowedOrigins  []string `split_words:"true" default:"http://localhost:3000"`
	ShutdownTimeout int      `split_words:"true" default:"10"`
}

// DatabaseConfig holds database configuration.
// When Enabled is false jobs are kept in memory only.
type DatabaseConfig struct {
	Enabled     bool   `split_words:"true" default:"false"`
	Host        string `split_words:"true" default:"localhost"`
	Port        string `split_words:"true" default:"5432"`
	User        string `split_words:"true" default:"postgres"`
	Password    string `split_words:"true" default:"postgres"`
	Name        string `split_words:"true" default:"diarized_transcriber"`
	SSLMode     string `split_words:"true" default:"disable"`
	MaxConns    int    `split_words:"true" default:"10"`
	MinConns    int    `split_words:"true" default:"2"`
	AutoMigrate bool   `split_words:"true" default:"true"`
}

// RedisConfig holds Redis configuration. An empty Host selects the in-memory status cache.
type RedisConfig struct {
	Host     string        `split_words:"true"`
	Port     string        `split_words:"true" default:"6379"`
	Password string        `split_words:"true"`
	DB       int           `split_words:"true" default:"0"`
	TTL      time.Duration `split_words:"true" default:"24h"`
}

// StorageConfig holds storage configuration. An empty Endpoint disables artifact uploads.
type StorageConfig struct {
	Endpoint        string        `split_words:"true"`
	AccessKeyID     string        `split_words:"true"`
	SecretAccessKey string        `split_words:"true"`
	BucketName      string        `split_words:"true" default:"transcripts"`
	UseSSL          bool          `split_words:"true" default:"false"`
	PublicURL       string        `split_words:"true"`
	URLExpiry       time.Duration `split_words:"true" default:"24h"`
}

// GladiaConfig holds the Gladia v2 API settings
type GladiaConfig struct {
	APIKey  string `split_words:"true"`
	BaseURL string `split_words:"true" default:"https://api.gladia.io"`
}

// AssemblyAIConfig holds the AssemblyAI API settings
type AssemblyAIConfig struct {
	APIKey  string `split_words:"true"`
	BaseURL string `split_words:"true"`
}

// TranscriptionConfig controls the upload/submit/poll lifecycle and the job runner
type TranscriptionConfig struct {
	Provider    string `split_words:"true" default:"gladia"`
	Diarization bool   `split_words:"true" default:"true"`

	HTTPTimeout time.Duration `split_words:"true" default:"5m"`

	PollInterval    time.Duration `split_words:"true" default:"3s"`
	MaxPollInterval time.Duration `split_words:"true" default:"15s"`
	PollMultiplier  float64       `split_words:"true" default:"1.5"`
	PollJitter      float64       `split_words:"true" default:"0.2"`
	MaxPollAttempts int           `split_words:"true" default:"0"`
	PollTimeout     time.Duration `split_words:"true" default:"30m"`
	MaxPollErrors   int           `split_words:"true" default:"3"`

	// RetryRequests retries upload and submission on transient failures only.
	RetryRequests     bool `split_words:"true" default:"false"`
	MaxRequestRetries int  `split_words:"true" default:"3"`

	MaxGap            time.Duration `split_words:"true" default:"10s"`
	MaxConcurrentJobs int           `split_words:"true" default:"2"`
	JobTimeout        time.Duration `split_words:"true" default:"45m"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration with every default applied and no environment read
func Default() *Config {
	var config Config
	// The prefix matches no variable, so only default tags apply
	_ = envconfig.Process("DIARIZED_TRANSCRIBER_DEFAULTS", &config)
	return &config
}

// Validate validates the configuration
func (c *Config) Validate() error {
	t := c.Transcription
	switch strings.ToLower(t.Provider) {
	case "gladia", "assemblyai":
	default:
		return fmt.Errorf("TRANSCRIPTION_PROVIDER must be gladia or assemblyai, got %q", t.Provider)
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("TRANSCRIPTION_POLL_INTERVAL must be positive")
	}
	if t.MaxPollInterval < t.PollInterval {
		return fmt.Errorf("TRANSCRIPTION_MAX_POLL_INTERVAL must not be below TRANSCRIPTION_POLL_INTERVAL")
	}
	if t.PollMultiplier < 1 {
		return fmt.Errorf("TRANSCRIPTION_POLL_MULTIPLIER must be at least 1")
	}
	if t.PollJitter < 0 || t.PollJitter >= 1 {
		return fmt.Errorf("TRANSCRIPTION_POLL_JITTER must be in [0, 1)")
	}
	if t.MaxPollAttempts < 0 || t.MaxPollErrors < 0 || t.MaxRequestRetries < 0 {
		return fmt.Errorf("transcription attempt limits must not be negative")
	}
	if t.PollTimeout < 0 {
		return fmt.Errorf("TRANSCRIPTION_POLL_TIMEOUT must not be negative")
	}
	if t.MaxConcurrentJobs < 1 {
		return fmt.Errorf("TRANSCRIPTION_MAX_CONCURRENT_JOBS must be at least 1")
	}
	if c.Storage.Endpoint != "" && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("STORAGE_ACCESS_KEY_ID and STORAGE_SECRET_ACCESS_KEY are required when STORAGE_ENDPOINT is set")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
