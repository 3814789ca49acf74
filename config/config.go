package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Game          GameConfig          `yaml:"game"`
	Moderation    ModerationConfig    `yaml:"moderation"`
	Smoother      SmootherConfig      `yaml:"smoother"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL      string `yaml:"url"`
	NKeySeed string `yaml:"nkey_seed"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// HTTPConfig holds the action layer listener and its per-IP rate limit.
type HTTPConfig struct {
	Address   string  `yaml:"address"`
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// GameConfig holds game rules that are not stored per room.
type GameConfig struct {
	MaxStars             int           `yaml:"max_stars"`
	ForgivenessBuffer    time.Duration `yaml:"forgiveness_buffer"`
	DefaultAnswerSeconds int           `yaml:"default_answer_seconds"`
	DefaultVoteSeconds   int           `yaml:"default_vote_seconds"`
}

// ModerationConfig points at word lists replacing the embedded defaults.
type ModerationConfig struct {
	ProfanityListPath string `yaml:"profanity_list_path"`
	SlurListPath      string `yaml:"slur_list_path"`
	DictionaryPath    string `yaml:"dictionary_path"`
}

// SmootherConfig holds the text smoothing client settings. An empty endpoint
// disables smoothing.
type SmootherConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := defaults()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		JWT: JWTConfig{
			DefaultTTL: 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Address:   ":8080",
			RateLimit: 10,
			RateBurst: 20,
		},
		Game: GameConfig{
			MaxStars:             5,
			ForgivenessBuffer:    2 * time.Second,
			DefaultAnswerSeconds: 90,
			DefaultVoteSeconds:   60,
		},
		Smoother: SmootherConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// applyEnv overrides cfg with the environment variables that are set.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_DEFAULT_TTL value: %w", err)
		}
		cfg.JWT.DefaultTTL = d
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("MAX_STARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_STARS value: %w", err)
		}
		cfg.Game.MaxStars = n
	}
	if v := os.Getenv("FORGIVENESS_BUFFER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FORGIVENESS_BUFFER value: %w", err)
		}
		cfg.Game.ForgivenessBuffer = d
	}
	if v := os.Getenv("SMOOTHER_ENDPOINT"); v != "" {
		cfg.Smoother.Endpoint = v
	}
	if v := os.Getenv("SMOOTHER_CLIENT_SECRET"); v != "" {
		cfg.Smoother.ClientSecret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	return nil
}

// AnswerWindow is the default answering window of rooms without their own.
func (g GameConfig) AnswerWindow() time.Duration {
	return time.Duration(g.DefaultAnswerSeconds) * time.Second
}

// VoteWindow is the default voting window of rooms without their own.
func (g GameConfig) VoteWindow() time.Duration {
	return time.Duration(g.DefaultVoteSeconds) * time.Second
}
