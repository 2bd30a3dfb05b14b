package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Engine        EngineConfig  `yaml:"engine"`
	Ollama        OllamaConfig  `yaml:"ollama"`
	Rewards       RewardsConfig `yaml:"rewards"`
}

type EngineConfig struct {
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	// HistoryLimit caps how many prior messages are sent as chat context.
	HistoryLimit int `yaml:"history_limit"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

// RewardsConfig carries the reward schedule and rate limits. The schedule is
// injected configuration, never a process-wide constant, so tests can vary it.
type RewardsConfig struct {
	Schedule       map[string]int64 `yaml:"schedule"`
	MinRedemption  int64            `yaml:"min_redemption"`
	PromptsPerHour int64            `yaml:"prompts_per_hour"`
	OffersPerHour  int64            `yaml:"offers_per_hour"`
}

// DefaultSchedule is the fixed reward table used when the config file does
// not override it.
func DefaultSchedule() map[string]int64 {
	return map[string]int64{
		"prompt":          1,
		"tag_bonus":       1,
		"link_linkedin":   5,
		"link_github":     5,
		"link_website":    3,
		"feature_shipped": 3,
		"customer_added":  5,
		"revenue_logged":  10,
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("VAMO_ADDR", ":8080"),
		JWTSecret:     getEnv("VAMO_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("VAMO_DATABASE_PATH", "vamo.db"),
		TokenDuration: 1 * time.Hour,
		Engine: EngineConfig{
			Model:        getEnv("VAMO_MODEL", "llama3"),
			Timeout:      20 * time.Second,
			HistoryLimit: 20,
		},
		Ollama: OllamaConfig{
			BaseURL:                 getEnv("VAMO_OLLAMA_URL", "http://localhost:11434"),
			Timeout:                 30 * time.Second,
			Retries:                 3,
			Backoff:                 500 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
		Rewards: RewardsConfig{
			Schedule:       DefaultSchedule(),
			MinRedemption:  50,
			PromptsPerHour: 60,
			OffersPerHour:  5,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.Rewards.Schedule) == 0 {
		cfg.Rewards.Schedule = DefaultSchedule()
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
