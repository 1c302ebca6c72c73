package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Completion CompletionConfig `yaml:"completion"`
	Advisors   AdvisorsConfig   `yaml:"advisors"`
	Web        WebConfig        `yaml:"web"`
	NATS       NATSConfig       `yaml:"nats"`
	Store      StoreConfig      `yaml:"store"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Forge      ForgeConfig      `yaml:"forge"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Vault      VaultConfig      `yaml:"vault"`
}

type CompletionConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	APIKeySecret string        `yaml:"api_key_secret"` // name of a vault secret holding the key
	Model        string        `yaml:"model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
}

// AdvisorDefinition overrides or extends the built-in advisor panel.
type AdvisorDefinition struct {
	Name   string `yaml:"name"`
	Emoji  string `yaml:"emoji"`
	Title  string `yaml:"title"`
	Prompt string `yaml:"prompt"`
}

type AdvisorsConfig struct {
	BasePath    string                       `yaml:"base_path"`
	Order       []string                     `yaml:"order"`
	Definitions map[string]AdvisorDefinition `yaml:"definitions"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ForgeConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

type TelegramConfig struct {
	Token     string  `yaml:"token"`
	AllowFrom []int64 `yaml:"allow_from"`
}

type VaultConfig struct {
	Passphrase string `yaml:"passphrase"`
}

func defaults() Config {
	return Config{
		Completion: CompletionConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Advisors: AdvisorsConfig{
			BasePath: "data/advisors",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Store: StoreConfig{
			Path: "data/boardroom.db",
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
		},
		Forge: ForgeConfig{
			PollInterval: 5 * time.Second,
			MaxWait:      10 * time.Minute,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("BOARDROOM_CONFIG")
	if path == "" {
		path = "config/boardroom.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("BOARDROOM_COMPLETION_URL"); v != "" {
		cfg.Completion.BaseURL = v
	}
	if v := os.Getenv("BOARDROOM_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("BOARDROOM_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("BOARDROOM_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("BOARDROOM_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
	if v := os.Getenv("BOARDROOM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("BOARDROOM_ADVISORS_BASE"); v != "" {
		cfg.Advisors.BasePath = v
	}
	if v := os.Getenv("BOARDROOM_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("BOARDROOM_FORGE_URL"); v != "" {
		cfg.Forge.BaseURL = v
	}
	if v := os.Getenv("BOARDROOM_VAULT_PASSPHRASE"); v != "" {
		cfg.Vault.Passphrase = v
	}
}
