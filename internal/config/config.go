package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "regenmon.yaml"

type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	AI        AIConfig        `yaml:"ai"`
	Claude    ClaudeConfig    `yaml:"claude"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Pet       PetConfig       `yaml:"pet"`
	Storage   StorageConfig   `yaml:"storage"`
	Chat      ChatConfig      `yaml:"chat"`
	Hub       HubConfig       `yaml:"hub"`
	Proactive ProactiveConfig `yaml:"proactive"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude", "gemini", or "" (auto-detect)
}

type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	// GuildID registers slash commands on one guild (instant); blank is global.
	GuildID string `yaml:"guild_id"`
	// ConnectRetries bounds gateway connection attempts at startup.
	ConnectRetries uint64 `yaml:"connect_retries"`
}

type ClaudeConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	MaxTools  int    `yaml:"max_tool_iterations"`
	// Sliding window rate limiter
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PetConfig struct {
	HungerModel bool `yaml:"hunger_model"`
	CreatorFlow bool `yaml:"creator_flow"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

type ChatConfig struct {
	Mode        string        `yaml:"mode"` // "auto", "llm" or "rules"
	MinDelay    time.Duration `yaml:"min_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxMessages int           `yaml:"max_messages"`
}

type HubConfig struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	AppURL       string        `yaml:"app_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryWait    time.Duration `yaml:"retry_wait"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

type ProactiveConfig struct {
	Enabled          bool          `yaml:"enabled"`
	CheckInterval    time.Duration `yaml:"check_interval"`
	DistressCooldown time.Duration `yaml:"distress_cooldown"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // blank disables /metrics
}

// Load reads the YAML file at path (missing is fine), then .env, then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	// Load .env file first (from working dir)
	loadDotEnv(".env")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist, use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Env vars override config file (secrets live in .env or environment)
	overrides := []struct {
		env string
		dst *string
	}{
		{"DISCORD_BOT_TOKEN", &cfg.Discord.BotToken},
		{"DISCORD_GUILD_ID", &cfg.Discord.GuildID},
		{"ANTHROPIC_API_KEY", &cfg.Claude.APIKey},
		{"GOOGLE_API_KEY", &cfg.Gemini.APIKey},
		{"AI_PROVIDER", &cfg.AI.Provider},
		{"REGENMON_STORAGE", &cfg.Storage.Backend},
		{"REGENMON_STORAGE_PATH", &cfg.Storage.Path},
		{"REGENMON_CHAT_MODE", &cfg.Chat.Mode},
		{"REGENMON_HUB_URL", &cfg.Hub.BaseURL},
	}
	for _, o := range overrides {
		if env := strings.TrimSpace(os.Getenv(o.env)); env != "" {
			*o.dst = env
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads a .env file and sets env vars that aren't already set.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // no .env, that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		// Strip surrounding quotes
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') ||
				(val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		// Only set if not already in environment
		if os.Getenv(key) == "" && val != "" {
			os.Setenv(key, val)
		}
	}
}

func defaults() *Config {
	return &Config{
		Discord: DiscordConfig{
			ConnectRetries: 5,
		},
		Claude: ClaudeConfig{
			Model:      "claude-sonnet-4-5-20250929",
			MaxTokens:  1024,
			MaxTools:   5,
			RateLimit:  10,
			RateWindow: time.Minute,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Pet: PetConfig{
			HungerModel: true,
			CreatorFlow: true,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data",
		},
		Chat: ChatConfig{
			Mode:        "auto",
			MinDelay:    600 * time.Millisecond,
			MaxDelay:    1800 * time.Millisecond,
			MaxMessages: 30,
		},
		Hub: HubConfig{
			Enabled:      true,
			BaseURL:      "https://regenmon-final.vercel.app/api",
			Timeout:      15 * time.Second,
			RetryWait:    2 * time.Second,
			SyncInterval: 5 * time.Minute,
		},
		Proactive: ProactiveConfig{
			Enabled:          true,
			CheckInterval:    60 * time.Second,
			DistressCooldown: 30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
		},
	}
}

// Validate checks value ranges. Discord credentials are checked separately
// by ValidateDiscord since only the bot needs them.
func (c *Config) Validate() error {
	var errs []error
	switch c.AI.Provider {
	case "", "claude", "gemini":
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be claude or gemini, got %q", c.AI.Provider))
	}
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be file or sqlite, got %q", c.Storage.Backend))
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage.path is empty"))
	}
	switch c.Chat.Mode {
	case "", "auto", "llm", "rules":
	default:
		errs = append(errs, fmt.Errorf("chat.mode must be auto, llm or rules, got %q", c.Chat.Mode))
	}
	if c.Chat.MinDelay < 0 || c.Chat.MaxDelay < c.Chat.MinDelay {
		errs = append(errs, fmt.Errorf("chat delays must satisfy 0 <= min_delay <= max_delay"))
	}
	if c.Chat.MaxMessages < 1 {
		errs = append(errs, fmt.Errorf("chat.max_messages must be positive"))
	}
	if c.Hub.Enabled {
		if c.Hub.BaseURL == "" {
			errs = append(errs, errors.New("hub.base_url is empty"))
		}
		if c.Hub.Timeout <= 0 || c.Hub.RetryWait < 0 || c.Hub.SyncInterval < 0 {
			errs = append(errs, errors.New("hub durations must be positive"))
		}
	}
	if c.Proactive.Enabled && c.Proactive.CheckInterval <= 0 {
		errs = append(errs, errors.New("proactive.check_interval must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateDiscord checks what the bot needs to connect.
func (c *Config) ValidateDiscord() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("missing DISCORD_BOT_TOKEN, set it in .env or the environment")
	}
	return nil
}
