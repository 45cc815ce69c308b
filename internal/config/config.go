// Package config loads guildhall configuration from config.yaml and
// GUILDHALL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Guildhall configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

bot:
  # token:
  # guild_id:
  prefix: "!"
  roles:
    # verified:
    # potential:
    # prospective:
    # disciple:
  channels:
    # log:
    # challenge_log:

web:
  addr: ":8080"
  # base_url: https://example.org
  # log_webhook:

auth:
  # token_secret:
  # email_key:
  token_ttl: 30m

oauth:
  # client_id:
  # client_secret:
  # redirect_url:

smtp:
  # host:
  port: 25
  # from:
  allowed_domains: []
`

// Roles holds the guild role ids the bot manages.
type Roles struct {
	Verified    string `mapstructure:"verified" validate:"required"`
	Potential   string `mapstructure:"potential" validate:"required"`
	Prospective string `mapstructure:"prospective"`
	Disciple    string `mapstructure:"disciple"`
}

// Channels holds the guild channel ids the bot posts to.
type Channels struct {
	Log          string `mapstructure:"log"`
	ChallengeLog string `mapstructure:"challenge_log"`
}

// Bot configures the Discord bot process.
type Bot struct {
	Token    string   `mapstructure:"token" validate:"required"`
	GuildID  string   `mapstructure:"guild_id" validate:"required"`
	Prefix   string   `mapstructure:"prefix"`
	Roles    Roles    `mapstructure:"roles"`
	Channels Channels `mapstructure:"channels"`
}

// Web configures the web front-end.
type Web struct {
	Addr       string `mapstructure:"addr" validate:"required"`
	BaseURL    string `mapstructure:"base_url" validate:"required,url"`
	LogWebhook string `mapstructure:"log_webhook" validate:"omitempty,url"`
}

// Auth configures token signing and email sealing.
type Auth struct {
	TokenSecret string        `mapstructure:"token_secret" validate:"required"`
	EmailKey    string        `mapstructure:"email_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// OAuth configures Discord OAuth for the web sign-in.
type OAuth struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	RedirectURL  string `mapstructure:"redirect_url" validate:"required,url"`
}

// SMTP configures the verification mailer.
type SMTP struct {
	Host           string   `mapstructure:"host" validate:"required"`
	Port           int      `mapstructure:"port"`
	From           string   `mapstructure:"from" validate:"required,email"`
	AllowedDomains []string `mapstructure:"allowed_domains" validate:"min=1"`
}

// Config is the full guildhall configuration. Sections are validated by the
// commands that need them, so a web-only deployment does not need a bot
// token.
type Config struct {
	DataDir string `mapstructure:"data_dir"`
	Bot     Bot    `mapstructure:"bot"`
	Web     Web    `mapstructure:"web"`
	Auth    Auth   `mapstructure:"auth"`
	OAuth   OAuth  `mapstructure:"oauth"`
	SMTP    SMTP   `mapstructure:"smtp"`
}

// configKeys lists every config key so GUILDHALL_* environment variables
// reach Unmarshal even when the key is absent from config.yaml.
var configKeys = []string{
	"data_dir",
	"bot.token",
	"bot.guild_id",
	"bot.prefix",
	"bot.roles.verified",
	"bot.roles.potential",
	"bot.roles.prospective",
	"bot.roles.disciple",
	"bot.channels.log",
	"bot.channels.challenge_log",
	"web.addr",
	"web.base_url",
	"web.log_webhook",
	"auth.token_secret",
	"auth.email_key",
	"auth.token_ttl",
	"oauth.client_id",
	"oauth.client_secret",
	"oauth.redirect_url",
	"smtp.host",
	"smtp.port",
	"smtp.from",
	"smtp.allowed_domains",
}

var validate = validator.New()

// ValidateBot checks the sections the bot process needs.
func (c *Config) ValidateBot() error {
	if err := validate.Struct(c.Bot); err != nil {
		return fmt.Errorf("bot config: %w", err)
	}
	if err := validate.Struct(c.SMTP); err != nil {
		return fmt.Errorf("smtp config: %w", err)
	}
	return c.validateAuth()
}

// ValidateWeb checks the sections the web process needs.
func (c *Config) ValidateWeb() error {
	if err := validate.Struct(c.Web); err != nil {
		return fmt.Errorf("web config: %w", err)
	}
	if err := validate.Struct(c.OAuth); err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}
	return c.validateAuth()
}

func (c *Config) validateAuth() error {
	if err := validate.Struct(c.Auth); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	return nil
}

// Load reads config.yaml from the config directory, creating the directory
// and a commented default file on first run. A missing config.yaml is not an
// error; environment variables alone can carry the configuration.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("GUILDHALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// every key has to be bound explicitly.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetDefault("bot.prefix", "!")
	v.SetDefault("web.addr", ":8080")
	v.SetDefault("auth.token_ttl", 30*time.Minute)
	v.SetDefault("smtp.port", 25)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o600)
}
