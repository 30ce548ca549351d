// Package config manages application configuration from defaults, an
// optional YAML file, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMode        = "poll"
	DefaultListenAddr  = ":8080"
	DefaultSettleDelay = 750 * time.Millisecond
	DefaultDBPath      = "titles.db"
)

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig holds the platform credentials and the operational
// alert chat. DebugChatID 0 disables alert delivery.
type TelegramConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	DebugChatID int64  `mapstructure:"debug_chat_id"`
}

// BotConfig configures the update transport and command behavior.
// SettleDelay is the pause between promoting a member and writing a
// title, covering the platform's eventual application of promotions.
type BotConfig struct {
	Mode        string        `mapstructure:"mode"         validate:"required,oneof=poll webhook"`
	WebhookURL  string        `mapstructure:"webhook_url"  validate:"required_if=Mode webhook,omitempty,url"`
	ListenAddr  string        `mapstructure:"listen_addr"  validate:"required_if=Mode webhook"`
	SettleDelay time.Duration `mapstructure:"settle_delay" validate:"min=0,max=10s"`
}

// DatabaseConfig configures the title index storage.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig configures the background task scheduler.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN)
// or through a YAML config file.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (missing file is allowed)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults plus env apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against the struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("bot.mode", DefaultMode)
	v.SetDefault("bot.listen_addr", DefaultListenAddr)
	v.SetDefault("bot.settle_delay", DefaultSettleDelay)

	v.SetDefault("database.path", DefaultDBPath)
}
