package config

// Application configuration
// Sources, lowest to highest: defaults, config.yaml, .env, environment, command line flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"traffmon/internal/clients_api/traffmonetizer"
)

type Config struct {
	TraffMonetizer TraffMonetizerConfig `mapstructure:"traffmonetizer"`
	App            AppConfig            `mapstructure:"app"`
	Log            LogConfig            `mapstructure:"log"`
	Telegram       TelegramConfig       `mapstructure:"telegram"`
}

// TraffMonetizerConfig - dashboard API and account
type TraffMonetizerConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Prefix          string `mapstructure:"prefix"`
	Version         string `mapstructure:"version"`
	Email           string `mapstructure:"email"`
	Password        string `mapstructure:"password"`
	Captcha         string `mapstructure:"captcha"`
	Token           string `mapstructure:"token"`        // use this token instead of the saved session
	Proxy           string `mapstructure:"proxy"`        // host:port or host:port:user:pass
	ProxyScheme     string `mapstructure:"proxy_scheme"` // socks5, http, https
	RequestTimeout  int    `mapstructure:"request_timeout"`
	MaxResponseSize int64  `mapstructure:"max_response_size"`
}

type AppConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// TelegramConfig - where `report --telegram` sends the summary
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// RequestTimeoutDuration converts the configured seconds.
func (c TraffMonetizerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// ClientOptions turns the config into client construction options.
func (c TraffMonetizerConfig) ClientOptions() []traffmonetizer.Option {
	return []traffmonetizer.Option{
		traffmonetizer.WithBaseURL(c.BaseURL),
		traffmonetizer.WithPrefix(c.Prefix),
		traffmonetizer.WithVersion(c.Version),
		traffmonetizer.WithTimeout(c.RequestTimeoutDuration()),
		traffmonetizer.WithMaxResponseSize(c.MaxResponseSize),
	}
}

// RegisterFlags adds the flags LoadConfig understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (default ./config.yaml)")
	fs.String("base-url", traffmonetizer.DefaultBaseURL, "Dashboard API base URL (env: TRAFF_BASE_URL)")
	fs.String("proxy", "", "Proxy host:port or host:port:user:pass (env: TRAFF_PROXY)")
	fs.String("proxy-scheme", string(traffmonetizer.ProxySOCKS5), "Proxy scheme: socks5, http or https (env: TRAFF_PROXY_SCHEME)")
	fs.String("token", "", "Session token to use instead of the saved one (env: TRAFF_TOKEN)")
	fs.String("data-dir", "data_in", "Directory for the saved session (env: TRAFF_DATA_DIR)")
	fs.String("log-level", "info", "Log level: debug, info, warn, error (env: TRAFF_LOG_LEVEL)")
	fs.Int("timeout", 30, "Request timeout in seconds, 0 disables (env: TRAFF_REQUEST_TIMEOUT)")
}

var flagKeys = map[string]string{
	"base-url":     "traffmonetizer.base_url",
	"proxy":        "traffmonetizer.proxy",
	"proxy-scheme": "traffmonetizer.proxy_scheme",
	"token":        "traffmonetizer.token",
	"data-dir":     "app.data_dir",
	"log-level":    "log.level",
	"timeout":      "traffmonetizer.request_timeout",
}

// LoadConfig reads configuration. fs may be nil; otherwise only flags the user actually set
// override the other sources.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	// .env values become plain environment variables
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config.yaml: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TRAFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupEnvAliases(v *viper.Viper) {
	// short names, the way the dashboard credentials usually live in .env
	v.BindEnv("traffmonetizer.base_url", "TRAFF_BASE_URL")
	v.BindEnv("traffmonetizer.email", "TRAFF_EMAIL")
	v.BindEnv("traffmonetizer.password", "TRAFF_PASSWORD")
	v.BindEnv("traffmonetizer.captcha", "TRAFF_CAPTCHA")
	v.BindEnv("traffmonetizer.token", "TRAFF_TOKEN")
	v.BindEnv("traffmonetizer.proxy", "TRAFF_PROXY")
	v.BindEnv("traffmonetizer.proxy_scheme", "TRAFF_PROXY_SCHEME")
	v.BindEnv("traffmonetizer.request_timeout", "TRAFF_REQUEST_TIMEOUT")
	v.BindEnv("traffmonetizer.max_response_size", "TRAFF_MAX_RESPONSE_SIZE")

	v.BindEnv("app.data_dir", "TRAFF_DATA_DIR")

	v.BindEnv("log.level", "TRAFF_LOG_LEVEL")
	v.BindEnv("log.file", "TRAFF_LOG_FILE")

	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("traffmonetizer.base_url", traffmonetizer.DefaultBaseURL)
	v.SetDefault("traffmonetizer.prefix", traffmonetizer.DefaultPrefix)
	v.SetDefault("traffmonetizer.version", "")
	v.SetDefault("traffmonetizer.email", "")
	v.SetDefault("traffmonetizer.password", "")
	v.SetDefault("traffmonetizer.captcha", "")
	v.SetDefault("traffmonetizer.token", "")
	v.SetDefault("traffmonetizer.proxy", "")
	v.SetDefault("traffmonetizer.proxy_scheme", string(traffmonetizer.ProxySOCKS5))
	v.SetDefault("traffmonetizer.request_timeout", 30)
	v.SetDefault("traffmonetizer.max_response_size", traffmonetizer.DefaultMaxResponseSize)

	v.SetDefault("app.data_dir", "data_in")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
}

func validateConfig(cfg *Config) error {
	if cfg.TraffMonetizer.BaseURL == "" {
		return fmt.Errorf("traffmonetizer.base_url must not be empty")
	}
	if cfg.TraffMonetizer.RequestTimeout < 0 {
		return fmt.Errorf("traffmonetizer.request_timeout must not be negative")
	}
	scheme, err := traffmonetizer.ParseProxyScheme(cfg.TraffMonetizer.ProxyScheme)
	if err != nil {
		return fmt.Errorf("traffmonetizer.proxy_scheme: %w", err)
	}
	cfg.TraffMonetizer.ProxyScheme = string(scheme)
	if _, err := traffmonetizer.ParseProxySpec(cfg.TraffMonetizer.Proxy, scheme); err != nil {
		return fmt.Errorf("traffmonetizer.proxy: %w", err)
	}
	if cfg.App.DataDir == "" {
		return fmt.Errorf("app.data_dir must not be empty")
	}
	return nil
}
