package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Panel   PanelConfig
	Session SessionConfig
	Redis   RedisConfig
	Stream  StreamConfig
	Runtime RuntimeConfig
}

type PanelConfig struct {
	BaseURL  string
	Timeout  time.Duration
	User     string
	Password string
}

type SessionConfig struct {
	Backend     string
	File        string
	RedisPrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StreamConfig struct {
	LogInterval  time.Duration
	LogLines     int
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

type RuntimeConfig struct {
	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

// Load reads configs/config.* (or the explicit path) on top of defaults.
// A missing config file is not an error unless the path was given explicitly.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Panel = PanelConfig{
		BaseURL:  strings.TrimRight(v.GetString("panel.base_url"), "/"),
		Timeout:  v.GetDuration("panel.timeout"),
		User:     envSub(v, "panel.user"),
		Password: envSub(v, "panel.password"),
	}

	cfg.Session = SessionConfig{
		Backend:     strings.ToLower(v.GetString("session.backend")),
		File:        v.GetString("session.file"),
		RedisPrefix: v.GetString("session.redis_prefix"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("redis.addr"),
		Password: envSub(v, "redis.password"),
		DB:       v.GetInt("redis.db"),
	}

	cfg.Stream = StreamConfig{
		LogInterval:  v.GetDuration("stream.log_interval"),
		LogLines:     v.GetInt("stream.log_lines"),
		ReconnectMin: v.GetDuration("stream.reconnect_min"),
		ReconnectMax: v.GetDuration("stream.reconnect_max"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("panel.base_url", "http://localhost:8000")
	v.SetDefault("panel.timeout", 15*time.Second)
	v.SetDefault("panel.user", "${PANEL_USER}")
	v.SetDefault("panel.password", "${PANEL_PASS}")

	v.SetDefault("session.backend", SessionBackendFile)
	v.SetDefault("session.file", defaultSessionFile())
	v.SetDefault("session.redis_prefix", "arbpanel:")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stream.log_interval", 3*time.Second)
	v.SetDefault("stream.log_lines", 300)
	v.SetDefault("stream.reconnect_min", time.Second)
	v.SetDefault("stream.reconnect_max", 30*time.Second)

	v.SetDefault("runtime.log.level", "info")
	v.SetDefault("runtime.log.format", "text")
	v.SetDefault("runtime.log.file", "stderr")
	v.SetDefault("runtime.log.max_size", 10)
	v.SetDefault("runtime.log.max_backups", 3)
	v.SetDefault("runtime.log.max_age", 7)
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".arbpanel", "session.json")
	}
	return filepath.Join(home, ".arbpanel", "session.json")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Panel.BaseURL)
	if err != nil {
		return fmt.Errorf("panel.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("panel.base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("panel.base_url: missing host")
	}

	switch c.Session.Backend {
	case SessionBackendFile:
		if c.Session.File == "" {
			return fmt.Errorf("session.file is required for the file backend")
		}
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend: unknown backend %q", c.Session.Backend)
	}

	if c.Stream.LogInterval <= 0 {
		return fmt.Errorf("stream.log_interval must be positive")
	}
	if c.Stream.LogLines <= 0 {
		return fmt.Errorf("stream.log_lines must be positive")
	}
	if c.Stream.ReconnectMin <= 0 || c.Stream.ReconnectMax < c.Stream.ReconnectMin {
		return fmt.Errorf("stream.reconnect_min/max: invalid range %s..%s", c.Stream.ReconnectMin, c.Stream.ReconnectMax)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

func envSub(v *viper.Viper, key string) string {
	val := v.GetString(key)
	if val == "" {
		return ""
	}

	return envRef.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
