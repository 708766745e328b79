package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultConfigFile 默认配置文件名（当前目录）
const DefaultConfigFile = "venues.yaml"

// EnvPrefix 环境变量前缀
const EnvPrefix = "VENUES_"

// 数据源
const (
	SourceAuto    = "auto"
	SourceBrowser = "browser"
	SourceHTTP    = "http"
	SourceFile    = "file"
)

// Config 应用配置
type Config struct {
	Source       string          `koanf:"source"`
	Mapping      string          `koanf:"mapping"`
	FirecrawlKey string          `koanf:"firecrawl_key"`
	FirecrawlURL string          `koanf:"firecrawl_url"`
	UserAgent    string          `koanf:"user_agent"`
	Headless     bool            `koanf:"headless"`
	ChromePath   string          `koanf:"chrome_path"`
	PageSize     int             `koanf:"page_size"`
	RateLimit    float64         `koanf:"rate_limit"`
	Output       string          `koanf:"output"`
	Top          int             `koanf:"top"`
	Verbose      bool            `koanf:"verbose"`
	Events       bool            `koanf:"events"`
	Collector    CollectorConfig `koanf:"collector"`
}

// CollectorConfig 翻页收集参数
type CollectorConfig struct {
	MaxAttempts      int           `koanf:"max_attempts"`
	AttemptTimeout   time.Duration `koanf:"attempt_timeout"`
	SettleDelay      time.Duration `koanf:"settle_delay"`
	InitialPollDelay time.Duration `koanf:"initial_poll_delay"`
	FastPollInterval time.Duration `koanf:"fast_poll_interval"`
	FastPollChecks   int           `koanf:"fast_poll_checks"`
	SlowPollInterval time.Duration `koanf:"slow_poll_interval"`
	Cooldown         time.Duration `koanf:"cooldown"`
	StallLimit       int           `koanf:"stall_limit"`
}

// collector参数对应的命令行flag
var collectorFlags = map[string]bool{
	"max_attempts":       true,
	"attempt_timeout":    true,
	"settle_delay":       true,
	"initial_poll_delay": true,
	"fast_poll_interval": true,
	"fast_poll_checks":   true,
	"slow_poll_interval": true,
	"cooldown":           true,
	"stall_limit":        true,
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source":        SourceAuto,
		"mapping":       "",
		"firecrawl_url": "https://api.firecrawl.dev/v2/scrape",
		"user_agent":    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		"headless":      true,
		"page_size":     100,
		"rate_limit":    0.5,
		"output":        "table",
		"top":           10,
		"verbose":       false,
		"events":        false,

		"collector.max_attempts":       50,
		"collector.attempt_timeout":    "15s",
		"collector.settle_delay":       "800ms",
		"collector.initial_poll_delay": "300ms",
		"collector.fast_poll_interval": "100ms",
		"collector.fast_poll_checks":   10,
		"collector.slow_poll_interval": "500ms",
		"collector.cooldown":           "1500ms",
		"collector.stall_limit":        1,
	}
}

// Load 加载配置
// 优先级：flag > 环境变量 > 配置文件 > 默认值
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// VENUES_COLLECTOR_MAX_ATTEMPTS -> collector.max_attempts
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.FirecrawlKey == "" {
		cfg.FirecrawlKey = getEnv("FIRECRAWL_API_KEY", "")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Source {
	case SourceAuto, SourceBrowser, SourceHTTP, SourceFile:
	default:
		return fmt.Errorf("unknown source %q (want auto, browser, http or file)", c.Source)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", c.Top)
	}
	if c.Collector.MaxAttempts <= 0 {
		return fmt.Errorf("collector.max_attempts must be positive, got %d", c.Collector.MaxAttempts)
	}
	if c.Collector.StallLimit < 0 {
		return fmt.Errorf("collector.stall_limit must not be negative, got %d", c.Collector.StallLimit)
	}
	if c.Collector.AttemptTimeout <= 0 {
		return fmt.Errorf("collector.attempt_timeout must be positive, got %s", c.Collector.AttemptTimeout)
	}
	return nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "collector_"); ok {
		return "collector." + rest
	}
	return key
}

func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if collectorFlags[key] {
		return "collector." + key
	}
	return key
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
