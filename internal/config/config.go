package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DefaultTickInterval         = 100 * time.Millisecond
	DefaultIdentityPollInterval = 500 * time.Millisecond
	DefaultReadinessMinBackoff  = 500 * time.Millisecond
	DefaultReadinessMaxBackoff  = 5 * time.Second
	DefaultPreferencesPath      = "cueloop-preferences.json"
)

type Config struct {
	Server struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	LogLevel    string `mapstructure:"log_level"`
	Preferences struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"preferences"`
	Cache struct {
		Provider string `mapstructure:"provider"` // "memory" or "redis"
		Size     int    `mapstructure:"size"`     // Maximum number of parsed payloads kept
		TTL      string `mapstructure:"ttl"`      // Go duration string like "1h", "24h", etc.
		Redis    struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Control struct {
		TickInterval         string `mapstructure:"tick_interval"`
		IdentityPollInterval string `mapstructure:"identity_poll_interval"`
		ReadinessMinBackoff  string `mapstructure:"readiness_min_backoff"`
		ReadinessMaxBackoff  string `mapstructure:"readiness_max_backoff"`
		ReadinessMaxAttempts int    `mapstructure:"readiness_max_attempts"`
	} `mapstructure:"control"`
	Intercept struct {
		CDNHosts        []string `mapstructure:"cdn_hosts"`
		PathMarkers     []string `mapstructure:"path_markers"`
		OffsetParam     string   `mapstructure:"offset_param"`
		WatchPathPrefix string   `mapstructure:"watch_path_prefix"`
	} `mapstructure:"intercept"`
	Bridge struct {
		RateLimit float64 `mapstructure:"rate_limit"` // intercepted payloads per second
		Burst     int     `mapstructure:"burst"`
	} `mapstructure:"bridge"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	// A missing .env file is the normal case
	_ = godotenv.Load()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("server.address", "127.0.0.1")
	viper.SetDefault("server.port", 8765)
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("preferences.path", DefaultPreferencesPath)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 64)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("control.tick_interval", DefaultTickInterval.String())
	viper.SetDefault("control.identity_poll_interval", DefaultIdentityPollInterval.String())
	viper.SetDefault("control.readiness_min_backoff", DefaultReadinessMinBackoff.String())
	viper.SetDefault("control.readiness_max_backoff", DefaultReadinessMaxBackoff.String())
	viper.SetDefault("control.readiness_max_attempts", 0)
	viper.SetDefault("intercept.cdn_hosts", []string{"nflxvideo.net"})
	viper.SetDefault("intercept.path_markers", []string{"/range/"})
	viper.SetDefault("intercept.offset_param", "o")
	viper.SetDefault("intercept.watch_path_prefix", "/watch/")
	viper.SetDefault("bridge.rate_limit", 20.0)
	viper.SetDefault("bridge.burst", 40)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Preferences.Path == "" {
		config.Preferences.Path = DefaultPreferencesPath
	}

	return &config, nil
}

// Duration parses a Go duration string, falling back to def when the value is
// empty, invalid or not positive.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn().Str("duration", value).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}

func GetConfig() *Config {
	return globalConfig
}

func GetLogger() zerolog.Logger {
	return logger
}
