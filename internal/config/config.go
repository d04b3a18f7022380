package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Playback PlaybackConfig
	Export   ExportConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// EngineConfig holds decode/encode engine configuration
type EngineConfig struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
}

// PlaybackConfig holds playback synchronization configuration
type PlaybackConfig struct {
	// SyncTolerance is the decoder clock divergence above which the
	// secondary decoder is re-seeked to the authoritative time.
	SyncTolerance time.Duration
	// MinTimelineDuration keeps an empty timeline scrubbable.
	MinTimelineDuration float64
}

// ExportConfig holds export job configuration
type ExportConfig struct {
	MaxConcurrent     int
	DefaultVideoCodec string
	DefaultAudioCodec string
	OutputDir         string
}

// CacheConfig holds probe-metadata cache configuration
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the built-in defaults without reading a file.
func Default() *Config {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return &config
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	// Engine defaults
	viper.SetDefault("engine.ffmpegPath", "ffmpeg")
	viper.SetDefault("engine.ffprobePath", "ffprobe")
	viper.SetDefault("engine.tempDir", "/tmp/localcut")

	// Playback defaults
	viper.SetDefault("playback.syncTolerance", "100ms")
	viper.SetDefault("playback.minTimelineDuration", 10.0)

	// Export defaults
	viper.SetDefault("export.maxConcurrent", 2)
	viper.SetDefault("export.defaultVideoCodec", "libx264")
	viper.SetDefault("export.defaultAudioCodec", "aac")
	viper.SetDefault("export.outputDir", "/tmp/localcut/out")

	// Cache defaults
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
