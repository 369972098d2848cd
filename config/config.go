// Package config loads cache settings from the environment or a file and
// turns them into hybridcache.Options.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/hybridcache"
	"github.com/unkn0wn-root/hybridcache/codec"
	hzap "github.com/unkn0wn-root/hybridcache/log/zap"
)

type Local struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"HYBRIDCACHE_LOCAL_CLEANUP_INTERVAL" env-default:"1m"`
	Workers         int           `yaml:"workers" env:"HYBRIDCACHE_LOCAL_WORKERS" env-default:"1"`
	Queue           int           `yaml:"queue" env:"HYBRIDCACHE_LOCAL_QUEUE" env-default:"1024"`
}

type Config struct {
	// ConnectionString selects Redis when non-blank.
	ConnectionString string        `yaml:"connection_string" env:"HYBRIDCACHE_CONNECTION_STRING"`
	DefaultTTL       time.Duration `yaml:"default_ttl" env:"HYBRIDCACHE_DEFAULT_TTL" env-default:"1m"`
	Namespace        string        `yaml:"namespace" env:"HYBRIDCACHE_NAMESPACE"`

	// Codec is one of json, msgpack, cbor, protojson.
	Codec          string `yaml:"codec" env:"HYBRIDCACHE_CODEC" env-default:"json"`
	MaxDecodeBytes int    `yaml:"max_decode_bytes" env:"HYBRIDCACHE_MAX_DECODE_BYTES"`

	LogLevel string `yaml:"log_level" env:"HYBRIDCACHE_LOG_LEVEL" env-default:"info"`

	Local Local `yaml:"local"`
}

// Load reads the configuration from environment variables only.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFile reads a YAML, JSON, TOML or .env file; environment variables
// override the file.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.DefaultTTL < 0 && c.DefaultTTL != hybridcache.NoExpiration {
		return fmt.Errorf("config: default_ttl must not be negative, got %s", c.DefaultTTL)
	}
	if c.Local.Workers < 0 || c.Local.Queue < 0 {
		return fmt.Errorf("config: local workers and queue must not be negative")
	}
	if _, err := c.codec(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

func (c Config) codec() (codec.Codec, error) {
	var cd codec.Codec
	switch strings.ToLower(strings.TrimSpace(c.Codec)) {
	case "", "json":
		cd = codec.JSON{}
	case "msgpack":
		cd = codec.Msgpack{}
	case "cbor":
		cbor, err := codec.NewCBOR(false)
		if err != nil {
			return nil, err
		}
		cd = cbor
	case "protojson":
		cd = codec.ProtoJSON{}
	default:
		return nil, fmt.Errorf("config: unknown codec %q", c.Codec)
	}
	if c.MaxDecodeBytes > 0 {
		cd = codec.Limit{Inner: cd, MaxDecode: c.MaxDecodeBytes}
	}
	return cd, nil
}

// Options maps the configuration onto facade options. A nil logger leaves
// logging disabled.
func (c Config) Options(logger hybridcache.Logger) (hybridcache.Options, error) {
	cd, err := c.codec()
	if err != nil {
		return hybridcache.Options{}, err
	}
	return hybridcache.Options{
		ConnectionString:     c.ConnectionString,
		Codec:                cd,
		Logger:               logger,
		DefaultTTL:           c.DefaultTTL,
		Namespace:            c.Namespace,
		LocalCleanupInterval: c.Local.CleanupInterval,
		LocalWorkers:         c.Local.Workers,
		LocalQueue:           c.Local.Queue,
	}, nil
}

// NewLogger builds a production zap logger at LogLevel, wrapped for the
// cache.
func (c Config) NewLogger() (hzap.Logger, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return hzap.Logger{}, fmt.Errorf("config: log_level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	l, err := zc.Build()
	if err != nil {
		return hzap.Logger{}, err
	}
	return hzap.New(l), nil
}

// NewCache is Load, NewLogger and hybridcache.New in one step.
func NewCache() (*hybridcache.Cache, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	log, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options(log)
	if err != nil {
		return nil, err
	}
	return hybridcache.New(opts)
}
