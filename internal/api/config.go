package api

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/tab"
)

// Backend names for the cache and job store sections.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendNull   = "null"
)

// Config is the server configuration, loaded from a TOML file with
// [LoadConfig] or built with [DefaultConfig].
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Cache       CacheConfig       `toml:"cache"`
	Jobs        JobsConfig        `toml:"jobs"`
	Redis       RedisConfig       `toml:"redis"`
	Mongo       MongoConfig       `toml:"mongo"`
	Transcriber TranscriberConfig `toml:"transcriber"`
	Defaults    DefaultsConfig    `toml:"defaults"`
}

// ServerConfig configures the HTTP listener and upload storage.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	DataDir       string `toml:"data_dir"`
	UploadLimitMB int64  `toml:"upload_limit_mb"`
}

// CacheConfig selects the pipeline cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"` // file, redis, or null
	Dir     string `toml:"dir"`     // file backend only; empty uses the default
	Scope   string `toml:"scope"`   // key prefix when sharing a redis instance
}

// JobsConfig selects the job store backend.
type JobsConfig struct {
	Backend   string   `toml:"backend"` // memory, redis, or mongo
	Retention duration `toml:"retention"`
}

// RedisConfig is shared by the redis cache and the redis job store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo job store.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// TranscriberConfig points at the audio transcription service. With an empty
// endpoint the server accepts MIDI uploads only.
type TranscriberConfig struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  duration `toml:"timeout"`
}

// DefaultsConfig sets the pipeline defaults applied when a request omits
// them.
type DefaultsConfig struct {
	Tuning  []int `toml:"tuning"`
	MaxFret int   `toml:"max_fret"`
}

// duration wraps time.Duration for TOML decoding from strings like "24h".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// DefaultConfig returns a configuration suitable for local development:
// in-memory jobs, file cache, MIDI-only transcription.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			DataDir:       filepath.Join(os.TempDir(), "fretline"),
			UploadLimitMB: 50,
		},
		Cache: CacheConfig{Backend: BackendFile},
		Jobs:  JobsConfig{Backend: BackendMemory},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Mongo: MongoConfig{URI: "mongodb://localhost:27017"},
		Defaults: DefaultsConfig{
			Tuning:  tab.StandardTuning(),
			MaxFret: tab.DefaultMaxFret,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config file %s", path)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNull:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"cache backend must be file, redis, or null, got %q", c.Cache.Backend)
	}
	switch c.Jobs.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"jobs backend must be memory, redis, or mongo, got %q", c.Jobs.Backend)
	}
	if c.Server.UploadLimitMB <= 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"upload limit must be positive, got %d", c.Server.UploadLimitMB)
	}
	if _, err := tab.NewInstrument(c.Defaults.Tuning, c.Defaults.MaxFret); err != nil {
		return err
	}
	return nil
}

// UploadLimit returns the upload cap in bytes.
func (c Config) UploadLimit() int64 {
	return c.Server.UploadLimitMB << 20
}
