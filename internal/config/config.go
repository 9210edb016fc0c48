package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Library  LibraryConfig  `yaml:"library"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address         string        `yaml:"address"          env:"SERVER_ADDRESS"          env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// StorageConfig holds blob store settings.
// Root is the directory objects are written under; BaseURL is the public
// prefix from which stored keys are served.
type StorageConfig struct {
	Root    string `yaml:"root"     env:"STORAGE_ROOT"     env-default:"./data/blobs"`
	BaseURL string `yaml:"base_url" env:"STORAGE_BASE_URL" env-default:"http://localhost:8080/files"`
}

// LibraryConfig holds content-library service settings.
type LibraryConfig struct {
	TrashRetentionDays int `yaml:"trash_retention_days" env:"LIBRARY_TRASH_RETENTION_DAYS" env-default:"30"`
	MaxUploadsPerItem  int `yaml:"max_uploads_per_item" env:"LIBRARY_MAX_UPLOADS_PER_ITEM" env-default:"20"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
