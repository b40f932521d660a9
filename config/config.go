package config

import "time"

// Config holds the data-access layer configuration
type Config struct {
	Postgres PostgresConfig
	Redis    RedisConfig
	Store    StoreConfig
	Log      LogConfig
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	User     string `validate:"required"`
	Password string
	Database string `validate:"required"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `validate:"gt=0"`
	MinConns int32  `validate:"gte=0,ltefield=MaxConns"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	Password string
	DB       int `validate:"gte=0"`
}

// StoreConfig holds tuning knobs for the repository layer
type StoreConfig struct {
	SlowQueryThreshold time.Duration `validate:"gt=0"`
	CacheTTL           time.Duration `validate:"gte=0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}
