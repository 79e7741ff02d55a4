package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// MaxPerPage caps the per_page query parameter of list endpoints.
	MaxPerPage int `mapstructure:"max_per_page" validate:"required,gt=0,lte=1000"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// CacheConfig selects and configures the aggregate count cache.
type CacheConfig struct {
	// Backend is "memory" (process-local) or "redis" (shared between instances).
	Backend    string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	// Redis settings are only required when Backend is "redis".
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// AuthConfig contains the settings used to authorise the write-side endpoints
// (cache invalidation and mutation notifications).
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes is the lifetime of tokens issued by cmd/token-generator.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}
