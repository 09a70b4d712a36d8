package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Govee     GoveeConfig     `mapstructure:"govee"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RedisConfig configures the Redis state backend
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	TTL         time.Duration `mapstructure:"ttl"`
}

// GoveeConfig configures the climate platform
type GoveeConfig struct {
	EntryID      string   `mapstructure:"entry_id"`
	DevicesFile  string   `mapstructure:"devices_file"`
	DeviceTypes  []string `mapstructure:"device_types"`
	StateBackend string   `mapstructure:"state_backend"` // memory or redis
	Controller   string   `mapstructure:"controller"`    // loopback or none
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"`
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SchedulerConfig controls the periodic climate state broadcast
type SchedulerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BroadcastSchedule string `mapstructure:"broadcast_schedule"`
	Timezone          string `mapstructure:"timezone"`
}

type SecurityConfig struct {
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Supported values for GoveeConfig.StateBackend
const (
	StateBackendMemory = "memory"
	StateBackendRedis  = "redis"
)

// Supported values for GoveeConfig.Controller
const (
	ControllerLoopback = "loopback"
	ControllerNone     = "none"
)

// Load reads the configuration from a config file and the environment. An
// empty path searches ./configs and the working directory for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("govee.devices_file", "GOVEE_DEVICES_FILE")
	v.BindEnv("govee.state_backend", "GOVEE_STATE_BACKEND")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("security.allowed_origins", "PMA_ALLOWED_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}
	if c.Server.Host == "" {
		errors = append(errors, "server.host is required")
	}

	if c.Database.Path == "" {
		errors = append(errors, "database.path is required")
	}
	if c.Database.MaxConnections <= 0 {
		errors = append(errors, "database.max_connections must be greater than 0")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, "logging.level must be one of debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errors = append(errors, "logging.format must be json or text")
	}

	if c.Govee.EntryID == "" {
		errors = append(errors, "govee.entry_id is required")
	}
	switch c.Govee.StateBackend {
	case StateBackendMemory:
	case StateBackendRedis:
		if c.Redis.Addr == "" {
			errors = append(errors, "redis.addr is required when govee.state_backend is redis")
		}
		if c.Redis.ReadTimeout <= 0 {
			errors = append(errors, "redis.read_timeout must be greater than 0")
		}
	default:
		errors = append(errors, "govee.state_backend must be memory or redis")
	}
	if c.Govee.Controller != ControllerLoopback && c.Govee.Controller != ControllerNone {
		errors = append(errors, "govee.controller must be loopback or none")
	}

	if c.Scheduler.Enabled && c.Scheduler.BroadcastSchedule == "" {
		errors = append(errors, "scheduler.broadcast_schedule is required when the scheduler is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, "metrics.path must start with /")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mode", "development")

	// Database defaults
	v.SetDefault("database.path", "./data/goveelife.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.auto_migrate", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "goveelife:state:")
	v.SetDefault("redis.read_timeout", "500ms")
	v.SetDefault("redis.ttl", "0s")

	// Govee defaults
	v.SetDefault("govee.entry_id", "default")
	v.SetDefault("govee.devices_file", "")
	v.SetDefault("govee.device_types", []string{"devices.types.heater", "devices.types.kettle"})
	v.SetDefault("govee.state_backend", StateBackendMemory)
	v.SetDefault("govee.controller", ControllerLoopback)

	// WebSocket defaults
	v.SetDefault("websocket.ping_interval", 30)
	v.SetDefault("websocket.pong_timeout", 60)
	v.SetDefault("websocket.write_timeout", 10)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.broadcast_schedule", "*/30 * * * * *")
	v.SetDefault("scheduler.timezone", "UTC")

	// Security defaults
	v.SetDefault("security.enable_cors", true)
	v.SetDefault("security.allowed_origins", []string{"*"})
}
