package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for an autoqliq process: which browser
// actions run against by default, where driver binaries live, where
// workflow/credential state is persisted, and how the engine logs and
// (optionally) coordinates a scheduler across instances.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

type EngineConfig struct {
	DefaultBrowser   string            `mapstructure:"default_browser"`
	ImplicitWaitSecs float64           `mapstructure:"implicit_wait"`
	DriverPaths      map[string]string `mapstructure:"driver_paths"`
	WorkflowsPath    string            `mapstructure:"workflows_path"`
	CredentialsPath  string            `mapstructure:"credentials_path"`
	RepositoryType   string            `mapstructure:"repository_type"`
	DBPath           string            `mapstructure:"db_path"`
	WindowTitle      string            `mapstructure:"window_title"`
	WindowGeometry   string            `mapstructure:"window_geometry"`
}

// SchedulerConfig configures the optional Redis-backed leader lock
// (internal/scheduler) that lets more than one autoqliqd instance share a
// job registry without double-firing a job. A zero-value Addr disables it.
type SchedulerConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	LockKey       string `mapstructure:"lock_key"`
	LockTTLSecs   int    `mapstructure:"lock_ttl_seconds"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	AddCaller  bool   `mapstructure:"add_caller"`
	Stacktrace bool   `mapstructure:"stacktrace"`
}

func Load(serviceName string) (*Config, error) {
	viper.SetConfigName(serviceName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/autoqliq")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("AUTOQLIQ")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&config)

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("engine.default_browser", "chrome")
	viper.SetDefault("engine.implicit_wait", 10.0)
	viper.SetDefault("engine.workflows_path", "./workflows")
	viper.SetDefault("engine.credentials_path", "./credentials")
	viper.SetDefault("engine.repository_type", "sqlite")
	viper.SetDefault("engine.db_path", "./autoqliq.db")
	viper.SetDefault("engine.window_title", "AutoQliq")
	viper.SetDefault("engine.window_geometry", "800x600")

	viper.SetDefault("scheduler.redis_db", 0)
	viper.SetDefault("scheduler.lock_key", "autoqliq:scheduler:leader")
	viper.SetDefault("scheduler.lock_ttl_seconds", 10)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.add_caller", true)
	viper.SetDefault("logger.stacktrace", false)
}

func overrideFromEnv(cfg *Config) {
	if browser := viper.GetString("DEFAULT_BROWSER"); browser != "" {
		cfg.Engine.DefaultBrowser = browser
	}
	if path := viper.GetString("WORKFLOWS_PATH"); path != "" {
		cfg.Engine.WorkflowsPath = path
	}
	if path := viper.GetString("CREDENTIALS_PATH"); path != "" {
		cfg.Engine.CredentialsPath = path
	}
	if redisAddr := viper.GetString("SCHEDULER_REDIS_ADDR"); redisAddr != "" {
		cfg.Scheduler.RedisAddr = redisAddr
	}
}

func (c *EngineConfig) DriverPath(browserType string) (string, bool) {
	path, ok := c.DriverPaths[browserType]
	return path, ok
}
