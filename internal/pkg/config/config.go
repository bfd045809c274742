package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	LogLevel string `yaml:"level"`
}

// MongoDB connection config
type MongoConfig struct {
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	URI             string        `yaml:"uri"`
	DBName          string        `yaml:"db_name"`
	MaxPoolSize     uint64        `yaml:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_minutes"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout_seconds"`
}

// Redis connection config
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	EnableTLS      bool          `yaml:"enable_tls"`
	ConnectTimeout time.Duration `yaml:"connect_timeout_seconds"`
}

type PubSubConfig struct {
	ProjectID         string `yaml:"project_id"`
	NotificationTopic string `yaml:"notification_topic"`
}

// SimulationConfig drives the batch orchestrator.
type SimulationConfig struct {
	PolicyPath     string        `yaml:"policy_path"`
	RandomSeed     uint64        `yaml:"random_seed"`
	WorkerCount    int           `yaml:"worker_count"`
	BufferSize     int           `yaml:"buffer_size"`
	MongoBatchSize int           `yaml:"mongo_batch_size"`
	HorizonMonth   string        `yaml:"horizon_month"`
	RunOnStart     bool          `yaml:"run_on_start"`
	BatchLockTTL   time.Duration `yaml:"batch_lock_ttl_minutes"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Redis      RedisConfig      `yaml:"redis"`
	PubSub     PubSubConfig     `yaml:"pubsub"`
	Logging    LogConfig        `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

func assignDefaultConfigValues(cfg *AppConfig) *AppConfig {

	// server config defaults
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", 8080)

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", cfg.Logging.LogLevel)

	// MongoDB config defaults
	cfg.Mongo.URI = GetEnvOrDefaultAsString("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.DBName = GetEnvOrDefaultAsString("MONGO_DB_NAME", cfg.Mongo.DBName)
	cfg.Mongo.Username = GetEnvOrDefaultAsString("MONGO_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = GetEnvOrDefaultAsString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.MaxPoolSize = GetEnvOrDefaultAsUint64("MONGO_MAX_POOL_SIZE", cfg.Mongo.MaxPoolSize)
	cfg.Mongo.MinPoolSize = GetEnvOrDefaultAsUint64("MONGO_MIN_POOL_SIZE", cfg.Mongo.MinPoolSize)
	cfg.Mongo.MaxConnIdleTime = time.Duration(GetEnvOrDefaultAsInt("MONGO_MAX_CONN_IDLE_MINUTES", 30)) * time.Minute
	cfg.Mongo.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EnableTLS = GetEnvOrDefaultAsInt("REDIS_ENABLE_TLS", 0) == 1
	cfg.Redis.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second

	// PubSub config defaults
	cfg.PubSub.ProjectID = GetEnvOrDefaultAsString("PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.NotificationTopic = GetEnvOrDefaultAsString("PUBSUB_NOTIFICATION_TOPIC", cfg.PubSub.NotificationTopic)

	// Simulation config defaults
	cfg.Simulation.PolicyPath = GetEnvOrDefaultAsString("POLICY_PATH", cfg.Simulation.PolicyPath)
	cfg.Simulation.RandomSeed = GetEnvOrDefaultAsUint64("SIMULATION_RANDOM_SEED", cfg.Simulation.RandomSeed)
	cfg.Simulation.WorkerCount = GetEnvOrDefaultAsInt("SIMULATION_WORKER_COUNT", cfg.Simulation.WorkerCount)
	cfg.Simulation.BufferSize = GetEnvOrDefaultAsInt("SIMULATION_BUFFER_SIZE", cfg.Simulation.BufferSize)
	cfg.Simulation.MongoBatchSize = GetEnvOrDefaultAsInt("SIMULATION_MONGO_BATCH_SIZE", cfg.Simulation.MongoBatchSize)
	cfg.Simulation.HorizonMonth = GetEnvOrDefaultAsString("SIMULATION_HORIZON_MONTH", cfg.Simulation.HorizonMonth)
	cfg.Simulation.RunOnStart = GetEnvOrDefaultAsInt("SIMULATION_RUN_ON_START", boolToInt(cfg.Simulation.RunOnStart)) == 1
	cfg.Simulation.BatchLockTTL = time.Duration(GetEnvOrDefaultAsInt("BATCH_LOCK_TTL_MINUTES", 30)) * time.Minute

	return cfg
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LoadFromConfigFilePath loads and parses config file into AppConfig
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, slog.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultCfg := assignDefaultConfigValues(&cfg)

	if err := validateConfig(defaultCfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", slog.String("path", configPath))

	return defaultCfg, nil
}

func validateConfig(cfg *AppConfig) error {
	if err := validateSimulationConfig(cfg.Simulation); err != nil {
		return err
	}
	if cfg.Mongo.MinPoolSize > cfg.Mongo.MaxPoolSize {
		return fmt.Errorf(
			"mongo.min_pool_size %d must not exceed mongo.max_pool_size %d",
			cfg.Mongo.MinPoolSize, cfg.Mongo.MaxPoolSize,
		)
	}
	return nil
}

func validateSimulationConfig(sim SimulationConfig) error {
	if sim.WorkerCount < 1 {
		return fmt.Errorf("simulation.worker_count must be at least 1, got %d", sim.WorkerCount)
	}
	if sim.BufferSize < 1 {
		return fmt.Errorf("simulation.buffer_size must be at least 1, got %d", sim.BufferSize)
	}
	if sim.MongoBatchSize < 1 {
		return fmt.Errorf("simulation.mongo_batch_size must be at least 1, got %d", sim.MongoBatchSize)
	}
	if sim.PolicyPath == "" {
		return fmt.Errorf("simulation.policy_path must be set")
	}
	if sim.HorizonMonth != "" {
		if _, err := time.Parse(consts.PeriodMonthLayout, sim.HorizonMonth); err != nil {
			return fmt.Errorf("simulation.horizon_month must be YYYY-MM, got %q", sim.HorizonMonth)
		}
	}
	return nil
}

// LoadFromConfig loads environment variables from a .env file when present
// and then the config file pointed to by CONFIG_PATH.
func LoadFromConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "configs/config.yaml")

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

// GetEnvOrDefaultAsString returns the value of the given env variable or the default value if not set.
func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if val != "" {
			return val
		}
	}
	return defaultVal
}

func GetEnvOrDefaultAsUint64(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
