package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"talent-match/internal/domain/matching"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Matching     MatchingConfig     `mapstructure:"matching"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	AppName         string        `mapstructure:"name"`
	Environment     string        `mapstructure:"env"`
	HTTPPort        string        `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type DatabaseConfig struct {
	DBHost     string `mapstructure:"host"`
	DBPort     string `mapstructure:"port"`
	DBName     string `mapstructure:"name"`
	DBUser     string `mapstructure:"user"`
	DBPassword string `mapstructure:"password"`
	DBSSLMode  string `mapstructure:"ssl_mode"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type JWTConfig struct {
	AccessSecret string `mapstructure:"access_secret"`
}

type WeightsConfig struct {
	Skill        int `mapstructure:"skill"`
	Experience   int `mapstructure:"experience"`
	Portfolio    int `mapstructure:"portfolio"`
	Education    int `mapstructure:"education"`
	Github       int `mapstructure:"github"`
	Availability int `mapstructure:"availability"`
}

type MatchingConfig struct {
	Weights              WeightsConfig `mapstructure:"weights"`
	DefaultMaxCandidates int           `mapstructure:"default_max_candidates"`
	MaxConflictRetries   int           `mapstructure:"max_conflict_retries"`
	LockTTL              time.Duration `mapstructure:"lock_ttl"`
	LockWait             time.Duration `mapstructure:"lock_wait"`
}

func (m MatchingConfig) EngineWeights() matching.Weights {
	return matching.Weights{
		Skill:        m.Weights.Skill,
		Experience:   m.Weights.Experience,
		Portfolio:    m.Weights.Portfolio,
		Education:    m.Weights.Education,
		Github:       m.Weights.Github,
		Availability: m.Weights.Availability,
	}
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
	Workers int    `mapstructure:"workers"`
}

type NotificationConfig struct {
	RedisChannel string `mapstructure:"redis_channel"`
	SNSTopicARN  string `mapstructure:"sns_topic_arn"`
	AWSRegion    string `mapstructure:"aws_region"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"app.name":             "APP_NAME",
	"app.env":              "APP_ENV",
	"app.http_port":        "HTTP_PORT",
	"app.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"app.migrations_dir":   "MIGRATIONS_DIR",
	"app.auto_migrate":     "AUTO_MIGRATE",

	"database.host":                     "DB_HOST",
	"database.port":                     "DB_PORT",
	"database.name":                     "DB_NAME",
	"database.user":                     "DB_USER",
	"database.password":                 "DB_PASSWORD",
	"database.ssl_mode":                 "DB_SSL_MODE",
	"database.connect_timeout":          "DB_CONNECT_TIMEOUT",
	"database.pool_max_conns":           "DB_POOL_MAX_CONNS",
	"database.pool_min_conns":           "DB_POOL_MIN_CONNS",
	"database.pool_max_conn_lifetime":   "DB_POOL_MAX_CONN_LIFETIME",
	"database.pool_max_conn_idle_time":  "DB_POOL_MAX_CONN_IDLE_TIME",
	"database.pool_health_check_period": "DB_POOL_HEALTH_CHECK_PERIOD",

	"redis.addr":      "REDIS_ADDR",
	"redis.password":  "REDIS_PASSWORD",
	"redis.db":        "REDIS_DB",
	"redis.cache_ttl": "REDIS_TTL",

	"jwt.access_secret": "JWT_ACCESS_SECRET",

	"matching.weights.skill":          "MATCHING_WEIGHT_SKILL",
	"matching.weights.experience":     "MATCHING_WEIGHT_EXPERIENCE",
	"matching.weights.portfolio":      "MATCHING_WEIGHT_PORTFOLIO",
	"matching.weights.education":      "MATCHING_WEIGHT_EDUCATION",
	"matching.weights.github":         "MATCHING_WEIGHT_GITHUB",
	"matching.weights.availability":   "MATCHING_WEIGHT_AVAILABILITY",
	"matching.default_max_candidates": "MATCHING_DEFAULT_MAX_CANDIDATES",
	"matching.max_conflict_retries":   "MATCHING_MAX_CONFLICT_RETRIES",
	"matching.lock_ttl":               "MATCHING_LOCK_TTL",
	"matching.lock_wait":              "MATCHING_LOCK_WAIT",

	"scheduler.enabled": "SCHEDULER_ENABLED",
	"scheduler.spec":    "SCHEDULER_SPEC",
	"scheduler.workers": "SCHEDULER_WORKERS",

	"notification.redis_channel": "NOTIFY_REDIS_CHANNEL",
	"notification.sns_topic_arn": "NOTIFY_SNS_TOPIC_ARN",
	"notification.aws_region":    "AWS_REGION",

	"logging.level":  "LOG_LEVEL",
	"logging.format": "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	w := matching.DefaultWeights()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.cache_ttl", 10*time.Minute)

	v.SetDefault("matching.weights.skill", w.Skill)
	v.SetDefault("matching.weights.experience", w.Experience)
	v.SetDefault("matching.weights.portfolio", w.Portfolio)
	v.SetDefault("matching.weights.education", w.Education)
	v.SetDefault("matching.weights.github", w.Github)
	v.SetDefault("matching.weights.availability", w.Availability)
	v.SetDefault("matching.default_max_candidates", 50)
	v.SetDefault("matching.max_conflict_retries", 3)
	v.SetDefault("matching.lock_ttl", 30*time.Second)
	v.SetDefault("matching.lock_wait", 5*time.Second)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "@every 6h")
	v.SetDefault("scheduler.workers", 4)

	v.SetDefault("notification.redis_channel", "matching.events")
	v.SetDefault("notification.aws_region", "us-east-1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads .env (when present), an optional config.yaml and the
// environment into v. A nil v gets a fresh instance. A config file already
// set on v wins over CONFIG_FILE.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	loadEnvFile()

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	switch file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); {
	case v.ConfigFileUsed() != "":
	case file != "":
		v.SetConfigFile(file)
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	trim(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

func trim(cfg *Config) {
	cfg.App.AppName = strings.TrimSpace(cfg.App.AppName)
	cfg.App.HTTPPort = strings.TrimSpace(cfg.App.HTTPPort)
	cfg.Database.DBHost = strings.TrimSpace(cfg.Database.DBHost)
	cfg.Database.DBPort = strings.TrimSpace(cfg.Database.DBPort)
	cfg.Database.DBName = strings.TrimSpace(cfg.Database.DBName)
	cfg.Database.DBUser = strings.TrimSpace(cfg.Database.DBUser)
	cfg.Redis.Addr = strings.TrimSpace(cfg.Redis.Addr)
	cfg.JWT.AccessSecret = strings.TrimSpace(cfg.JWT.AccessSecret)
	cfg.Scheduler.Spec = strings.TrimSpace(cfg.Scheduler.Spec)
}

func validate(cfg Config) error {
	var missing []string
	if cfg.App.AppName == "" {
		missing = append(missing, "APP_NAME")
	}
	if cfg.App.HTTPPort == "" {
		missing = append(missing, "HTTP_PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	if err := cfg.Matching.EngineWeights().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Matching.DefaultMaxCandidates <= 0 {
		return fmt.Errorf("invalid configuration: matching.default_max_candidates must be positive")
	}
	if cfg.Matching.MaxConflictRetries < 0 {
		return fmt.Errorf("invalid configuration: matching.max_conflict_retries must not be negative")
	}
	if cfg.Scheduler.Enabled && cfg.Scheduler.Spec == "" {
		return fmt.Errorf("invalid configuration: scheduler.spec is required when the scheduler is enabled")
	}
	return nil
}
