package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"skillmatch/internal/domain/matching"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Matching  MatchingConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Fetch     FetchConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	AppName        string
	Environment    string
	HTTPPort       string
	UploadMaxBytes int64
	PublicBaseURL  string
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver     string
	SQLitePath string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether any Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type MatchingConfig struct {
	SkillsFile string
	Mode       matching.Mode
	Weights    matching.Weights
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type StorageConfig struct {
	Driver string
	Dir    string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

type QueueConfig struct {
	URL             string
	RequestQueue    string
	UpdatesExchange string
	Workers         int
}

func (c QueueConfig) Enabled() bool {
	return c.URL != ""
}

type FetchConfig struct {
	Timeout   time.Duration
	Headless  bool
	UserAgent string
	MaxBytes  int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidValue       = errors.New("invalid configuration value")
)

// Load reads the server configuration. CONFIG_FILE, when set, names a YAML,
// JSON or TOML file whose keys are overridden by the environment.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return load(v, v.GetString("CONFIG_FILE"), true)
}

// LoadCLI is Load without required keys, for commands that never serve HTTP.
func LoadCLI(configFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if configFile == "" {
		configFile = v.GetString("CONFIG_FILE")
	}
	return load(v, configFile, false)
}

func load(v *viper.Viper, configFile string, server bool) (Config, error) {
	setDefaults(v)

	if f := strings.TrimSpace(configFile); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" && server {
			missing = append(missing, key)
		}
		return s
	}
	opt := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	cfg.App = AppConfig{
		AppName:        req("APP_NAME"),
		Environment:    req("APP_ENV"),
		HTTPPort:       req("HTTP_PORT"),
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		PublicBaseURL:  strings.TrimRight(opt("PUBLIC_BASE_URL"), "/"),
	}

	cfg.Log = LogConfig{
		JSON:  v.GetBool("LOG_JSON"),
		Debug: v.GetBool("LOG_DEBUG"),
	}

	cfg.Database = DatabaseConfig{
		Driver:     strings.ToLower(opt("DB_DRIVER")),
		SQLitePath: opt("SQLITE_PATH"),

		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        v.GetDuration("DB_CONNECT_TIMEOUT"),
		PoolMaxConns:          v.GetInt32("DB_POOL_MAX_CONNS"),
		PoolMinConns:          v.GetInt32("DB_POOL_MIN_CONNS"),
		PoolMaxConnLifetime:   v.GetDuration("DB_POOL_MAX_CONN_LIFETIME"),
		PoolMaxConnIdleTime:   v.GetDuration("DB_POOL_MAX_CONN_IDLE_TIME"),
		PoolHealthCheckPeriod: v.GetDuration("DB_POOL_HEALTH_CHECK_PERIOD"),
	}

	cfg.Redis = RedisConfig{
		URL:      opt("REDIS_URL"),
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      v.GetDuration("REDIS_TTL"),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     opt("JWT_ACCESS_SECRET"),
		RefreshSecret:    opt("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  v.GetDuration("JWT_ACCESS_EXPIRES_IN"),
		RefreshExpiresIn: v.GetDuration("JWT_REFRESH_EXPIRES_IN"),
	}
	if server {
		cfg.JWT.AccessSecret = req("JWT_ACCESS_SECRET")
		cfg.JWT.RefreshSecret = req("JWT_REFRESH_SECRET")
	}

	cfg.Storage = StorageConfig{
		Driver:            strings.ToLower(opt("STORAGE_DRIVER")),
		Dir:               opt("STORAGE_DIR"),
		S3Bucket:          opt("S3_BUCKET"),
		S3Region:          opt("S3_REGION"),
		S3Endpoint:        opt("S3_ENDPOINT"),
		S3AccessKeyID:     opt("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
	}

	cfg.Queue = QueueConfig{
		URL:             opt("AMQP_URL"),
		RequestQueue:    opt("AMQP_REQUEST_QUEUE"),
		UpdatesExchange: opt("AMQP_UPDATES_EXCHANGE"),
		Workers:         v.GetInt("WORKER_CONCURRENCY"),
	}

	cfg.Fetch = FetchConfig{
		Timeout:   v.GetDuration("FETCH_TIMEOUT"),
		Headless:  v.GetBool("FETCH_HEADLESS"),
		UserAgent: opt("FETCH_USER_AGENT"),
		MaxBytes:  v.GetInt("FETCH_MAX_BYTES"),
	}

	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		Burst: v.GetInt("RATE_LIMIT_BURST"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	mode, err := matching.ParseMode(opt("SKILL_MATCH_MODE"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", errInvalidValue, err)
	}
	cfg.Matching = MatchingConfig{
		SkillsFile: opt("SKILLS_FILE"),
		Mode:       mode,
		Weights: matching.Weights{
			Text:  v.GetFloat64("MATCH_TEXT_WEIGHT"),
			Skill: v.GetFloat64("MATCH_SKILL_WEIGHT"),
		},
	}
	if err := cfg.Matching.Weights.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: MATCH_TEXT_WEIGHT/MATCH_SKILL_WEIGHT: %v", errInvalidValue, err)
	}

	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("%w: DB_DRIVER=%q", errInvalidValue, cfg.Database.Driver)
	}
	switch cfg.Storage.Driver {
	case StorageLocal, StorageS3:
	default:
		return Config{}, fmt.Errorf("%w: STORAGE_DRIVER=%q", errInvalidValue, cfg.Storage.Driver)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "skillmatch.db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", 5*time.Second)

	v.SetDefault("REDIS_TTL", 10*time.Minute)

	v.SetDefault("JWT_ACCESS_EXPIRES_IN", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour)

	v.SetDefault("SKILL_MATCH_MODE", string(matching.ModeSubstring))
	v.SetDefault("MATCH_TEXT_WEIGHT", matching.DefaultWeights().Text)
	v.SetDefault("MATCH_SKILL_WEIGHT", matching.DefaultWeights().Skill)

	v.SetDefault("STORAGE_DRIVER", StorageLocal)
	v.SetDefault("STORAGE_DIR", "data/reports")

	v.SetDefault("AMQP_REQUEST_QUEUE", "match_requests")
	v.SetDefault("AMQP_UPDATES_EXCHANGE", "match_updates")
	v.SetDefault("WORKER_CONCURRENCY", 3)

	v.SetDefault("FETCH_TIMEOUT", 20*time.Second)
	v.SetDefault("FETCH_USER_AGENT", "skillmatch/1.0 (+job-description-fetcher)")
	v.SetDefault("FETCH_MAX_BYTES", 2<<20)

	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}
