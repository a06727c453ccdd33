package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream   UpstreamConfig
	Attendance AttendanceConfig
	Photo      PhotoConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Snapshots  SnapshotsConfig
	CORS       CORSConfig
	Log        LogConfig
}

// UpstreamConfig locates the campus portal API.
type UpstreamConfig struct {
	BaseURL        string
	Referer        string
	ContextID      string
	Timeout        time.Duration
	AttendancePath string
	TrendPath      string
	PdpPath        string
	PdpType        int
	PhotoPath      string
}

// AttendanceConfig tunes dashboard computations and caching.
type AttendanceConfig struct {
	ThresholdPercent float64
	TopSubjects      int
	TrendWindow      int
	CacheEnabled     bool
	CacheTTL         time.Duration
}

// PhotoConfig bounds proxied photo downloads.
type PhotoConfig struct {
	MaxBytes int64
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SnapshotsConfig controls background persistence of dashboard snapshots.
type SnapshotsConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:        strings.TrimRight(v.GetString("UPSTREAM_URL"), "/"),
		Referer:        v.GetString("UPSTREAM_REFERER"),
		ContextID:      v.GetString("UPSTREAM_CONTEXT_ID"),
		Timeout:        parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		AttendancePath: v.GetString("UPSTREAM_ATTENDANCE_PATH"),
		TrendPath:      v.GetString("UPSTREAM_TREND_PATH"),
		PdpPath:        v.GetString("UPSTREAM_PDP_PATH"),
		PdpType:        v.GetInt("UPSTREAM_PDP_TYPE"),
		PhotoPath:      v.GetString("UPSTREAM_PHOTO_PATH"),
	}

	threshold := v.GetFloat64("ATTENDANCE_THRESHOLD")
	if threshold <= 0 || threshold > 100 {
		threshold = 75
	}
	cfg.Attendance = AttendanceConfig{
		ThresholdPercent: threshold,
		TopSubjects:      v.GetInt("ATTENDANCE_TOP_SUBJECTS"),
		TrendWindow:      v.GetInt("ATTENDANCE_TREND_WINDOW"),
		CacheEnabled:     v.GetBool("ENABLE_ATTENDANCE_CACHE"),
		CacheTTL:         parseDuration(v.GetString("ATTENDANCE_CACHE_TTL"), 5*time.Minute),
	}

	maxPhoto := v.GetInt64("PHOTO_MAX_BYTES")
	if maxPhoto <= 0 {
		maxPhoto = 5 * 1024 * 1024
	}
	cfg.Photo = PhotoConfig{MaxBytes: maxPhoto}

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("ENABLE_DATABASE"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Snapshots = SnapshotsConfig{
		Enabled:    v.GetBool("ENABLE_SNAPSHOTS"),
		Workers:    v.GetInt("SNAPSHOT_WORKERS"),
		Retries:    v.GetInt("SNAPSHOT_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SNAPSHOT_RETRY_DELAY"), time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_URL", "http://localhost:9000")
	v.SetDefault("UPSTREAM_REFERER", "")
	v.SetDefault("UPSTREAM_CONTEXT_ID", "194")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_ATTENDANCE_PATH", "/api/SubjectAttendanceReport")
	v.SetDefault("UPSTREAM_TREND_PATH", "/api/DailyAttendanceReport")
	v.SetDefault("UPSTREAM_PDP_PATH", "/api/TransportAttendanceReport")
	v.SetDefault("UPSTREAM_PDP_TYPE", 7)
	v.SetDefault("UPSTREAM_PHOTO_PATH", "/api/fileblob")

	v.SetDefault("ATTENDANCE_THRESHOLD", 75)
	v.SetDefault("ATTENDANCE_TOP_SUBJECTS", 5)
	v.SetDefault("ATTENDANCE_TREND_WINDOW", 10)
	v.SetDefault("ENABLE_ATTENDANCE_CACHE", false)
	v.SetDefault("ATTENDANCE_CACHE_TTL", "5m")

	v.SetDefault("PHOTO_MAX_BYTES", 5*1024*1024)

	v.SetDefault("ENABLE_DATABASE", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_SNAPSHOTS", false)
	v.SetDefault("SNAPSHOT_WORKERS", 1)
	v.SetDefault("SNAPSHOT_RETRIES", 3)
	v.SetDefault("SNAPSHOT_RETRY_DELAY", "1s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
