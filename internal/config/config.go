package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Database struct {
	Driver string `yaml:"driver"` // mysql | postgres | sqlite
	DSN    string `yaml:"dsn"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled 未配置地址时不使用 redis
func (r Redis) Enabled() bool { return r.Addr != "" }

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 && k.Topic != "" }

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Schedule struct {
	Timezone    string `yaml:"timezone"`
	StandupTime string `yaml:"standup_time"` // HH:MM
	OverdueTime string `yaml:"overdue_time"` // HH:MM
	MissingDays int    `yaml:"missing_days"`
}

type Config struct {
	Database     Database `yaml:"database"`
	Redis        Redis    `yaml:"redis"`
	Kafka        Kafka    `yaml:"kafka"`
	HTTP         HTTP     `yaml:"http"`
	Auth         Auth     `yaml:"auth"`
	Schedule     Schedule `yaml:"schedule"`
	AdminUserIDs []int64  `yaml:"admin_user_ids"`
	LogLevel     string   `yaml:"log_level"`
}

// Default 本地开发默认值
func Default() Config {
	return Config{
		Database: Database{Driver: "sqlite", DSN: "teampulse.db"},
		HTTP:     HTTP{Addr: ":8080"},
		Auth:     Auth{TokenTTL: 30 * time.Minute},
		Schedule: Schedule{
			Timezone:    "Europe/Istanbul",
			StandupTime: "10:00",
			OverdueTime: "09:00",
			MissingDays: 0,
		},
		Kafka:    Kafka{Topic: "teampulse.events"},
		LogLevel: "info",
	}
}

// Load 读取顺序：默认值 -> yaml 文件 -> .env -> 环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env not loaded", "err", err)
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("DATABASE_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.DSN)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("KAFKA_TOPIC", &cfg.Kafka.Topic)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("TIMEZONE", &cfg.Schedule.Timezone)
	str("STANDUP_TIME", &cfg.Schedule.StandupTime)
	str("OVERDUE_TIME", &cfg.Schedule.OverdueTime)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v := strings.TrimSpace(getenv("REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v := strings.TrimSpace(getenv("KAFKA_BROKERS")); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := strings.TrimSpace(getenv("ADMIN_USER_IDS")); v != "" {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("ADMIN_USER_IDS: %w", err)
		}
		cfg.AdminUserIDs = ids
	}
	return nil
}

// ParseIDList 支持 JSON 数组 "[1,2]" 或逗号分隔 "1,2"
func ParseIDList(v string) ([]int64, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(v), &ids); err != nil {
			return nil, err
		}
		return ids, nil
	}
	var ids []int64
	for _, part := range splitList(v) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Schedule.Timezone, err)
	}
	for name, v := range map[string]string{"standup_time": c.Schedule.StandupTime, "overdue_time": c.Schedule.OverdueTime} {
		if _, _, err := ParseClock(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Schedule.MissingDays < 0 {
		return errors.New("missing_days must not be negative")
	}
	return nil
}

// Location 调用前已经过 Validate
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock 解析 HH:MM
func ParseClock(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock %q, want HH:MM", v)
	}
	return t.Hour(), t.Minute(), nil
}

// SlogLevel 日志级别
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
