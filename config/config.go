package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is fine:
// in containers everything comes from the real environment.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
}

// Config 从环境变量读取
type Config struct {
	Port      string
	AppEnv    string
	WebOrigin string

	DB    DBConfig
	Redis RedisConfig
	Log   LogConfig

	Report ReportConfig
	Worker WorkerConfig
}

type DBConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type RedisConfig struct {
	Addr     string // empty disables Redis; queue and report store fall back to memory
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

type ReportConfig struct {
	Interval    time.Duration
	StartOffset time.Duration
	TopN        int
	History     int
}

type WorkerConfig struct {
	Concurrency int
}

func Load() Config {
	return Config{
		Port:      get("PORT", "3001"),
		AppEnv:    get("APP_ENV", "development"),
		WebOrigin: get("WEB_ORIGIN", "http://localhost:5173"),
		DB: DBConfig{
			Driver:     strings.ToLower(get("DB_DRIVER", "postgres")),
			Host:       get("DB_HOST", "127.0.0.1"),
			Port:       get("DB_PORT", "5432"),
			User:       get("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       get("DB_NAME", "library"),
			SSLMode:    get("DB_SSLMODE", "disable"),
			SQLitePath: get("SQLITE_PATH", "library.db"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:  get("LOG_LEVEL", "info"),
			Format: os.Getenv("LOG_FORMAT"),
		},
		Report: ReportConfig{
			Interval:    getDuration("REPORT_INTERVAL", 24*time.Hour),
			StartOffset: getDuration("REPORT_START_OFFSET", 0),
			TopN:        getInt("REPORT_TOP_N", 10),
			History:     getInt("REPORT_HISTORY", 30),
		},
		Worker: WorkerConfig{
			Concurrency: getInt("WORKER_CONCURRENCY", 2),
		},
	}
}

// Production reports whether APP_ENV selects production defaults.
func (c Config) Production() bool { return c.AppEnv == "production" }

func get(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := get(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", k, v, def)
		return def
	}
	return n
}

// getDuration accepts Go durations ("24h", "90m") or plain seconds.
func getDuration(k string, def time.Duration) time.Duration {
	v := get(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d
	}
	log.Printf("config: %s=%q is not a duration, using %s", k, v, def)
	return def
}
