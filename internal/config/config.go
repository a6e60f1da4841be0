package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env             string
	Storage         string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	StoreTimeout    time.Duration
	LogLevel        string
	TestError       bool

	DBHost            string
	DBPort            int
	DBUser            string
	DBPassword        string
	DBName            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("http.addr", ":8001")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("store.timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("test.error", false)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "development")
	v.SetDefault("database.password", "development")
	v.SetDefault("database.name", "scheduler")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	_ = v.BindEnv("env", "SCHEDULER_ENV", "ENV")
	_ = v.BindEnv("storage", "SCHEDULER_STORAGE", "STORAGE")
	_ = v.BindEnv("http.addr", "SCHEDULER_HTTP_ADDR", "HTTP_ADDR", "PORT")
	_ = v.BindEnv("shutdown.timeout", "SCHEDULER_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("store.timeout", "SCHEDULER_STORE_TIMEOUT")
	_ = v.BindEnv("log.level", "SCHEDULER_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("test.error", "SCHEDULER_TEST_ERROR", "TEST_ERROR")
	_ = v.BindEnv("database.host", "SCHEDULER_DB_HOST", "PGHOST")
	_ = v.BindEnv("database.port", "SCHEDULER_DB_PORT", "PGPORT")
	_ = v.BindEnv("database.user", "SCHEDULER_DB_USER", "PGUSER")
	_ = v.BindEnv("database.password", "SCHEDULER_DB_PASSWORD", "PGPASSWORD")
	_ = v.BindEnv("database.name", "SCHEDULER_DB_NAME", "PGDATABASE")
	_ = v.BindEnv("database.max_open_conns", "SCHEDULER_DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.max_idle_conns", "SCHEDULER_DB_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.conn_max_lifetime", "SCHEDULER_DB_CONN_MAX_LIFETIME")
	_ = v.BindEnv("database.conn_max_idle_time", "SCHEDULER_DB_CONN_MAX_IDLE_TIME")

	env := strings.ToLower(strings.TrimSpace(v.GetString("env")))
	switch env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return Config{}, fmt.Errorf("unknown env %q", env)
	}

	storage := strings.ToLower(strings.TrimSpace(v.GetString("storage")))
	switch storage {
	case StoragePostgres, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown storage %q", storage)
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("shutdown.timeout"))
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := time.ParseDuration(v.GetString("store.timeout"))
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return Config{}, err
	}
	connMaxIdleTime, err := time.ParseDuration(v.GetString("database.conn_max_idle_time"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Env:             env,
		Storage:         storage,
		HTTPAddr:        normalizeAddr(v.GetString("http.addr")),
		ShutdownTimeout: shutdownTimeout,
		StoreTimeout:    storeTimeout,
		LogLevel:        v.GetString("log.level"),
		TestError:       v.GetBool("test.error"),

		DBHost:            v.GetString("database.host"),
		DBPort:            v.GetInt("database.port"),
		DBUser:            v.GetString("database.user"),
		DBPassword:        v.GetString("database.password"),
		DBName:            v.GetString("database.name"),
		DBMaxOpenConns:    v.GetInt("database.max_open_conns"),
		DBMaxIdleConns:    v.GetInt("database.max_idle_conns"),
		DBConnMaxLifetime: connMaxLifetime,
		DBConnMaxIdleTime: connMaxIdleTime,
	}, nil
}

// normalizeAddr accepts listen addresses and bare port numbers, which is
// how PORT is usually set.
func normalizeAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ":8001"
	}
	if _, err := strconv.Atoi(addr); err == nil {
		return ":" + addr
	}
	return addr
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DatabaseName applies the per-mode suffix: test deployments get their own
// database next to the main one.
func (c Config) DatabaseName() string {
	if c.Env == EnvTest {
		return c.DBName + "_test"
	}
	return c.DBName
}

func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DatabaseName(),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
