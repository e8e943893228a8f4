package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации демо-стенда.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	EventLog  EventLogConfig  `mapstructure:"eventlog"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	AllowedOrigin string        `mapstructure:"allowed_origin"` // CORS, "*" — любой источник
	StaticDir     string        `mapstructure:"static_dir"`     // Собранный фронтенд (index.html + ассеты)
}

// Addr — адрес для http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"` // Пусто — gRPC фасад выключен
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// EventLogConfig выбирает стратегию хранения журнала: file или memory. Одновременно работает только одна.
type EventLogConfig struct {
	Strategy   string `mapstructure:"strategy"`
	Dir        string `mapstructure:"dir"`
	Capacity   int    `mapstructure:"capacity"`    // Размер кольцевого буфера (memory)
	QueryLimit int    `mapstructure:"query_limit"` // 0 — по умолчанию для стратегии

	// Асинхронное зеркало в Postgres
	BufferSize    int           `mapstructure:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type SimulatorConfig struct {
	TimeoutDelay time.Duration `mapstructure:"timeout_delay"`
	Seed         uint64        `mapstructure:"seed"` // 0 — криптослучайный генератор
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// DatabaseConfig описывает подключение к PostgreSQL. Пустой URL — зеркало выключено.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig описывает подключение к Redis (live-канал событий). Пустой Addr — выключено.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

const (
	StrategyFile   = "file"
	StrategyMemory = "memory"
)

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 2. ENV: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Старые имена переменных из Express-версии стенда
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.allowed_origin", "SERVER_ALLOWED_ORIGIN", "ALLOWED_ORIGIN")
	_ = v.BindEnv("database.url", "DATABASE_URL", "DB_URL")

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults регистрирует каждый ключ: Unmarshal не видит ENV для ключей, о которых viper не знает.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	// Таймаут-ветка симулятора держит запрос ~10с, запас обязателен
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("server.static_dir", "./client-build")
	v.SetDefault("grpc.addr", "")
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("eventlog.strategy", StrategyFile)
	v.SetDefault("eventlog.dir", "./logs")
	v.SetDefault("eventlog.capacity", 10)
	v.SetDefault("eventlog.query_limit", 0)
	v.SetDefault("eventlog.buffer_size", 1000)
	v.SetDefault("eventlog.flush_interval", 500*time.Millisecond)
	v.SetDefault("simulator.timeout_delay", 10*time.Second)
	v.SetDefault("simulator.seed", 0)
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

func (c *Config) validate() error {
	switch c.EventLog.Strategy {
	case StrategyFile, StrategyMemory:
	default:
		return fmt.Errorf("config: unknown eventlog.strategy %q (want file or memory)", c.EventLog.Strategy)
	}
	if c.EventLog.Strategy == StrategyMemory && c.EventLog.Capacity <= 0 {
		return fmt.Errorf("config: eventlog.capacity must be positive, got %d", c.EventLog.Capacity)
	}
	// Иначе http.Server оборвет ответ 504 раньше, чем таймаут-ветка его отдаст
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Simulator.TimeoutDelay {
		return fmt.Errorf("config: server.write_timeout (%s) must exceed simulator.timeout_delay (%s)",
			c.Server.WriteTimeout, c.Simulator.TimeoutDelay)
	}
	if c.EventLog.QueryLimit == 0 {
		c.EventLog.QueryLimit = c.EventLog.DefaultQueryLimit()
	}
	return nil
}

// DefaultQueryLimit — 200 строк из файла или весь кольцевой буфер.
func (e EventLogConfig) DefaultQueryLimit() int {
	if e.Strategy == StrategyMemory {
		return e.Capacity
	}
	return 200
}
