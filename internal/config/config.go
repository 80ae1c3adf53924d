// Package config предоставялет структуры и функции для загрузки конфигурации бота
// из YAML-файла и переменных окружения.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	Telegram        `yaml:"telegram"`
	HTTPServer      `yaml:"http_server"`
	Storage         `yaml:"storage"`
	Staging         `yaml:"staging"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Subscription    `yaml:"subscription"`
	Scheduler       `yaml:"scheduler"`
	RateLimit       `yaml:"rate_limit"`
}

// Telegram настройки подключения к Bot API и ссылки главного меню
type Telegram struct {
	Token       string `yaml:"token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	PollTimeout int    `yaml:"poll_timeout" env-default:"60" validate:"gte=0"`
	ChannelURL  string `yaml:"channel_url" env-default:"http://example.com/tkg" validate:"url"`
	SupportURL  string `yaml:"support_url" env-default:"http://example.com/support" validate:"url"`
}

// HTTPServer структура для настройки сервера проверки живости
type HTTPServer struct {
	Host        string        `yaml:"host" env-default:"0.0.0.0"`
	Port        string        `yaml:"port" env:"PORT" env-default:"5000" validate:"required,numeric"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Address возвращает адрес для net/http.
func (h HTTPServer) Address() string {
	return h.Host + ":" + h.Port
}

// Storage структура выбора хранилища пользователей
type Storage struct {
	Driver                  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file" validate:"oneof=file postgres"`
	FilePath                string `yaml:"file_path" env-default:"users.json"`
	StorageConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
}

// Staging структура выбора хранилища черновиков заказов
type Staging struct {
	StagingDriver string        `yaml:"driver" env:"STAGING_DRIVER" env-default:"memory" validate:"oneof=memory redis"`
	TTL           time.Duration `yaml:"ttl" env-default:"24h"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для публикации событий подписки
type RabbitMQ struct {
	Enabled            bool          `yaml:"enabled" env:"RABBITMQ_ENABLED"`
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"notifications"`
	RoutingKey         string        `yaml:"routing_key" env-default:"subscription.extended"`
}

// Subscription правила тарифов
type Subscription struct {
	BasePrice          int    `yaml:"base_price" env-default:"100" validate:"gt=0"`
	TrialDisabled      bool   `yaml:"trial_disabled" env:"FREE_PERIOD_DISABLED"`
	TrialDays          int    `yaml:"trial_days" env-default:"7" validate:"gt=0"`
	PlaceholderKey     string `yaml:"placeholder_key" env-default:"DUMMY_KEY_123456"`
	PlaceholderAddress string `yaml:"placeholder_address" env-default:"vpn.example.com"`
}

// Scheduler настройки напоминаний об окончании подписки
type Scheduler struct {
	SchedulerEnabled bool          `yaml:"enabled"`
	Interval         time.Duration `yaml:"interval" env-default:"24h" validate:"gt=0"`
}

// RateLimit ограничение частоты нажатий кнопок одним пользователем
type RateLimit struct {
	RPS       float64 `yaml:"rps" env-default:"2" validate:"gt=0"`
	Burst     int     `yaml:"burst" env-default:"5" validate:"gt=0"`
	CacheSize int     `yaml:"cache_size" env-default:"10000" validate:"gt=0"`
}

// Load читает конфиг из файла path, а если path пустой, только из окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Storage.Driver == "postgres" && cfg.StorageConnectionString == "" {
		return nil, fmt.Errorf("%s: storage connection string is required for postgres driver", op)
	}
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is required when rabbitmq is enabled", op)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}
