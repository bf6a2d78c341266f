// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`

	RedisConnection RedisConnection `yaml:"redis_connection"`
	RabbitMQ        RabbitMQ        `yaml:"rabbitmq"`
	SMTP            SMTP            `yaml:"smtp"`
	HTTPServer      HTTPServer      `yaml:"http_server"`
	JWTToken        JWTToken        `yaml:"jwttoken"`
	Scheduler       Scheduler       `yaml:"scheduler"`
	Report          Report          `yaml:"report"`
	Sender          Sender          `yaml:"sender"`
}

// HTTPServer структура для настройки HTTP сервера: API, здоровье и метрики
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	TTL          time.Duration `yaml:"ttl" env-default:"10m"`
}

// RabbitMQ настройки брокера сообщений
type RabbitMQ struct {
	URL        string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string `yaml:"exchange" env-default:"notifications"`
	Queue      string `yaml:"queue" env-default:"notifications.reminder"`
	RoutingKey string `yaml:"routing_key" env-default:"reminder"`
}

// SMTP настройки почтового сервера
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// Scheduler настройки периодического запуска
type Scheduler struct {
	Interval          time.Duration `yaml:"interval" env-default:"24h"`
	RunOnce           bool          `yaml:"run_once" env:"SCHEDULER_RUN_ONCE"`
	YearlyReportMonth int           `yaml:"yearly_report_month" env-default:"1"`
	MetricsAddress    string        `yaml:"metrics_address" env:"SCHEDULER_METRICS_ADDRESS" env-default:":9091"`
}

// Report настройки формирования отчётов
type Report struct {
	Format   string `yaml:"format" env:"REPORT_FORMAT" env-default:"pdf"`
	Currency string `yaml:"currency" env-default:"$"`
}

// Sender настройки отправки писем
type Sender struct {
	MailRatePerMinute int `yaml:"mail_rate_per_minute" env-default:"30"`
}

// MustLoad функция для загрузки конфига, читает файл из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return &cfg
}

// Validate проверяет значения, которые нельзя выразить тегами
func (c *Config) Validate() error {
	if c.Scheduler.YearlyReportMonth < 1 || c.Scheduler.YearlyReportMonth > 12 {
		return fmt.Errorf("scheduler.yearly_report_month must be between 1 and 12, got %d", c.Scheduler.YearlyReportMonth)
	}
	switch c.Report.Format {
	case "pdf", "xlsx":
	default:
		return fmt.Errorf("report.format must be pdf or xlsx, got %q", c.Report.Format)
	}
	if c.Sender.MailRatePerMinute <= 0 {
		return fmt.Errorf("sender.mail_rate_per_minute must be positive, got %d", c.Sender.MailRatePerMinute)
	}
	return nil
}

// YearlyReportMonth месяц запуска годового отчёта
func (c *Config) YearlyReportMonth() time.Month {
	return time.Month(c.Scheduler.YearlyReportMonth)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  TTL: %s\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"  Queue: %s\n"+
			"SMTP:\n"+
			"  Host: %s\n"+
			"  Port: %s\n"+
			"  From: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Scheduler:\n"+
			"  Interval: %s\n"+
			"  RunOnce: %t\n"+
			"  YearlyReportMonth: %s\n"+
			"Report:\n"+
			"  Format: %s\n",
		c.Env,
		c.MigrationsPath,
		c.RedisConnection.AddressRedis,
		c.RedisConnection.DB,
		c.RedisConnection.TTL,
		c.RabbitMQ.Exchange,
		c.RabbitMQ.Queue,
		c.SMTP.Host,
		c.SMTP.Port,
		c.SMTP.From,
		c.HTTPServer.AddressHTTP,
		c.JWTToken.TokenTTL,
		c.Scheduler.Interval,
		c.Scheduler.RunOnce,
		c.YearlyReportMonth(),
		c.Report.Format,
	)
}
