package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig       `yaml:"http"`
	Database DatabaseConfig   `yaml:"database"`
	Redis    RedisConfig      `yaml:"redis"`
	Kafka    KafkaConfig      `yaml:"kafka"`
	RabbitMQ RabbitMQConfig   `yaml:"rabbitmq"`
	Events   EventsConfig     `yaml:"events"`
	Auth     AuthConfig       `yaml:"auth"`
	Booking  BookingConfig    `yaml:"booking"`
	Pricing  map[string]int64 `yaml:"pricing"`
	Worker   WorkerConfig     `yaml:"worker"`
	Log      LogConfig        `yaml:"log"`
}

type HTTPConfig struct {
	Address           string   `yaml:"address"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL string `yaml:"url"`
}

const (
	EventsDriverKafka    = "kafka"
	EventsDriverRabbitMQ = "rabbitmq"
)

type EventsConfig struct {
	Driver string `yaml:"driver"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type BookingConfig struct {
	Timezone             string `yaml:"timezone"`
	RoomsCacheTTLSeconds int    `yaml:"rooms_cache_ttl_seconds"`
}

// Location resolves the hotel timezone used for "today".
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

func (b BookingConfig) RoomsCacheTTL() time.Duration {
	return time.Duration(b.RoomsCacheTTLSeconds) * time.Second
}

type WorkerConfig struct {
	AuditIntervalMinutes int `yaml:"audit_interval_minutes"`
}

func (w WorkerConfig) AuditInterval() time.Duration {
	return time.Duration(w.AuditIntervalMinutes) * time.Minute
}

type LogConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RequestsPerSecond == 0 {
		c.HTTP.RequestsPerSecond = 20
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 40
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingTopic == "" {
		c.Kafka.BookingTopic = "booking-events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "booking-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "hotelbooking-worker"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = EventsDriverKafka
	}
	if c.Booking.RoomsCacheTTLSeconds == 0 {
		c.Booking.RoomsCacheTTLSeconds = 60
	}
	if len(c.Pricing) == 0 {
		c.Pricing = map[string]int64{"A": 400, "B": 300, "C": 200, "D": 100}
	}
	if c.Worker.AuditIntervalMinutes == 0 {
		c.Worker.AuditIntervalMinutes = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Env == "" {
		c.Log.Env = "development"
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Events.Driver {
	case EventsDriverKafka:
	case EventsDriverRabbitMQ:
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("rabbitmq.url is required for the rabbitmq events driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events driver %q", c.Events.Driver))
	}
	if _, err := c.Booking.Location(); err != nil {
		errs = append(errs, fmt.Errorf("booking.timezone: %w", err))
	}
	if _, err := c.RateTable(); err != nil {
		errs = append(errs, fmt.Errorf("pricing: %w", err))
	}
	if c.Worker.AuditIntervalMinutes <= 0 {
		errs = append(errs, errors.New("worker.audit_interval_minutes must be positive"))
	}
	if c.Booking.RoomsCacheTTLSeconds <= 0 {
		errs = append(errs, errors.New("booking.rooms_cache_ttl_seconds must be positive"))
	}
	if c.HTTP.RequestsPerSecond < 0 || c.HTTP.Burst < 0 {
		errs = append(errs, errors.New("http rate limit must not be negative"))
	}

	return errors.Join(errs...)
}

// RateTable converts the pricing section, keyed by category letter, into
// the nightly rate table.
func (c *Config) RateTable() (domain.RateTable, error) {
	rates := make(domain.RateTable, len(c.Pricing))
	for key, rate := range c.Pricing {
		category, err := domain.ParseCategory(strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		rates[category] = rate
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return rates, nil
}
