package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	Events       EventsConfig       `yaml:"events"`
	Admission    AdmissionConfig    `yaml:"admission"`
	Worker       WorkerConfig       `yaml:"worker"`
	Availability AvailabilityConfig `yaml:"availability"`
	Auth         AuthConfig         `yaml:"auth"`
	Email        EmailConfig        `yaml:"email"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMS) * time.Millisecond
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

const (
	DriverKafka    = "kafka"
	DriverRabbitMQ = "rabbitmq"
	DriverNone     = "none"
)

type EventsConfig struct {
	Driver string `yaml:"driver"`
}

type AdmissionConfig struct {
	LeaseMinutes int  `yaml:"lease_minutes"`
	RequireToken bool `yaml:"require_token"`
	MaxPerClaim  int  `yaml:"max_per_claim"`
}

func (a AdmissionConfig) Lease() time.Duration {
	return time.Duration(a.LeaseMinutes) * time.Minute
}

type WorkerConfig struct {
	SweepIntervalSeconds int  `yaml:"sweep_interval_seconds"`
	SweepBatch           int  `yaml:"sweep_batch"`
	SweepLock            bool `yaml:"sweep_lock"`
	SweepLockTTLSeconds  int  `yaml:"sweep_lock_ttl_seconds"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.SweepIntervalSeconds) * time.Second
}

func (w WorkerConfig) SweepLockTTL() time.Duration {
	return time.Duration(w.SweepLockTTLSeconds) * time.Second
}

type AvailabilityConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

func (a AvailabilityConfig) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type EmailConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
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

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets stay out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("MAILERSEND_API_KEY"); v != "" {
		c.Email.APIKey = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.LockTimeoutMS == 0 {
		c.Database.LockTimeoutMS = 2000
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "ticketqueue.events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = c.Kafka.EventsTopic
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "ticketqueue-notifier"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "ticketqueue"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "ticketqueue.notifications"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = DriverKafka
	}
	if c.Admission.LeaseMinutes == 0 {
		c.Admission.LeaseMinutes = 15
	}
	if c.Admission.MaxPerClaim == 0 {
		c.Admission.MaxPerClaim = 10
	}
	if c.Worker.SweepIntervalSeconds == 0 {
		c.Worker.SweepIntervalSeconds = 30
	}
	if c.Worker.SweepBatch == 0 {
		c.Worker.SweepBatch = 500
	}
	if c.Worker.SweepLockTTLSeconds == 0 {
		c.Worker.SweepLockTTLSeconds = 60
	}
	if c.Availability.CacheTTLSeconds == 0 {
		c.Availability.CacheTTLSeconds = 5
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Ticket Queue"
	}
}

func (c *Config) validate() error {
	switch c.Events.Driver {
	case DriverKafka, DriverRabbitMQ, DriverNone:
	default:
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}
	if c.Admission.LeaseMinutes < 0 || c.Admission.MaxPerClaim < 0 {
		return fmt.Errorf("admission settings must not be negative")
	}
	// an empty HS256 key lets anyone mint admin tokens
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or set JWT_SECRET)")
	}
	return nil
}
