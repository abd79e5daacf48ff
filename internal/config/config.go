package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Database DatabaseConfig
	MinIO    MinIOConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"API_MAX_UPLOAD_BYTES" default:"268435456"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host       string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port       int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User       string `envconfig:"POSTGRES_USER" default:"vidvault"`
	Password   string `envconfig:"POSTGRES_PASSWORD" default:"vidvault"`
	DBName     string `envconfig:"POSTGRES_DB" default:"vidvault"`
	SSLMode    string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxConns   int32  `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
	MinConns   int32  `envconfig:"POSTGRES_MIN_CONNS" default:"2"`
	Collection string `envconfig:"VIDEO_COLLECTION" default:"videos"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"videos"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	PartSize  uint64 `envconfig:"MINIO_PART_SIZE" default:"16777216"`
}

type RabbitMQConfig struct {
	Host            string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port            int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User            string `envconfig:"RABBITMQ_USER" default:"vidvault"`
	Password        string `envconfig:"RABBITMQ_PASSWORD" default:"vidvault"`
	VHost           string `envconfig:"RABBITMQ_VHOST" default:"/"`
	VideoExchange   string `envconfig:"RABBITMQ_VIDEO_EXCHANGE" default:"video_events"`
	CreatorExchange string `envconfig:"RABBITMQ_CREATOR_EXCHANGE" default:"creator_events"`
	CreatorQueue    string `envconfig:"RABBITMQ_CREATOR_QUEUE" default:"video_service.creator_events"`
	Prefetch        int    `envconfig:"RABBITMQ_PREFETCH" default:"1"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Database.Collection == "" {
		return fmt.Errorf("VIDEO_COLLECTION must not be empty")
	}
	// minio-go rejects multipart parts smaller than 5 MiB.
	if c.MinIO.PartSize < 5<<20 {
		return fmt.Errorf("MINIO_PART_SIZE must be at least %d bytes", 5<<20)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("API_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
