package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Database)
}

type RabbitMQ struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

func (r RabbitMQ) URL() string {
	vhost := r.VHost
	if vhost == "" {
		vhost = "/"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", r.User, r.Password, r.Host, r.Port, vhost)
}

type HTTP struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Auth struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

func (a Auth) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

type Blocks struct {
	TTLMinutes   int `yaml:"ttl_minutes"`
	SweepSeconds int `yaml:"sweep_seconds"`
}

func (b Blocks) TTL() time.Duration {
	if b.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(b.TTLMinutes) * time.Minute
}

func (b Blocks) SweepInterval() time.Duration {
	if b.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(b.SweepSeconds) * time.Second
}

type Config struct {
	Database Database `yaml:"database"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	HTTP     HTTP     `yaml:"http"`
	Auth     Auth     `yaml:"auth"`
	Blocks   Blocks   `yaml:"blocks"`
}

// Load reads the YAML config file and applies environment overrides.
// A .env file is honored when present but is not required.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()

	if cfg.Database.Host == "" {
		return nil, errors.New("invalid config: database.host is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("invalid config: auth.jwt_secret is required (file or JWT_SECRET env)")
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = p
		}
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
}
