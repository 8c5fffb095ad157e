// Package config 从环境变量加载配置，存在 .env 时先加载
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"ContentFlow/internal/pkg"
)

const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"5000"`
	ClientURL       string        `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI       string        `env:"MONGODB_URI"`
	MongoDatabase  string        `env:"MONGODB_DATABASE" envDefault:"contentflow"`
	MySQLDSN       string        `env:"MYSQL_DSN"`
	EmailCacheSize int           `env:"EMAIL_CACHE_SIZE" envDefault:"1024"`
	EmailCacheTTL  time.Duration `env:"EMAIL_CACHE_TTL" envDefault:"10m"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	AuthRatePerSec float64 `env:"AUTH_RATE_PER_SEC" envDefault:"5"`
	AuthRateBurst  int     `env:"AUTH_RATE_BURST" envDefault:"10"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"contentflow.moderation"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
}

// Load 读取 files 中存在的 .env（不覆盖已有环境变量），再解析并校验
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when STORE_DRIVER=mongo"))
		}
	case DriverMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required when STORE_DRIVER=mysql"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q (valid drivers are mongo|mysql|memory)", c.StoreDriver))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if c.AuthRatePerSec <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_SEC and AUTH_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c *Config) SMTP() pkg.SMTPConfig {
	return pkg.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}
