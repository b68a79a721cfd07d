package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/kas-cafe/internal/domain/order"
)

const defaultAddr = "0.0.0.0:8080"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config is loaded from KAS_-prefixed environment variables, flags and YAML
// files.
type Config struct {
	Addr     string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	Shop     ShopConfig
	Storage  StorageConfig
	CORS     CORSConfig
	Graceful GracefulConfig
}

type ShopConfig struct {
	Name          string `default:"KAS Cafe" usage:"Shop name printed on receipts"`
	Timezone      string `default:"Local" usage:"IANA zone for displayed order timestamps"`
	DisplayLayout string `default:"" usage:"Go time layout for displayed timestamps" flag:"display-layout"`
}

type StorageConfig struct {
	Driver      string `default:"memory" usage:"Order storage: memory, redis or postgres"`
	DatabaseURL string `usage:"PostgreSQL URL (KAS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Redis       RedisConfig
}

type RedisConfig struct {
	Addr      string `default:"localhost:6379" usage:"Redis address"`
	Password  string `usage:"Redis password"`
	DB        int    `default:"0" usage:"Redis database number"`
	Namespace string `default:"kas" usage:"Prefix for Redis keys"`
	URL       string `usage:"Redis URL, overrides Addr, Password and DB (or REDIS_URL)" flag:"redis-url"`
}

// Options builds go-redis options, preferring URL when set.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
	MaxAge  int      `default:"86400" usage:"Preflight cache lifetime in seconds" flag:"cors-max-age"`
}

type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay between readiness=false and shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads the configuration and validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KAS",
		Files:     []string{"config.yaml", "/etc/kas-cafe/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults honours the unprefixed variables set by hosting
// platforms.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Storage.Redis.URL == "" {
		c.Storage.Redis.URL = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("postgres storage needs a database URL: set KAS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := c.Shop.DisplayFormat(); err != nil {
		return err
	}
	return nil
}

// DisplayFormat resolves the configured zone and layout.
func (c ShopConfig) DisplayFormat() (order.DisplayFormat, error) {
	f := order.DisplayFormat{Layout: c.DisplayLayout}
	if c.Timezone == "" {
		return f, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return f, errors.Wrapf(err, "load timezone %q", c.Timezone)
	}
	f.Location = loc
	return f, nil
}
