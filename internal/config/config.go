// Package config loads brickshelf settings from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverSQL      = "sql"
)

// Config holds every setting of the application. Keys match the
// environment variable names.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT" validate:"required"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// Credential store
	UsersDriver   string `mapstructure:"USERS_DRIVER" validate:"oneof=mongo sql"`
	MongoURI      string `mapstructure:"MONGODB" validate:"required_if=UsersDriver mongo"`
	MongoDatabase string `mapstructure:"MONGODB_DATABASE" validate:"required_if=UsersDriver mongo"`
	BcryptCost    int    `mapstructure:"BCRYPT_COST" validate:"gte=4,lte=31"`

	// Catalog store
	DBDriver      string `mapstructure:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DBHost        string `mapstructure:"DB_HOST" validate:"required_if=DBDriver postgres"`
	DBPort        int    `mapstructure:"DB_PORT" validate:"gt=0,lte=65535"`
	DBDatabase    string `mapstructure:"DB_DATABASE" validate:"required_if=DBDriver postgres"`
	DBUser        string `mapstructure:"DB_USER" validate:"required_if=DBDriver postgres"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBSSLMode     string `mapstructure:"DB_SSLMODE" validate:"oneof=disable verify-ca verify-full"`
	DBSSLRootCert string `mapstructure:"DB_SSLROOTCERT"`
	SQLitePath    string `mapstructure:"SQLITE_PATH" validate:"required_if=DBDriver sqlite"`

	// Optional catalog change events
	RabbitMQURL string `mapstructure:"RABBITMQ_URL" validate:"omitempty,url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("USERS_DRIVER", DriverMongo)
	v.SetDefault("MONGODB", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "brickshelf")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_DATABASE", "brickshelf")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "verify-full")
	v.SetDefault("DB_SSLROOTCERT", "")
	v.SetDefault("SQLITE_PATH", "brickshelf.db")
	v.SetDefault("RABBITMQ_URL", "")
}

// Load reads defaults, then the config file at path (when non-empty), then
// the environment, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for missing or unsafe values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid config: %s failed on the '%s' rule", e.Field(), e.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PostgresDSN builds the connection URL for the catalog database.
func (c *Config) PostgresDSN() string {
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	if c.DBSSLRootCert != "" {
		q.Set("sslrootcert", c.DBSSLRootCert)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBDatabase,
		RawQuery: q.Encode(),
	}
	return u.String()
}
