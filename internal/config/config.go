package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
	pkgerrors "github.com/pkg/errors"

	"asset-inventory-api/internal/database"
)

type Config struct {
	DBDriver   string `koanf:"db_driver"`
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBDatabase string `koanf:"db_database"`
	DBDSN      string `koanf:"db_dsn"`
	DBMaxConns int    `koanf:"db_max_conns"`

	SecretKey string        `koanf:"secret_key"`
	JWTExpiry time.Duration `koanf:"jwt_expiry"`

	HTTPAddr           string `koanf:"http_addr"`
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	RequireAuth   bool   `koanf:"require_auth"`
	MoveAtomic    bool   `koanf:"move_atomic"`
	AutoMigrate   bool   `koanf:"auto_migrate"`
	EnableMetrics bool   `koanf:"enable_metrics"`
	EnableSwagger bool   `koanf:"enable_swagger"`
	ImportMapping string `koanf:"import_mapping"`
}

// Defaults returns the configuration used for keys absent from the environment.
func Defaults() *Config {
	return &Config{
		DBDriver:           string(database.Postgres),
		DBHost:             "localhost",
		DBMaxConns:         10,
		JWTExpiry:          5 * time.Hour,
		HTTPAddr:           ":5000",
		CORSAllowedOrigins: "*",
		LogLevel:           "info",
		ImportMapping:      "configs/mapping/inventory.yaml",
	}
}

// Load reads .env files (when present) and the process environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.Wrap(err, "load .env")
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, pkgerrors.Wrap(err, "load env variables failed")
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, pkgerrors.Wrap(err, "unmarshal config failed")
	}
	return cfg, nil
}

// LoadAndValidate is Load followed by Validate.
func LoadAndValidate(envFiles ...string) (*Config, error) {
	cfg, err := Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if _, err := database.ParseDriver(c.DBDriver); err != nil {
		return err
	}
	if c.DBDSN == "" && c.DBDriver != string(database.SQLite) && c.DBDatabase == "" {
		return errors.New("DB_DATABASE or DB_DSN is required")
	}
	if len(c.SecretKey) < 16 {
		return errors.New("SECRET_KEY must be at least 16 characters")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}
	return nil
}

// DatabaseOptions resolves the driver and connection string.
func (c *Config) DatabaseOptions() (database.Options, error) {
	driver, err := database.ParseDriver(c.DBDriver)
	if err != nil {
		return database.Options{}, err
	}
	dsn := c.DBDSN
	if dsn == "" {
		dsn = database.BuildDSN(driver, database.Endpoint{
			Host:     c.DBHost,
			Port:     c.DBPort,
			User:     c.DBUser,
			Password: c.DBPassword,
			Database: c.DBDatabase,
		})
	}
	return database.Options{Driver: driver, DSN: dsn, MaxConns: c.DBMaxConns}, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
