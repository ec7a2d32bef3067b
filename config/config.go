// Package config loads the settings of the portal database tools.
//
// Settings are read from, in increasing priority: built-in defaults, the
// portaldb.yaml file in the working directory or ~/.config/portaldb, the
// .env file, the .env.local file and the process environment. Environment
// variables carry the PORTALDB_ prefix; the database URL also falls back to
// DATABASE_URL.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	DriverPgx      = "pgx"
	DriverPq       = "pq"
	DriverStandard = "standard"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var (
	ErrNoDatabaseURL = errors.New("config: database_url is not set")
	ErrUnknownDriver = errors.New("config: unknown driver")
)

// Config holds the resolved settings.
type Config struct {
	DatabaseURL string
	Driver      string
	LogSQL      bool
	Env         string
}

// environment variables of each key, first match wins
var envNames = map[string][]string{
	"database_url": {"PORTALDB_DATABASE_URL", "DATABASE_URL"},
	"driver":       {"PORTALDB_DRIVER"},
	"log_sql":      {"PORTALDB_LOG_SQL"},
	"env":          {"PORTALDB_ENV"},
}

// AppFs is the file system config files are read from.
var AppFs = afero.NewOsFs()

// Load reads the configuration from AppFs and the environment.
func Load() (*Config, error) {
	return LoadFs(AppFs)
}

// LoadFs is like Load but reads files from fs.
func LoadFs(fs afero.Fs) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName("portaldb")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "portaldb"))
	}

	v.SetDefault("driver", DriverPgx)
	v.SetDefault("log_sql", false)
	v.SetDefault("env", EnvDevelopment)

	for key, names := range envNames {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	dotenv, err := readDotenv(fs, ".env", ".env.local")
	if err != nil {
		return nil, err
	}
	for key, names := range envNames {
		if _, ok := lookup(os.Getenv, names); ok {
			continue
		}
		if value, ok := lookup(func(name string) string { return dotenv[name] }, names); ok {
			v.Set(key, value)
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database_url"),
		Driver:      v.GetString("driver"),
		LogSQL:      v.GetBool("log_sql"),
		Env:         v.GetString("env"),
	}
	return cfg, cfg.Validate()
}

// Validate checks that a database can be opened with cfg.
func (cfg *Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return ErrNoDatabaseURL
	}
	switch cfg.Driver {
	case DriverPgx, DriverPq, DriverStandard:
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Driver)
}

// IsProduction reports whether the tools run against a production database.
func (cfg *Config) IsProduction() bool {
	return cfg.Env == EnvProduction
}

// readDotenv parses the files in order; later files override earlier ones.
// Missing files are skipped.
func readDotenv(fs afero.Fs, names ...string) (map[string]string, error) {
	values := map[string]string{}
	for _, name := range names {
		f, err := fs.Open(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: open %s: %w", name, err)
		}
		parsed, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		for k, v := range parsed {
			values[k] = v
		}
	}
	return values, nil
}

// empty values count as unset, as they do for viper
func lookup(get func(string) string, names []string) (string, bool) {
	for _, name := range names {
		if value := get(name); value != "" {
			return value, true
		}
	}
	return "", false
}
