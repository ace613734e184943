package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Alp4ka/gorelay"
)

// Config is resolved from flags, GORELAY_* environment variables and an
// optional config file, in that order of precedence.
type Config struct {
	Dialect      string `mapstructure:"dialect"`
	DSN          string `mapstructure:"dsn"`
	LogLevel     string `mapstructure:"log-level"`
	DefaultLimit int    `mapstructure:"default-limit"`
	MaxLimit     int    `mapstructure:"max-limit"`
}

func bindConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "path to a config file (yaml, json or toml)")
	flags.String("dialect", "sqlite", "database dialect: sqlite, postgres or mysql")
	flags.String("dsn", "file:gorelay.db?cache=shared", "database connection string")
	flags.String("log-level", "info", "log level")
	flags.Int("default-limit", gorelay.DefaultLimit, "page size when neither --first nor --last is given")
	flags.Int("max-limit", gorelay.MaxLimit, "largest page size accepted")
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GORELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return Config{}, fmt.Errorf("cannot bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("cannot read config '%s': %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Dialect {
	case dialectSQLite, dialectPostgres, dialectMySQL:
	default:
		return fmt.Errorf("unsupported dialect '%s'", c.Dialect)
	}

	if c.DSN == "" {
		return fmt.Errorf("empty dsn")
	}

	if c.DefaultLimit < 0 || c.MaxLimit < 0 {
		return fmt.Errorf("page size limits must not be negative")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, err)
	}

	return nil
}

func newLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
