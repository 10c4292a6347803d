// Package config provides functionality for managing configuration options
// for the server using defaults, an optional JSON or YAML file, command-line
// flags and environment variables, applied in that order.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAddress         = "localhost:8080"
	DefaultTokenTTLMinutes = 30
	DefaultLogLevel        = "info"
	DefaultEnvironment     = "development"
	DefaultPasswordHasher  = "bcrypt"
	DefaultShutdownTimeout = 10 * time.Second
	DevelopmentSecretKey   = "development-secret-change-me"
	productionEnvironment  = "production"
)

// Duration is a time.Duration that reads and writes as "10s" style text.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address" yaml:"address"`

	// SecretKey signs access tokens.
	SecretKey string `json:"secret_key" yaml:"secret_key"`

	// AccessTokenExpireMinutes is the lifetime of issued tokens.
	AccessTokenExpireMinutes int `json:"access_token_expire_minutes" yaml:"access_token_expire_minutes"`

	LogLevel    string `json:"log_level" yaml:"log_level"`
	Environment string `json:"environment" yaml:"environment"`
	Debug       bool   `json:"debug" yaml:"debug"`

	// PasswordHasher selects the credential verifier ("bcrypt" or "argon2id").
	PasswordHasher string `json:"password_hasher" yaml:"password_hasher"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Config is the path to the config file.
	Config string `json:"-" yaml:"-"`
}

// TokenTTL returns the configured token lifetime.
func (o *Options) TokenTTL() time.Duration {
	return time.Duration(o.AccessTokenExpireMinutes) * time.Minute
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// Development reports whether human-friendly logging should be used.
func (o *Options) Development() bool {
	return o.Debug || o.Environment == DefaultEnvironment
}

// Production reports whether the server runs in the production environment.
func (o *Options) Production() bool {
	return o.Environment == productionEnvironment
}

func defaults() *Options {
	return &Options{
		Address:                  DefaultAddress,
		AccessTokenExpireMinutes: DefaultTokenTTLMinutes,
		LogLevel:                 DefaultLogLevel,
		Environment:              DefaultEnvironment,
		PasswordHasher:           DefaultPasswordHasher,
		ShutdownTimeout:          Duration(DefaultShutdownTimeout),
	}
}

// Parse builds Options from args (without the program name) and the
// environment looked up through getenv. It never exits the process.
func Parse(args []string, getenv func(string) string) (*Options, error) {
	options := defaults()
	flagged := defaults()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&flagged.Address, "a", flagged.Address, "run on ip:port server")
	fs.StringVar(&flagged.SecretKey, "s", "", "token signing secret")
	fs.IntVar(&flagged.AccessTokenExpireMinutes, "t", flagged.AccessTokenExpireMinutes, "access token lifetime in minutes")
	fs.StringVar(&flagged.LogLevel, "l", flagged.LogLevel, "log level")
	fs.StringVar(&flagged.Environment, "e", flagged.Environment, "environment name")
	fs.StringVar(&flagged.PasswordHasher, "p", flagged.PasswordHasher, "password hasher (bcrypt, argon2id)")
	fs.StringVar(&flagged.TLSCert, "cert", "", "TLS certificate file")
	fs.StringVar(&flagged.TLSKey, "key", "", "TLS key file")
	fs.StringVar(&flagged.Config, "config", "", "path to config file")
	fs.StringVar(&flagged.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	options.Config = flagged.Config
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if options.Config != "" {
		if err := loadFile(options.Config, options); err != nil {
			return nil, err
		}
	}

	// Only flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			options.Address = flagged.Address
		case "s":
			options.SecretKey = flagged.SecretKey
		case "t":
			options.AccessTokenExpireMinutes = flagged.AccessTokenExpireMinutes
		case "l":
			options.LogLevel = flagged.LogLevel
		case "e":
			options.Environment = flagged.Environment
		case "p":
			options.PasswordHasher = flagged.PasswordHasher
		case "cert":
			options.TLSCert = flagged.TLSCert
		case "key":
			options.TLSKey = flagged.TLSKey
		}
	})

	if err := applyEnv(options, getenv); err != nil {
		return nil, err
	}

	if err := options.validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func loadFile(path string, options *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, options)
	default:
		err = json.Unmarshal(data, options)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(options *Options, getenv func(string) string) error {
	if v := getenv("SERVER_ADDRESS"); v != "" {
		options.Address = v
	}
	if v := getenv("SECRET_KEY"); v != "" {
		options.SecretKey = v
	}
	if v := getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		options.AccessTokenExpireMinutes = n
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}
	if v := getenv("ENVIRONMENT"); v != "" {
		options.Environment = v
	}
	if v := getenv("DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		options.Debug = b
	}
	if v := getenv("PASSWORD_HASHER"); v != "" {
		options.PasswordHasher = v
	}
	return nil
}

func (o *Options) validate() error {
	var errs []error
	if o.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("access_token_expire_minutes must be positive, got %d", o.AccessTokenExpireMinutes))
	}
	if o.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown_timeout must not be negative"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls_cert and tls_key must be set together"))
	}
	if o.SecretKey == "" {
		if o.Production() {
			errs = append(errs, errors.New("secret_key is required in production"))
		} else {
			o.SecretKey = DevelopmentSecretKey
		}
	}
	return errors.Join(errs...)
}
