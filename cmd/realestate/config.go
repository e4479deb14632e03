package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/realestate/internal/logger"
)

const (
	defaultListenAddr     = "localhost:8000"
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultJWTAlgorithm   = "HS256"
	defaultAccessMinutes  = 30
	defaultRefreshDays    = 7
	defaultUploadsDir     = "uploads"
	defaultLoginRateLimit = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key to sign JWT tokens with
	// Required
	SecretKey string

	// HMAC algorithm of JWT tokens
	JWTAlgorithm string

	// Token lifetimes
	AccessTokenMinutes int
	RefreshTokenDays   int

	// Environment
	Environment string

	// Directory to store uploaded avatars and property images in
	UploadsDir string

	// Front-end origins allowed to call the API
	CORSOrigins []string

	// Login and refresh attempts allowed per minute from one client address
	LoginRateLimit int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:           defaultLoggingLevel,
		ListenAddr:         defaultListenAddr,
		Environment:        defaultEnvironment,
		JWTAlgorithm:       defaultJWTAlgorithm,
		AccessTokenMinutes: defaultAccessMinutes,
		RefreshTokenDays:   defaultRefreshDays,
		UploadsDir:         defaultUploadsDir,
		CORSOrigins:        []string{"http://localhost:5173"},
		LoginRateLimit:     defaultLoginRateLimit,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = splitList(value)
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":                 setString(&c.ListenAddr),
		"DATABASE_URI":                setString(&c.DatabaseDSN),
		"SECRET_KEY":                  setString(&c.SecretKey),
		"JWT_ALGORITHM":               setString(&c.JWTAlgorithm),
		"ACCESS_TOKEN_EXPIRE_MINUTES": setInt(&c.AccessTokenMinutes),
		"REFRESH_TOKEN_EXPIRE_DAYS":   setInt(&c.RefreshTokenDays),
		"LOG_LEVEL":                   setString(&c.LogLevel),
		"ENVIRONMENT":                 setString(&c.Environment),
		"UPLOADS_DIR":                 setString(&c.UploadsDir),
		"CORS_ORIGINS":                setList(&c.CORSOrigins),
		"LOGIN_RATE_LIMIT":            setInt(&c.LoginRateLimit),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("realestate", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVar(&c.JWTAlgorithm, "jwt-algorithm", c.JWTAlgorithm, "JWT signing algorithm (HS256, HS384, HS512)")
	fs.IntVar(&c.AccessTokenMinutes, "access-ttl", c.AccessTokenMinutes, "Access token lifetime in minutes")
	fs.IntVar(&c.RefreshTokenDays, "refresh-ttl", c.RefreshTokenDays, "Refresh token lifetime in days")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.UploadsDir, "uploads", "u", c.UploadsDir, "Directory for uploaded files")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Allowed CORS origins, comma separated")
	fs.IntVar(&c.LoginRateLimit, "login-rate-limit", c.LoginRateLimit, "Login attempts per minute from one address")

	return fs.Parse(args)
}

// Check the config is complete
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.DatabaseDSN == "":
		return errors.New("database DSN is required")
	case c.AccessTokenMinutes <= 0 || c.RefreshTokenDays <= 0:
		return errors.New("token lifetimes must be positive")
	case c.LoginRateLimit <= 0:
		return errors.New("login rate limit must be positive")
	}
	return nil
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
