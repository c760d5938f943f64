package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env            string
	Port           string
	GRPCPort       string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      []byte
	RedisAddr      string

	StorageBaseURL    string
	StorageSigningKey []byte

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	RateLimitRPS int
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	rps, err := strconv.Atoi(getEnv("RATE_LIMIT_RPS", "10"))
	if err != nil {
		return nil, errors.New("RATE_LIMIT_RPS must be an integer")
	}

	cfg := &Config{
		Env:               getEnv("ENV", EnvDevelopment),
		Port:              getEnv("PORT", "8080"),
		GRPCPort:          getEnv("GRPC_PORT", "9090"),
		DatabaseDriver:    strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:       getEnv("DATABASE_URL", "file:messenger.db?_foreign_keys=on"),
		JWTSecret:         []byte(os.Getenv("JWT_SECRET")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		StorageBaseURL:    strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/"),
		StorageSigningKey: []byte(os.Getenv("STORAGE_SIGNING_KEY")),
		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		RateLimitRPS:      rps,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot start the server.
func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET is required")
	}
	if c.DatabaseDriver != DriverPostgres && c.DatabaseDriver != DriverSQLite {
		return errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}
	if c.RateLimitRPS <= 0 {
		return errors.New("RATE_LIMIT_RPS must be positive")
	}
	if len(c.StorageSigningKey) == 0 {
		c.StorageSigningKey = c.JWTSecret
	}
	return nil
}

// SMSEnabled reports whether Twilio credentials are present. Without them
// verification codes are echoed back to the caller.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
