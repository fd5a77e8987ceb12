package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port           string
	MongoDBURI     string
	MongoDBName    string
	RedisAddr      string
	RedisPassword  string
	RelayURL       string
	AuthJWKSURL    string
	AuthHMACSecret string
	CORSOrigin     string
	Environment    string
	LogLevel       string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8080"),
		MongoDBURI:     os.Getenv("MONGODB_URI"),
		MongoDBName:    getEnvWithDefault("MONGODB_DB", "peerlend"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RelayURL:       getEnvWithDefault("RELAY_URL", "http://localhost:9090"),
		AuthJWKSURL:    os.Getenv("AUTH_JWKS_URL"),
		AuthHMACSecret: os.Getenv("AUTH_HMAC_SECRET"),
		CORSOrigin:     getEnvWithDefault("CORS_ORIGIN", "http://localhost:3000"),
		Environment:    getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.AuthJWKSURL == "" && cfg.AuthHMACSecret == "" {
		return nil, fmt.Errorf("one of AUTH_JWKS_URL or AUTH_HMAC_SECRET is required")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UseRedisLocks reports whether the per-key locks should be taken in
// Redis (multi-instance deployments) instead of in-process.
func (c *Config) UseRedisLocks() bool {
	return c.RedisAddr != ""
}
