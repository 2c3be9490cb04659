package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cart      CartConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type CartConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
	MaxQuantity           int
}

type StoreConfig struct {
	KVBackend      string // memory, redis or postgres
	CatalogBackend string // memory or postgres
	SeedDemoData   bool
	MigrationsDir  string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

// NeedsDatabase reports whether any backend is postgres
func (c *Config) NeedsDatabase() bool {
	return c.Store.KVBackend == BackendPostgres || c.Store.CatalogBackend == BackendPostgres
}

// NeedsRedis reports whether redis must be reachable
func (c *Config) NeedsRedis() bool {
	return c.Store.KVBackend == BackendRedis || c.RateLimit.Enabled
}

func Load() *Config {
	// Export .env into the process environment so os.Getenv readers agree with viper
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: no .env file loaded: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "0s")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ACCESS_EXPIRY", 60)
	v.SetDefault("CART_FREE_SHIPPING_THRESHOLD", "50000")
	v.SetDefault("CART_SHIPPING_COST", "5000")
	v.SetDefault("CART_MAX_QUANTITY", 99)
	v.SetDefault("KV_BACKEND", BackendMemory)
	v.SetDefault("CATALOG_BACKEND", BackendMemory)
	v.SetDefault("SEED_DEMO_DATA", true)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Cart: CartConfig{
			FreeShippingThreshold: getDecimal(v, "CART_FREE_SHIPPING_THRESHOLD"),
			ShippingCost:          getDecimal(v, "CART_SHIPPING_COST"),
			MaxQuantity:           v.GetInt("CART_MAX_QUANTITY"),
		},
		Store: StoreConfig{
			KVBackend:      strings.ToLower(v.GetString("KV_BACKEND")),
			CatalogBackend: strings.ToLower(v.GetString("CATALOG_BACKEND")),
			SeedDemoData:   v.GetBool("SEED_DEMO_DATA"),
			MigrationsDir:  v.GetString("MIGRATIONS_DIR"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerWindow: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            v.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func getDecimal(v *viper.Viper, key string) decimal.Decimal {
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		log.Printf("Warning: invalid decimal for %s, using 0: %v", key, err)
		return decimal.Zero
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
