// Package config loads runtime configuration. Values come from an optional
// config.yaml plus environment variables (a .env file is honored in
// development), with sensible defaults for everything that isn't a secret.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Square   SquareConfig   `mapstructure:"square"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Kitchen  KitchenConfig  `mapstructure:"kitchen"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	URI string `mapstructure:"uri"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type PricingConfig struct {
	CardRate float64 `mapstructure:"card_rate"`
	CardFee  float64 `mapstructure:"card_fee"`
}

type SquareConfig struct {
	Environment   string        `mapstructure:"environment"`
	AccessToken   string        `mapstructure:"access_token"`
	ApplicationID string        `mapstructure:"application_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CallbackURL   string        `mapstructure:"callback_url"`
}

// Production reports whether the Square production environment is
// configured, as opposed to the sandbox.
func (c SquareConfig) Production() bool {
	return c.Environment == "production"
}

type StreamConfig struct {
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
}

type KitchenConfig struct {
	MaxOrders int `mapstructure:"max_orders"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// Load reads config.yaml if present, then environment variables. Env keys
// use underscores: SERVER_ADDR, AUTH_JWT_SECRET, SQUARE_ACCESS_TOKEN, and
// so on.
func Load() (*Config, error) {
	// Development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.uri", "pos.db")
	// Secrets default to empty so viper binds their env keys; Unmarshal
	// only sees keys it already knows about.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("pricing.card_rate", 0.026)
	v.SetDefault("pricing.card_fee", 0.10)
	v.SetDefault("square.environment", "sandbox")
	v.SetDefault("square.access_token", "")
	v.SetDefault("square.application_id", "")
	v.SetDefault("square.timeout", 10*time.Second)
	v.SetDefault("square.callback_url", "http://localhost:3000/cashier")
	v.SetDefault("stream.keepalive_interval", 30*time.Second)
	v.SetDefault("kitchen.max_orders", 50)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "pos")
	v.SetDefault("mongo.collection", "audit_log")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is not set")
	}
	return &cfg, nil
}
