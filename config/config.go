// Package config loads the process-wide configuration once at startup.
// Secrets and lifetimes are read here and passed explicitly into the
// packages that need them; request handlers never touch the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the accounts service.
//
// Fields:
//   - ActivationSecret / AccessSecret / RefreshSecret: HMAC secrets for
//     signing the three token kinds (HS256). All three are required.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes. The matching
//     env vars (ACCESS_TOKEN_EXPIRE, REFRESH_TOKEN_EXPIRE) are numbers
//     of seconds; cookie Max-Age and the session cache TTL use the
//     same values.
//   - MongoURI / DatabaseName: primary user store.
//   - RedisAddr / RedisPassword / RedisDB: session cache.
//   - SMTP*: outbound mail for activation codes.
type Config struct {
	Port             string
	AllowedOrigins   string
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	MongoURI         string
	DatabaseName     string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	MailFrom         string
	R2Bucket         string
	R2AccessKeyID    string
	R2SecretKey      string
	R2Endpoint       string
	R2PublicDomain   string
	AdminEmail       string
	AdminPassword    string
	CookieDomain     string
}

// Load reads configuration from the environment. Call godotenv.Load
// before this so a local .env file is picked up.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             envDefault("PORT", "8080"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		ActivationSecret: os.Getenv("ACTIVATION_SECRET"),
		AccessSecret:     os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshSecret:    os.Getenv("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:   envSeconds("ACCESS_TOKEN_EXPIRE", 300),
		RefreshTokenTTL:  envSeconds("REFRESH_TOKEN_EXPIRE", 1200),
		MongoURI:         os.Getenv("MONGODB_URI"),
		DatabaseName:     envDefault("DATABASE_NAME", "sahoaccounts"),
		RedisAddr:        envDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          envInt("REDIS_DB", 0),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         envInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         os.Getenv("MAIL_FROM"),
		R2Bucket:         os.Getenv("R2_BUCKET"),
		R2AccessKeyID:    os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:      os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2Endpoint:       os.Getenv("R2_ENDPOINT"),
		R2PublicDomain:   os.Getenv("R2_PUBLIC_DOMAIN"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		CookieDomain:     os.Getenv("COOKIE_DOMAIN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot sign tokens. A missing
// secret is a startup failure, never a per-request one.
func (c *Config) Validate() error {
	if c.ActivationSecret == "" {
		return fmt.Errorf("config: ACTIVATION_SECRET is not defined")
	}
	if c.AccessSecret == "" {
		return fmt.Errorf("config: ACCESS_TOKEN_SECRET is not defined")
	}
	if c.RefreshSecret == "" {
		return fmt.Errorf("config: REFRESH_TOKEN_SECRET is not defined")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("config: MONGODB_URI is not defined")
	}
	return nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envSeconds(key string, def int) time.Duration {
	n := envInt(key, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
