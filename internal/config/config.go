package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseURL string

	SecretKey          []byte
	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration

	CORSOrigins []string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	InitAdminEmail    string
	InitAdminAlias    string
	InitAdminPassword string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. CONFIG_MODE=x switches to .env.x.
func Load() *Config {
	envFile := ".env"
	if mode := os.Getenv("CONFIG_MODE"); mode != "" {
		envFile = ".env." + mode
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("notice: %s not found, using system environment variables", envFile)
	}

	cfg := &Config{
		ServerPort: envIntDefault("SERVER_PORT", 8080),
		LogLevel:   envDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SecretKey:          []byte(os.Getenv("SECRET_KEY")),
		AccessTokenExpire:  time.Duration(envIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60)) * time.Minute,
		RefreshTokenExpire: time.Duration(envIntDefault("REFRESH_TOKEN_EXPIRE_MINUTES", 60*24*100)) * time.Minute,

		CORSOrigins: csv(os.Getenv("CORS_ORIGINS")),

		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envDefault("KAFKA_TOPIC", "user-events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    envDefault("ES_INDEX", "users"),

		InitAdminEmail:    os.Getenv("INIT_ADMIN_EMAIL"),
		InitAdminAlias:    os.Getenv("INIT_ADMIN_ALIAS"),
		InitAdminPassword: os.Getenv("INIT_ADMIN_PASSWORD"),
	}

	MustNonEmptyBytes(cfg.SecretKey, "SECRET_KEY")
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	return cfg
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
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

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
