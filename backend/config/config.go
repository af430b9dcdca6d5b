package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageJSON     = "json"
	StoragePostgres = "postgres"

	PasswordBcrypt = "bcrypt"
	PasswordSHA256 = "sha256"

	// insecureJWTSecret is the placeholder shipped in old .env files. It is
	// never used for signing.
	insecureJWTSecret = "secret"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	StorageDriver string
	UsersFile     string
	AnswersFile   string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminPassword string

	RemoteAPIURL  string
	RemoteTimeout time.Duration

	PasswordScheme string
	SessionTTL     time.Duration
	LogFormat      string

	// LoginRateLimit is the number of login attempts allowed per IP per minute.
	LoginRateLimit int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "treasure_hunt"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StorageJSON),
		UsersFile:      getEnv("USERS_FILE", "users.json"),
		AnswersFile:    getEnv("ANSWERS_FILE", "answers.toml"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getDuration("TOKEN_TTL", 12*time.Hour),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		RemoteAPIURL:   getEnv("REMOTE_API_URL", ""),
		RemoteTimeout:  getDuration("REMOTE_TIMEOUT", 5*time.Second),
		PasswordScheme: getEnv("PASSWORD_SCHEME", PasswordBcrypt),
		SessionTTL:     getDuration("SESSION_TTL", 2*time.Hour),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LoginRateLimit: getInt("LOGIN_RATE_LIMIT", 20),
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == insecureJWTSecret {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate JWT secret: %w", err)
		}
		log.Println("JWT_SECRET is not set, using a random secret; tokens will not survive a restart")
		cfg.JWTSecret = secret
	}
	if cfg.AdminPassword == "" {
		log.Println("ADMIN_PASSWORD is not set, admin access is disabled")
	}
	return cfg, nil
}

// AdminEnabled reports whether admin login and admin tokens are accepted.
func (c *Config) AdminEnabled() bool {
	return c.AdminPassword != ""
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RemoteEnabled reports whether an external API is configured.
func (c *Config) RemoteEnabled() bool {
	return c.RemoteAPIURL != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
