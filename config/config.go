package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	MySQL    MySQLConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Security SecurityConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Host                 string
	Port                 string
	SlowRequestThreshold time.Duration
	AllowedOrigins       []string
}

type GRPCConfig struct {
	Host   string
	Port   string
	APIKey string
}

// Enabled reports whether the internal gRPC surface should be started.
func (c GRPCConfig) Enabled() bool {
	return c.APIKey != ""
}

type MySQLConfig struct {
	DSN string
}

type JWTConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// CookieConfig describes the refresh-token cookie. Its lifetime is taken from
// the refresh token itself.
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

type SecurityConfig struct {
	BcryptCost int
}

type LogConfig struct {
	Level  string
	Format string
}

const RefreshCookieName = "refreshToken"

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	accessSecret := os.Getenv("JWT_ACCESS_SECRET")
	if accessSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET environment variable is required")
	}

	refreshSecret := os.Getenv("JWT_REFRESH_SECRET")
	if refreshSecret == "" {
		return nil, errors.New("JWT_REFRESH_SECRET environment variable is required")
	}
	if refreshSecret == accessSecret {
		return nil, errors.New("JWT_REFRESH_SECRET must differ from JWT_ACCESS_SECRET")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTP: HTTPConfig{
			Host:                 getEnv("HTTP_HOST", ""),
			Port:                 getEnv("HTTP_PORT", "8080"),
			SlowRequestThreshold: time.Duration(getIntEnv("SLOW_REQUEST_THRESHOLD_MS", 500)) * time.Millisecond,
			AllowedOrigins:       getListEnv("CORS_ALLOWED_ORIGINS"),
		},
		GRPC: GRPCConfig{
			Host:   getEnv("GRPC_HOST", ""),
			Port:   getEnv("GRPC_PORT", "9090"),
			APIKey: strings.TrimSpace(os.Getenv("GRPC_API_KEY")),
		},
		MySQL: MySQLConfig{
			DSN: mysqlDSN,
		},
		JWT: JWTConfig{
			AccessSecret:    accessSecret,
			RefreshSecret:   refreshSecret,
			AccessTokenTTL:  getDurationEnv("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getDurationEnv("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Cookie: CookieConfig{
			Name:   RefreshCookieName,
			Path:   getEnv("COOKIE_PATH", "/auth"),
			Secure: getBoolEnv("COOKIE_SECURE", false),
		},
		Security: SecurityConfig{
			BcryptCost: getIntEnv("BCRYPT_COST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// DSN returns the MySQL DSN with parseTime enabled, which the repositories
// rely on to scan DATETIME columns into time.Time.
func (c *Config) DSN() string {
	dsn := c.MySQL.DSN
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
