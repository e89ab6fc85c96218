package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the process settings, read once at start.
type Config struct {
	Port    string
	GinMode string

	DBDriver    string
	DatabaseURL string

	JWTSecret       string
	SessionTTL      time.Duration
	SessionCapacity int

	CORSAllowedOrigins []string

	PollInterval time.Duration

	DirectoryURL     string
	DirectoryTimeout time.Duration

	UploadDir string

	TeacherListScope  string
	TeacherQueueScope string

	SeedAdminID       string
	SeedAdminPassword string
}

const devJWTSecret = "default_super_secret_key"

// Load reads the environment. Call godotenv before it to pick up configs/.env.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvString("PORT", "8080"),
		GinMode:            getEnvString("GIN_MODE", "debug"),
		DBDriver:           getEnvString("DB_DRIVER", DriverPostgres),
		CORSAllowedOrigins: splitList(getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		UploadDir:          getEnvString("UPLOAD_DIR", "uploads"),
		DirectoryURL:       strings.TrimRight(os.Getenv("DIRECTORY_URL"), "/"),
		TeacherListScope:   getEnvString("TEACHER_LIST_SCOPE", "department"),
		TeacherQueueScope:  getEnvString("TEACHER_QUEUE_SCOPE", "department,classroom"),
		SeedAdminID:        os.Getenv("SEED_ADMIN_ID"),
		SeedAdminPassword:  os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.DirectoryTimeout, err = getEnvDuration("DIRECTORY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionCapacity, err = getEnvInt("SESSION_CAPACITY", 10000); err != nil {
		return nil, err
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = devJWTSecret // development fallback only
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = postgresDSN()
		}
	case DriverSQLite:
		cfg.DatabaseURL = getEnvString("DATABASE_URL", "leave.db")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if (cfg.SeedAdminID == "") != (cfg.SeedAdminPassword == "") {
		return nil, fmt.Errorf("SEED_ADMIN_ID and SEED_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func postgresDSN() string {
	host := getEnvString("DB_HOST", "localhost")
	port := getEnvString("DB_PORT", "5432")
	user := getEnvString("DB_USER", "postgres")
	password := getEnvString("DB_PASSWORD", "postgres")
	name := getEnvString("DB_NAME", "postgres")
	sslMode := getEnvString("DB_SSLMODE", "disable")
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return dsn.String()
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", key, v)
	}
	return i, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive duration", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
