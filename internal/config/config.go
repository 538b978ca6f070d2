package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver     string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	SQLitePath   string
	DBLogQueries bool

	// Change feed (empty = in-process broker)
	RedisURL string

	// Staff sessions
	JWTSecret        string
	SessionTTL       time.Duration
	SessionCookie    string
	CookieSecure     bool
	PasswordResetTTL time.Duration
	PasswordResetURL string

	// Collections
	UsersCollection   string
	ReportsCollection string
	RosterHideAdmins  bool

	// Overview statistics bucket by weekday in this zone
	StatsTimezone string

	// Evidence links stored as gs://bucket/object are signed with these
	EvidenceSignerEmail   string
	EvidenceSignerKeyPath string
	EvidenceURLExpiry     time.Duration

	// Server
	Port        string
	CORSOrigins string
	StaticDir   string
	AppEnv      string

	// Logging
	LogLevel         string
	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:     getEnv("DB_DRIVER", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "community_admin"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath:   getEnv("SQLITE_PATH", "community_admin.db"),
		DBLogQueries: parseBool(getEnv("DB_LOG_QUERIES", "false")),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		SessionTTL:       parseDuration(getEnv("SESSION_TTL", "12h"), 12*time.Hour),
		SessionCookie:    getEnv("SESSION_COOKIE", "admin_session"),
		CookieSecure:     parseBool(getEnv("COOKIE_SECURE", "true")),
		PasswordResetTTL: parseDuration(getEnv("PASSWORD_RESET_TTL", "1h"), time.Hour),
		PasswordResetURL: getEnv("PASSWORD_RESET_URL", "http://localhost:8080/login/reset"),

		UsersCollection:   getEnv("USERS_COLLECTION", "approved_users"),
		ReportsCollection: getEnv("REPORTS_COLLECTION", "gbv_reports"),
		RosterHideAdmins:  parseBool(getEnv("ROSTER_HIDE_ADMINS", "true")),

		StatsTimezone: getEnv("STATS_TIMEZONE", "Local"),

		EvidenceSignerEmail:   getEnv("EVIDENCE_SIGNER_EMAIL", ""),
		EvidenceSignerKeyPath: getEnv("EVIDENCE_SIGNER_KEY_PATH", ""),
		EvidenceURLExpiry:     parseDuration(getEnv("EVIDENCE_URL_EXPIRY", "15m"), 15*time.Minute),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
		StaticDir:   getEnv("STATIC_DIR", ""),
		AppEnv:      getEnv("APP_ENV", "development"),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if c.UsersCollection == "" || c.ReportsCollection == "" {
		return errors.New("collection names must not be empty")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Location resolves StatsTimezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.StatsTimezone == "" || c.StatsTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
