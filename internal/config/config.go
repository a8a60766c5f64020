// Package config loads server settings from flags, environment variables and
// an optional .env file. Flags win over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// Config holds every runtime setting of the evote server
type Config struct {
	Port        int
	DBType      string
	DBPath      string
	DatabaseURL string

	AdminPassword string
	JWTSecret     string

	LogLevel  string
	LogFormat string
	HTTPLog   bool

	StrictPhases bool

	FacePython  string
	FaceScript  string
	FaceTimeout time.Duration
	FacesDir    string

	PublicDir string
	StaticDir string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	MaxUploadMB int64

	ShowVersion bool
}

// DSN returns the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBType == DBTypePostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// MaxUploadBytes is the request body limit in bytes, for JSON and multipart
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// MailEnabled reports whether an SMTP relay is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Load reads .env (if present), then the environment, then parses args.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return Parse(args, io.Discard)
}

// Parse builds a Config from the current environment and args without
// touching .env. Usage output is written to out.
func Parse(args []string, out io.Writer) (*Config, error) {
	env, err := fromEnv()
	if err != nil {
		return nil, err
	}

	cfg := *env
	fs := flag.NewFlagSet("evote", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.IntVar(&cfg.Port, "port", env.Port, "HTTP server port")
	fs.StringVar(&cfg.DBType, "dbtype", env.DBType, "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.DBPath, "db", env.DBPath, "SQLite database path")
	fs.StringVar(&cfg.DatabaseURL, "database-url", env.DatabaseURL, "PostgreSQL connection string")
	fs.StringVar(&cfg.AdminPassword, "adminpw", env.AdminPassword, "Admin password (auto-generated if not set)")
	fs.StringVar(&cfg.LogLevel, "loglevel", env.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "logformat", env.LogFormat, "Log format (text or json)")
	fs.BoolVar(&cfg.HTTPLog, "httplog", env.HTTPLog, "Log every HTTP request")
	fs.BoolVar(&cfg.StrictPhases, "strict-phases", env.StrictPhases, "Enforce init -> voting -> result phase order")
	fs.StringVar(&cfg.FacePython, "face-python", env.FacePython, "Interpreter used to run the face recognition script")
	fs.StringVar(&cfg.FaceScript, "face-script", env.FaceScript, "Face recognition script path")
	fs.DurationVar(&cfg.FaceTimeout, "face-timeout", env.FaceTimeout, "Face recognition timeout")
	fs.StringVar(&cfg.FacesDir, "faces", env.FacesDir, "Directory of registered voter faces")
	fs.StringVar(&cfg.PublicDir, "public", env.PublicDir, "Directory for candidate images and party symbols")
	fs.StringVar(&cfg.StaticDir, "static", env.StaticDir, "Optional directory of frontend build files")
	fs.Int64Var(&cfg.MaxUploadMB, "max-upload-mb", env.MaxUploadMB, "Maximum upload size in megabytes")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DBType {
	case DBTypeSQLite:
		if c.DBPath == "" {
			return errors.New("database path required (use -db or DB_PATH)")
		}
	case DBTypePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL required for postgres (use -database-url or DATABASE_URL)")
		}
	default:
		return fmt.Errorf("unsupported database type %q", c.DBType)
	}
	if c.FaceTimeout <= 0 {
		return errors.New("face timeout must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	return nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		DBType:        getEnv("DB_TYPE", DBTypeSQLite),
		DBPath:        getEnv("DB_PATH", "evote.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		FacePython:    getEnv("FACE_PYTHON", "python"),
		FaceScript:    getEnv("FACE_SCRIPT", "fr.py"),
		FacesDir:      getEnv("FACES_DIR", "Faces"),
		PublicDir:     getEnv("PUBLIC_DIR", "public"),
		StaticDir:     os.Getenv("STATIC_DIR"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		MailFrom:      getEnv("MAIL_FROM", "noreply@votingsystem.com"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 5000); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	mb, err := getEnvInt("MAX_UPLOAD_MB", 32)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadMB = int64(mb)
	if cfg.HTTPLog, err = getEnvBool("HTTP_LOG", false); err != nil {
		return nil, err
	}
	if cfg.StrictPhases, err = getEnvBool("STRICT_PHASES", true); err != nil {
		return nil, err
	}
	if cfg.FaceTimeout, err = getEnvDuration("FACE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable: %q", key, value)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// bare numbers are seconds
		secs, convErr := strconv.Atoi(value)
		if convErr != nil {
			return 0, fmt.Errorf("invalid %s env variable: %q", key, value)
		}
		d = time.Duration(secs) * time.Second
	}
	return d, nil
}
