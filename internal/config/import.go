package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ImportConfig holds the settings of the legacy MongoDB importer
type ImportConfig struct {
	MongoURI    string
	MongoDB     string
	Collections []string
	DryRun      bool

	DBType      string
	DBPath      string
	DatabaseURL string

	LogLevel  string
	LogFormat string
}

// DSN returns the data source name of the target store
func (c *ImportConfig) DSN() string {
	if c.DBType == DBTypePostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// LoadImport reads .env (if present), then the environment, then parses args
func LoadImport(args []string) (*ImportConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return ParseImport(args, io.Discard)
}

// ParseImport builds an ImportConfig from the environment and args
func ParseImport(args []string, out io.Writer) (*ImportConfig, error) {
	cfg := ImportConfig{}
	var collections string

	fs := flag.NewFlagSet("evote-import", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&cfg.MongoURI, "mongo", getEnv("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	fs.StringVar(&cfg.MongoDB, "mongodb", getEnv("MONGO_DB", "test"), "MongoDB database name")
	fs.StringVar(&collections, "collections", os.Getenv("IMPORT_COLLECTIONS"), "Comma-separated collections to import (default all)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Convert documents without writing them")
	fs.StringVar(&cfg.DBType, "dbtype", getEnv("DB_TYPE", DBTypeSQLite), "Target database type (sqlite or postgres)")
	fs.StringVar(&cfg.DBPath, "db", getEnv("DB_PATH", "evote.db"), "Target SQLite database path")
	fs.StringVar(&cfg.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "Target PostgreSQL connection string")
	fs.StringVar(&cfg.LogLevel, "loglevel", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "logformat", getEnv("LOG_FORMAT", "text"), "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, name := range strings.Split(collections, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Collections = append(cfg.Collections, name)
		}
	}
	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))

	if cfg.MongoURI == "" {
		return nil, errors.New("mongodb URI required (use -mongo or MONGO_URI)")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("mongodb database required (use -mongodb or MONGO_DB)")
	}
	switch cfg.DBType {
	case DBTypeSQLite:
		if cfg.DBPath == "" {
			return nil, errors.New("database path required (use -db or DB_PATH)")
		}
	case DBTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL required for postgres (use -database-url or DATABASE_URL)")
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
	return &cfg, nil
}
