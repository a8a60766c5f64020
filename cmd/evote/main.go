package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrezinsky/evote/internal/app"
	"github.com/abrezinsky/evote/internal/config"
	"github.com/abrezinsky/evote/internal/logger"
)

// ANSI escape codes
const (
	reset = "\033[0m"
	cyan  = "\033[36m"
	bold  = "\033[1m"
)

var (
	version = "dev"
)

func printBanner() {
	fmt.Printf("\n  %s%se-vote%s %s\n", bold, cyan, reset, version)
	fmt.Printf("  %selection server%s\n\n", cyan, reset)
}

const usage = `evote - Election Management Server

Usage:
  evote [options]

Options:
  -port int            HTTP server port (default 5000, env PORT)
  -dbtype string       sqlite or postgres (env DB_TYPE)
  -db string           SQLite database path (default "evote.db", env DB_PATH)
  -database-url str    PostgreSQL connection string (env DATABASE_URL)
  -adminpw string      Admin password, auto-generated if not set (env ADMIN_PASSWORD)
  -loglevel string     debug, info, warn, error (env LOG_LEVEL)
  -logformat string    text or json (env LOG_FORMAT)
  -httplog             Log every HTTP request (env HTTP_LOG)
  -strict-phases       Enforce init -> voting -> result (default true, env STRICT_PHASES)
  -face-python string  Interpreter for the face recognition script (env FACE_PYTHON)
  -face-script string  Face recognition script (env FACE_SCRIPT)
  -face-timeout dur    Face recognition timeout (env FACE_TIMEOUT)
  -faces string        Directory of registered voter faces (env FACES_DIR)
  -public string       Directory for candidate images (env PUBLIC_DIR)
  -static string       Frontend build directory (env STATIC_DIR)
  -max-upload-mb int   Upload size limit (env MAX_UPLOAD_MB)
  -version             Show version and exit

SMTP is configured through SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD and
MAIL_FROM. Variables may also be placed in a .env file.

Examples:
  evote                                   # SQLite in ./evote.db on port 5000
  evote -port 9000 -strict-phases=false   # Allow any phase change
  evote -dbtype postgres -database-url postgres://evote@localhost/evote
`

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-help" || os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(0)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("evote %s\n", version)
		os.Exit(0)
	}

	printBanner()

	appLog := logger.NewWithOptions(logger.Options{
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      logger.ParseFormat(cfg.LogFormat),
		HTTPLogging: cfg.HTTPLog,
	})

	if err := run(cfg, appLog); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, appLog logger.Logger) error {
	a, err := app.New(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
