package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour spoken by the underlying driver
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite3", nil
	case DialectPostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", string(d))
	}
}

// Repository provides data access methods
type Repository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New opens a SQLite database at dbPath and applies migrations
func New(dbPath string) (*Repository, error) {
	return Open(DialectSQLite, dbPath)
}

// Open connects to the given database and applies migrations
func Open(dialect Dialect, dsn string) (*Repository, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, err
		}
		db.SetMaxOpenConns(1) // SQLite works best with single connection
		db.SetMaxIdleConns(1)
	}

	repo := newWithDB(db, dialect)
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s database: %w", dialect, err)
	}

	return repo, nil
}

func newWithDB(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Dialect returns the SQL dialect in use
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// q rewrites ? placeholders into $n for PostgreSQL
func (r *Repository) q(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			mobile TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			father_name TEXT NOT NULL DEFAULT '',
			voter_id TEXT NOT NULL UNIQUE,
			dob TIMESTAMP,
			location TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL DEFAULT '',
			dob TIMESTAMP NOT NULL,
			qualification TEXT NOT NULL DEFAULT '',
			join_year INTEGER NOT NULL DEFAULT 0,
			location TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			party_name TEXT NOT NULL DEFAULT '',
			party_symbol TEXT NOT NULL DEFAULT '',
			profile_image TEXT NOT NULL DEFAULT '',
			likes INTEGER NOT NULL DEFAULT 0,
			dislikes INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS elections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			candidates TEXT NOT NULL DEFAULT '[]',
			location TEXT NOT NULL DEFAULT '',
			current_phase TEXT NOT NULL DEFAULT 'init',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			election_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			candidate_id TEXT NOT NULL,
			voter_age INTEGER NOT NULL CHECK (voter_age >= 18),
			created_at TIMESTAMP NOT NULL,
			UNIQUE(election_id, voter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			candidate_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			election_id TEXT NOT NULL,
			feedback_type TEXT NOT NULL CHECK (feedback_type IN ('like', 'dislike')),
			created_at TIMESTAMP NOT NULL,
			UNIQUE(candidate_id, user_id, election_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_election_age ON votes(election_id, voter_age)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_candidate ON votes(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user_election ON feedback(user_id, election_id)`,
		`CREATE INDEX IF NOT EXISTS idx_elections_phase ON elections(current_phase)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
