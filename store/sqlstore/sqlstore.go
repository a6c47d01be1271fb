// Package sqlstore persists users and tasks in sqlite or postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/tasks"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type (
	Store struct {
		db      *sql.DB
		dialect string
	}
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"

	pgUniqueViolation = "23505"
)

var (
	//go:embed migrations
	migrations embed.FS

	_ authprogram.UserStore = (*Store)(nil)
	_ tasks.Store           = (*Store)(nil)
)

// Open connects to the database, dsn is a file path for sqlite
// and a connection string for postgres.
//
// Schema migrations are not applied, call Migrate for that.
func Open(ctx context.Context, dialect string, dsn string) (*Store, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite3"
		if !strings.HasPrefix(dsn, "file:") {
			dsn = fmt.Sprintf("file:%v?_journal=wal&_fk=1&_busy_timeout=5000&mode=rwc", dsn)
		}
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v database, cause %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite allows a single writer, serializing here avoids busy errors
		// and keeps in-memory databases alive on a single connection
		db.SetMaxOpenConns(1)
	}
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping %v database, cause %w", dialect, err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// Migrate applies every pending schema migration
func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations/"+s.dialect)
	if err != nil {
		return err
	}
	gooseDialect := goose.DialectSQLite3
	if s.dialect == DialectPostgres {
		gooseDialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(gooseDialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("unable to load migrations, cause %w", err)
	}
	_, err = provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("unable to apply migrations, cause %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n when talking to postgres
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
