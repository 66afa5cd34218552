package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credkeeper/internal/filex"
)

var ErrUnsupportedDSN = errors.New("unsupported database dsn")

// driverFor maps a DSN to a database/sql driver name, the DSN the driver
// expects and the matching RepositoryManager.
func driverFor(dsn string) (string, string, RepositoryManager, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, NewPostgresRepositoryManager(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), NewSQLiteRepositoryManager(), nil
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite", dsn, NewSQLiteRepositoryManager(), nil
	}
	return "", "", nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
}

// redact keeps the scheme only, DSNs may carry passwords.
func redact(dsn string) string {
	if i := strings.Index(dsn, ":"); i >= 0 {
		return dsn[:i+1] + "..."
	}
	return "..."
}

// Open connects to the database behind dsn, verifies the connection and
// brings the schema up to date.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	driver, source, rm, err := driverFor(dsn)
	if err != nil {
		return nil, nil, err
	}

	if driver == "sqlite" {
		if path := filex.SQLitePath(source); path != "" {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, fmt.Errorf("db open error: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	if driver == "sqlite" {
		// single connection so :memory: survives between statements
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	return db, rm, nil
}
