// Package filex has filesystem helpers for on-disk database files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold path. Paths in the
// working directory need nothing.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if dir == "." {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SQLitePath returns the file behind a SQLite DSN such as "creds.db" or
// "file:creds.db?_pragma=busy_timeout(5000)". In-memory databases yield "".
func SQLitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	query := ""
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, query = p[:i], p[i+1:]
	}
	if p == "" || p == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return p
}
