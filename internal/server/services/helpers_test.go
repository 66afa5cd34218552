package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bufferLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))), &buf
}

func newCredentials(t *testing.T, opts ...credentials.Option) *credentials.Manager {
	t.Helper()
	m, err := credentials.NewManager([]byte("service-test-secret"), opts...)
	require.NoError(t, err)
	return m
}

// newSQLiteStore opens a private in-memory database with the schema applied.
func newSQLiteStore(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, rm, err := repomanager.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, rm
}

// fakeUsersRepo serves one record from memory and returns canned errors.
type fakeUsersRepo struct {
	user *models.User

	createErr error
	findErr   error
	saveErr   error

	saved int
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-1"
	f.user = u
	return u, nil
}

func (f *fakeUsersRepo) find() (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	cp := *f.user
	return &cp, nil
}

func (f *fakeUsersRepo) FindByID(context.Context, string) (*models.User, error)       { return f.find() }
func (f *fakeUsersRepo) FindByEmail(context.Context, string) (*models.User, error)    { return f.find() }
func (f *fakeUsersRepo) FindByUsername(context.Context, string) (*models.User, error) { return f.find() }

func (f *fakeUsersRepo) Save(ctx context.Context, u *models.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	cp := *u
	f.user = &cp
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
