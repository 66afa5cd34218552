// Package server assembles the credkeeper components: it opens the user
// store, applies migrations and wires the credential manager into the
// account and profile services.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	Accounts *services.AccountService
	Profiles *services.ProfileService
}

// logOutput is where the JSON logger writes; stdout is left to commands.
var logOutput io.Writer = os.Stderr

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	level, _ := c.SlogLevel()
	logger := logging.NewJSONLogger(logOutput, level)

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cm, err := credentials.NewManager([]byte(c.SecretKey),
		credentials.WithTokenValidity(c.TokenValidityDuration))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug(ctx, "app initialized", "token_validity", c.TokenValidityDuration.String())

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		Accounts: services.NewAccountService(db, rm, cm, logger),
		Profiles: services.NewProfileService(db, rm, c, logger),
	}, nil
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

func (app *App) Close() error {
	return app.db.Close()
}
