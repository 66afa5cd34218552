package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/credkeeper/internal/cli"
	"github.com/dmitrijs2005/credkeeper/internal/flagx"
	"github.com/dmitrijs2005/credkeeper/internal/server"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	connect := func(ctx context.Context) (*cli.Backend, error) {
		app, err := server.NewApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &cli.Backend{Accounts: app.Accounts, Profiles: app.Profiles, Close: app.Close}, nil
	}

	args := flagx.StripArgs(os.Args[1:], config.FlagNames())
	code := cli.NewApp(connect, os.Stdin, os.Stdout, os.Stderr).Run(ctx, args)

	stop()
	os.Exit(code)
}
