package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/credkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
)

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password string) (string, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, login, newPassword string) error
	VerifyToken(token string) (*auth.Claims, error)
	Lookup(ctx context.Context, login string) (*models.User, error)
}

type Profiles interface {
	SetProfilePicture(ctx context.Context, userID string, data []byte) error
	PublishProfilePicture(ctx context.Context, userID string) (string, error)
}

// Backend is what the commands run against. Close may be nil.
type Backend struct {
	Accounts Accounts
	Profiles Profiles
	Close    func() error
}

// Connector opens the backend on first use, so help and version work
// without a database or secret.
type Connector func(ctx context.Context) (*Backend, error)

type App struct {
	connect Connector
	backend *Backend
	reader  *bufio.Reader
	fd      int
	out     io.Writer
	errOut  io.Writer
}

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

func NewApp(connect Connector, in io.Reader, out, errOut io.Writer) *App {
	fd := -1
	if f, ok := in.(fder); ok {
		fd = int(f.Fd())
	}
	return &App{
		connect: connect,
		reader:  bufio.NewReader(in),
		fd:      fd,
		out:     out,
		errOut:  errOut,
	}
}

type command func(ctx context.Context, args []string) error

// Run executes one command and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage(a.errOut)
		return 2
	}

	name, rest := args[0], args[1:]

	var cmd command
	switch name {
	case "help", "-h", "-help", "--help":
		a.usage(a.out)
		return 0
	case "version":
		buildinfo.PrintBuildData(a.out)
		return 0
	case "register":
		cmd = a.register
	case "login":
		cmd = a.login
	case "passwd":
		cmd = a.passwd
	case "reset":
		cmd = a.reset
	case "verify":
		cmd = a.verify
	case "whois":
		cmd = a.whois
	case "avatar":
		cmd = a.avatar
	default:
		fmt.Fprintln(a.errOut, "Unknown command:", name)
		a.usage(a.errOut)
		return 2
	}

	err := cmd(ctx, rest)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintf(a.errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

// open connects on first use and reuses the backend afterwards.
func (a *App) open(ctx context.Context) (*Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

func (a *App) close() error {
	b := a.backend
	a.backend = nil
	if b == nil || b.Close == nil {
		return nil
	}
	return b.Close()
}

func (a *App) usage(w io.Writer) {
	fmt.Fprint(w, `Usage: credkeeper [config flags] <command> [command flags]

Commands:
  register -email E -username U [-picture FILE]   create an account
  login    -login L                               print a token for L
  passwd   -id ID                                 change a password
  reset    -login L                               set a password without the old one
  verify   [-token T | T]                         check a token
  whois    -login L                               show an account
  avatar   set -id ID FILE | clear -id ID | url -id ID
  version
  help

Config flags: -c FILE, -d DSN, -s SECRET, -t MIN, -v MIN, -u/-p/-b/-g/-e (S3), -l LEVEL
`)
}
