package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"
)

// maxPictureSize caps profile pictures read from disk.
const maxPictureSize = 5 << 20

// errUsage means the flag package already printed the problem.
var errUsage = errors.New("usage")

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: -%s is required", common.ErrorValidation, name)
	}
	return nil
}

func readPicture(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPictureSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", common.ErrorValidation, path, maxPictureSize)
	}
	return os.ReadFile(path)
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.newFlagSet("register")
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "user name")
	picture := fs.String("picture", "", "profile picture file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}
	if err := required("username", *username); err != nil {
		return err
	}

	in := services.RegisterInput{EmailAddr: *email, Username: *username}
	if *picture != "" {
		data, err := readPicture(*picture)
		if err != nil {
			return err
		}
		in.ProfilePicture = data
	}

	pw, err := a.GetNewPassword("Enter password")
	if err != nil {
		return err
	}
	in.Password = pw

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	u, err := b.Accounts.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, u.ID)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.newFlagSet("login")
	login := fs.String("login", "", "username or email address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("login", *login); err != nil {
		return err
	}

	pw, err := a.GetPassword("Enter password")
	if err != nil {
		return err
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	token, err := b.Accounts.Login(ctx, *login, pw)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) passwd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("passwd")
	id := fs.String("id", "", "user id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("id", *id); err != nil {
		return err
	}

	oldPw, err := a.GetPassword("Current password")
	if err != nil {
		return err
	}
	newPw, err := a.GetNewPassword("New password")
	if err != nil {
		return err
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	if err := b.Accounts.ChangePassword(ctx, *id, oldPw, newPw); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password changed")
	return nil
}

func (a *App) reset(ctx context.Context, args []string) error {
	fs := a.newFlagSet("reset")
	login := fs.String("login", "", "username or email address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("login", *login); err != nil {
		return err
	}

	pw, err := a.GetNewPassword("New password")
	if err != nil {
		return err
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	if err := b.Accounts.ResetPassword(ctx, *login, pw); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password reset")
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	fs := a.newFlagSet("verify")
	token := fs.String("token", "", "token to check")
	if err := parse(fs, args); err != nil {
		return err
	}

	t := *token
	if t == "" && fs.NArg() > 0 {
		t = fs.Arg(0)
	}
	if t == "" {
		line, err := a.readLine()
		if err != nil {
			return fmt.Errorf("%w: no token given", common.ErrorValidation)
		}
		t = strings.TrimSpace(line)
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	claims, err := b.Accounts.VerifyToken(t)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id: %s\n", claims.UserID)
	fmt.Fprintf(a.out, "email_addr: %s\n", claims.EmailAddr)
	fmt.Fprintf(a.out, "username: %s\n", claims.Username)
	fmt.Fprintf(a.out, "expires_at: %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	return nil
}

func (a *App) whois(ctx context.Context, args []string) error {
	fs := a.newFlagSet("whois")
	login := fs.String("login", "", "username or email address")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required("login", *login); err != nil {
		return err
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	u, err := b.Accounts.Lookup(ctx, *login)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id: %s\n", u.ID)
	fmt.Fprintf(a.out, "email_addr: %s\n", u.EmailAddr)
	fmt.Fprintf(a.out, "username: %s\n", u.Username)
	fmt.Fprintf(a.out, "has_password: %t\n", u.HasCredential())
	fmt.Fprintf(a.out, "profile_picture: %d bytes\n", len(u.ProfilePicture))
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "created_at: %s\n", u.CreatedAt.UTC().Format(time.RFC3339))
	}
	return nil
}

func (a *App) avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "Usage: avatar set -id ID FILE | clear -id ID | url -id ID")
		return errUsage
	}

	sub := args[0]
	fs := a.newFlagSet("avatar " + sub)
	id := fs.String("id", "", "user id")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}
	if err := required("id", *id); err != nil {
		return err
	}

	switch sub {
	case "set":
		if fs.NArg() != 1 {
			fmt.Fprintln(a.errOut, "Usage: avatar set -id ID FILE")
			return errUsage
		}
		data, err := readPicture(fs.Arg(0))
		if err != nil {
			return err
		}
		b, err := a.open(ctx)
		if err != nil {
			return err
		}
		if err := b.Profiles.SetProfilePicture(ctx, *id, data); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Profile picture set (%d bytes)\n", len(data))

	case "clear":
		b, err := a.open(ctx)
		if err != nil {
			return err
		}
		if err := b.Profiles.SetProfilePicture(ctx, *id, nil); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Profile picture cleared")

	case "url":
		b, err := a.open(ctx)
		if err != nil {
			return err
		}
		url, err := b.Profiles.PublishProfilePicture(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, url)

	default:
		fmt.Fprintln(a.errOut, "Unknown avatar command:", sub)
		return errUsage
	}
	return nil
}
