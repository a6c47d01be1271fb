package users

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrebq/dolist/internal/cmdflags"
	"github.com/andrebq/dolist/store"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage dolist users",
		Subcommands: []*cli.Command{
			registerCmd(),
		},
	}
}

func registerCmd() *cli.Command {
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user and print its token (password is read from the terminal or stdin)",
		Flags: append(cmdflags.Config(),
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user to register",
				Destination: &email,
				Required:    true,
			}),
		Action: func(ctx *cli.Context) error {
			cfg, err := cmdflags.LoadConfig(ctx)
			if err != nil {
				return err
			}
			password, err := readPassword(os.Stdin, ctx.App.ErrWriter)
			if err != nil {
				return err
			}
			backend, err := store.Open(ctx.Context, cfg, true)
			if err != nil {
				return err
			}
			defer backend.Close()
			svc, err := cmdflags.Service(cfg, backend)
			if err != nil {
				return err
			}
			user, token, err := svc.Signup(ctx.Context, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.ErrWriter, "User %v registered with id %v\n", user.Email, user.ID)
			_, err = fmt.Fprintln(ctx.App.Writer, token)
			return err
		},
	}
}

func readPassword(in *os.File, prompt io.Writer) (string, error) {
	var password string
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		buf, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("unable to read password, cause %w", err)
		}
		password = string(buf)
	} else {
		sc := bufio.NewScanner(in)
		if !sc.Scan() {
			if sc.Err() != nil {
				return "", sc.Err()
			}
			return "", errors.New("missing password from stdin")
		}
		password = strings.TrimRight(sc.Text(), "\r")
	}
	if len(password) == 0 {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}
