package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/andrebq/dolist/authprogram"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: fmt.Sprintf("Print a new signing secret, export it as %v before calling serve", authprogram.SecretEnvVar),
		Action: func(ctx *cli.Context) error {
			key, err := authprogram.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			defer key.Zero()
			_, err = fmt.Fprintln(ctx.App.Writer, key.Encode())
			return err
		},
	}
}
