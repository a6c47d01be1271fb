package migrate

import (
	"errors"

	"github.com/andrebq/dolist/config"
	"github.com/andrebq/dolist/internal/cmdflags"
	"github.com/andrebq/dolist/store"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations to the sqlite or postgres store",
		Flags: cmdflags.Config(),
		Action: func(ctx *cli.Context) error {
			cfg, err := cmdflags.LoadConfig(ctx)
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				return errors.New("memory store has no schema to migrate")
			}
			backend, err := store.Open(ctx.Context, cfg, true)
			if err != nil {
				return err
			}
			return backend.Close()
		},
	}
}
