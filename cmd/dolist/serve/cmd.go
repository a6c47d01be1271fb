package serve

import (
	"github.com/andrebq/dolist/api"
	"github.com/andrebq/dolist/internal/cmdflags"
	"github.com/andrebq/dolist/internal/httpserver"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/andrebq/dolist/store"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var skipMigrations bool
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the dolist HTTP api",
		Flags: append(cmdflags.Config(),
			&cli.BoolFlag{
				Name:        "skip-migrations",
				Usage:       "Do not migrate the database schema before starting",
				Destination: &skipMigrations,
			}),
		Action: func(ctx *cli.Context) error {
			cfg, err := cmdflags.LoadConfig(ctx)
			if err != nil {
				return err
			}
			backend, err := store.Open(ctx.Context, cfg, !skipMigrations)
			if err != nil {
				return err
			}
			defer backend.Close()
			svc, err := cmdflags.Service(cfg, backend)
			if err != nil {
				return err
			}
			handler, err := api.AsHandler(ctx.Context, svc, backend, api.Options{Gzip: cfg.Gzip})
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().
				Str("store.kind", cfg.Store).
				Str("hasher", cfg.Hasher).
				Bool("gzip", cfg.Gzip).
				Msg("Configuration loaded")
			return httpserver.Serve(ctx.Context, cfg.BindAddr, handler)
		},
	}
}
