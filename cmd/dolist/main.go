package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrebq/dolist/cmd/dolist/keygen"
	"github.com/andrebq/dolist/cmd/dolist/migrate"
	"github.com/andrebq/dolist/cmd/dolist/serve"
	"github.com/andrebq/dolist/cmd/dolist/users"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "dolist",
		Usage: "Keep track of things to do",
		Commands: []*cli.Command{
			serve.Cmd(),
			migrate.Cmd(),
			users.Cmd(),
			keygen.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
