package cmdflags

import (
	"os"

	"github.com/andrebq/dolist/config"
	"github.com/andrebq/dolist/internal/logutil"
	"github.com/urfave/cli/v2"
)

const (
	envPrefix = "DOLIST_"
)

func envVar(name string) []string {
	return []string{envPrefix + name}
}

// Config returns the flags able to override config.Config values
func Config() []cli.Flag {
	d := config.Defaults()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a lua file holding configuration values",
			EnvVars: envVar("CONFIG"),
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "Address where the HTTP server will listen",
			Value:   d.BindAddr,
			EnvVars: envVar("BIND"),
		},
		&cli.StringFlag{
			Name:    "store",
			Usage:   "Where to keep users and tasks (memory, sqlite or postgres)",
			Value:   d.Store,
			EnvVars: envVar("STORE"),
		},
		&cli.StringFlag{
			Name:    "dsn",
			Usage:   "Path to the sqlite file or the postgres connection string",
			Value:   d.DSN,
			EnvVars: envVar("DSN"),
		},
		&cli.StringFlag{
			Name:    "hasher",
			Usage:   "Password hashing algorithm (bcrypt or argon2id)",
			Value:   d.Hasher,
			EnvVars: envVar("HASHER"),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Usage:   "Cost used when hashing passwords with bcrypt",
			Value:   d.BcryptCost,
			EnvVars: envVar("BCRYPT_COST"),
		},
		&cli.StringFlag{
			Name:    "token-ttl",
			Usage:   "How long issued tokens remain valid (eg.: 24h), empty means forever",
			Value:   d.TokenTTL,
			EnvVars: envVar("TOKEN_TTL"),
		},
		&cli.StringFlag{
			Name:  "secret-envvar-name",
			Usage: "Name of the environment variable that holds the signing secret. The secret itself should not be passed as an argument",
			Value: d.SecretEnvVar,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Minimum level of log messages (trace, debug, info, warn, error)",
			Value:   d.LogLevel,
			EnvVars: envVar("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "gzip",
			Usage:   "Compress responses for clients that accept it",
			Value:   d.Gzip,
			EnvVars: envVar("GZIP"),
		},
	}
}

// LoadConfig resolves the configuration from defaults, the lua file
// and the flags explicitly set, in that order.
//
// The logger matching the resolved level is attached to ctx.Context.
func LoadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := ctx.String("config"); path != "" {
		if err := config.LoadLua(path, &cfg); err != nil {
			return cfg, err
		}
	}
	overrideString(ctx, "bind", &cfg.BindAddr)
	overrideString(ctx, "store", &cfg.Store)
	overrideString(ctx, "dsn", &cfg.DSN)
	overrideString(ctx, "hasher", &cfg.Hasher)
	overrideString(ctx, "token-ttl", &cfg.TokenTTL)
	overrideString(ctx, "secret-envvar-name", &cfg.SecretEnvVar)
	overrideString(ctx, "log-level", &cfg.LogLevel)
	if ctx.IsSet("bcrypt-cost") {
		cfg.BcryptCost = ctx.Int("bcrypt-cost")
	}
	if ctx.IsSet("gzip") {
		cfg.Gzip = ctx.Bool("gzip")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	ctx.Context = logutil.WithLogger(ctx.Context, logutil.New(os.Stderr, cfg.LogLevel))
	return cfg, nil
}

func overrideString(ctx *cli.Context, name string, out *string) {
	if ctx.IsSet(name) {
		*out = ctx.String(name)
	}
}
