package cmdflags

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/config"
	"github.com/andrebq/dolist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runWithConfig(t *testing.T, args ...string) config.Config {
	var cfg config.Config
	app := &cli.App{
		Name:  "test",
		Flags: Config(),
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = LoadConfig(ctx)
			return err
		},
	}
	require.NoError(t, app.RunContext(context.Background(), append([]string{"test"}, args...)))
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	assert.Equal(t, config.Defaults(), runWithConfig(t))
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dolist.lua")
	require.NoError(t, os.WriteFile(path, []byte(`return { store = "memory", bind_addr = "0.0.0.0:9000", log_level = "debug" }`), 0600))

	cfg := runWithConfig(t, "--config", path, "--bind", "127.0.0.1:9001", "--gzip=false")
	assert.Equal(t, config.StoreMemory, cfg.Store, "value from lua file")
	assert.Equal(t, "debug", cfg.LogLevel, "value from lua file")
	assert.Equal(t, "127.0.0.1:9001", cfg.BindAddr, "flags win over the lua file")
	assert.False(t, cfg.Gzip)
	assert.Equal(t, config.Defaults().Hasher, cfg.Hasher, "untouched values keep defaults")
}

func TestLoadConfigInvalid(t *testing.T) {
	app := &cli.App{
		Name:  "test",
		Flags: Config(),
		Action: func(ctx *cli.Context) error {
			_, err := LoadConfig(ctx)
			return err
		},
	}
	assert.Error(t, app.RunContext(context.Background(), []string{"test", "--store", "mongo"}))
	assert.Error(t, app.RunContext(context.Background(), []string{"test", "--token-ttl", "forever"}))
}

func TestService(t *testing.T) {
	store, cleanup := testutil.AcquireMemStore(t)
	defer cleanup()
	key, err := authprogram.GenerateKey(rand.Reader)
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.SecretEnvVar = "DOLIST_TEST_SERVICE_SECRET"
	cfg.BcryptCost = 4
	cfg.TokenTTL = "1h"
	t.Setenv(cfg.SecretEnvVar, key.Encode())

	svc, err := Service(cfg, store)
	require.NoError(t, err)
	assert.Empty(t, os.Getenv(cfg.SecretEnvVar), "secret must be removed from the environment")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	_, token, err := svc.Signup(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, token)
	require.NoError(t, err)

	_, err = Service(cfg, store)
	assert.Error(t, err, "secret can only be read once")
}
