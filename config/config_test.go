package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "dolist.lua")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	ttl, err := cfg.TTL()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl, "tokens should not expire by default")
}

func TestLoadLuaReturn(t *testing.T) {
	path := writeScript(t, `
local port = 7000 + 10
return {
	bind_addr = string.format("0.0.0.0:%d", port),
	store = "postgres",
	dsn = "postgres://localhost/dolist",
	bcrypt_cost = 12,
	token_ttl = "24h",
	gzip = false,
}`)
	cfg := Defaults()
	require.NoError(t, LoadLua(path, &cfg))
	assert.Equal(t, "0.0.0.0:7010", cfg.BindAddr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://localhost/dolist", cfg.DSN)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.Gzip)
	assert.Equal(t, "info", cfg.LogLevel, "keys absent from the script keep their value")
	ttl, err := cfg.TTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
	require.NoError(t, cfg.Validate())
}

func TestLoadLuaGlobal(t *testing.T) {
	path := writeScript(t, `dolist = { store = "memory", log_level = "debug" }`)
	cfg := Defaults()
	require.NoError(t, LoadLua(path, &cfg))
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadLuaSandbox(t *testing.T) {
	for _, script := range []string{
		`return { dsn = os.getenv("HOME") }`,
		`return { dsn = io.read() }`,
		`dofile("/etc/passwd")`,
		`local x = 1`,
		`this is not lua`,
	} {
		cfg := Defaults()
		if err := LoadLua(writeScript(t, script), &cfg); err == nil {
			t.Errorf("script %q should fail", script)
		}
	}
}

func TestValidate(t *testing.T) {
	for _, mod := range []func(*Config){
		func(c *Config) { c.Store = "mongo" },
		func(c *Config) { c.DSN = "" },
		func(c *Config) { c.BindAddr = "" },
		func(c *Config) { c.SecretEnvVar = "" },
		func(c *Config) { c.TokenTTL = "forever" },
		func(c *Config) { c.TokenTTL = "-1h" },
		func(c *Config) { c.Hasher = "md5" },
		func(c *Config) { c.BcryptCost = 1 },
	} {
		cfg := Defaults()
		mod(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %#v should be invalid", cfg)
		}
	}
}
