// Package config holds the settings used to start dolist.
//
// Values are resolved in order: defaults, an optional Lua file, then
// command line flags or environment variables. The signing secret is never
// part of the config, only the name of the environment variable holding it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/internal/lua/luadefaults"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

type (
	Config struct {
		BindAddr     string
		Store        string
		DSN          string
		Hasher       string
		BcryptCost   int
		TokenTTL     string
		SecretEnvVar string
		LogLevel     string
		Gzip         bool
	}
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	// GlobalName is the lua global read when the script does not return a table
	GlobalName = "dolist"
)

func Defaults() Config {
	return Config{
		BindAddr:     "localhost:7007",
		Store:        StoreSQLite,
		DSN:          "dolist.db",
		Hasher:       authprogram.HasherBcrypt,
		BcryptCost:   authprogram.DefaultBcryptCost,
		SecretEnvVar: authprogram.SecretEnvVar,
		LogLevel:     "info",
		Gzip:         true,
	}
}

// LoadLua runs the script at path and copies the table it returns
// (or the global named GlobalName) over cfg.
//
// Keys use snake_case, eg.: bind_addr = "localhost:8080"
func LoadLua(path string, cfg *Config) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	if err := luadefaults.InjectConfigLibs(L); err != nil {
		return fmt.Errorf("unable to prepare lua state, cause %w", err)
	}
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("unable to run config file %v, cause %w", path, err)
	}
	var tbl *lua.LTable
	if L.GetTop() > 0 {
		tbl, _ = L.Get(-1).(*lua.LTable)
	}
	if tbl == nil {
		tbl, _ = L.GetGlobal(GlobalName).(*lua.LTable)
	}
	if tbl == nil {
		return fmt.Errorf("config file %v must return a table or set the global %v", path, GlobalName)
	}
	if err := gluamapper.Map(tbl, cfg); err != nil {
		return fmt.Errorf("unable to map config file %v, cause %w", path, err)
	}
	return nil
}

// TTL returns the parsed TokenTTL, empty means tokens never expire
func (c Config) TTL() (time.Duration, error) {
	if c.TokenTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token ttl %q, cause %w", c.TokenTTL, err)
	} else if ttl < 0 {
		return 0, errors.New("token ttl cannot be negative")
	}
	return ttl, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("store %v requires a dsn", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.BindAddr == "" {
		return errors.New("bind address cannot be empty")
	}
	if c.SecretEnvVar == "" {
		return errors.New("name of the secret environment variable cannot be empty")
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	if _, err := authprogram.NewHasher(c.Hasher, c.BcryptCost); err != nil {
		return err
	}
	return nil
}
