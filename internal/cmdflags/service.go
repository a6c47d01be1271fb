package cmdflags

import (
	"os"

	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/config"
)

// Service builds the auth service described by cfg, the signing secret is
// read (and removed) from the environment.
func Service(cfg config.Config, users authprogram.UserStore) (*authprogram.Service, error) {
	hasher, err := authprogram.NewHasher(cfg.Hasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	key, err := authprogram.KeyFromEnv(cfg.SecretEnvVar, os.Getenv, os.Setenv)
	if err != nil {
		return nil, err
	}
	codec := authprogram.NewCodec(key, ttl)
	// the codec keeps its own copy
	key.Zero()
	return authprogram.NewService(users, hasher, codec), nil
}
