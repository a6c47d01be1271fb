package authprogram

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

type (
	// Key is the secret used to sign tokens.
	Key [32]byte
)

const (
	SecretEnvVar = "DOLIST_AUTH_SECRET"
)

// KeyFromEnv reads a base64 encoded key from the given environment variable
// and clears the variable afterwards, so child processes never see it.
//
// nil getfn/setfn default to os.Getenv/os.Setenv.
func KeyFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (*Key, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	if len(val) == 0 {
		return nil, fmt.Errorf("authprogram: environment variable %v is empty, cannot load signing secret", varname)
	}
	return DecodeKey(val)
}

func DecodeKey(val string) (*Key, error) {
	var key Key
	buf, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("authprogram: cannot decode string to valid key, cause %v", err)
	} else if len(buf) != len(key) {
		return nil, fmt.Errorf("authprogram: decoded key has %v bytes expecting %v bytes", len(buf), len(key))
	}
	copy(key[:], buf)
	return &key, nil
}

// GenerateKey reads a new key from the given source of randomness
func GenerateKey(random io.Reader) (*Key, error) {
	var key Key
	_, err := io.ReadFull(random, key[:])
	if err != nil {
		return nil, fmt.Errorf("authprogram: unable to generate key, cause %w", err)
	}
	return &key, nil
}

func (k *Key) Encode() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}
