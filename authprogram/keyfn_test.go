package authprogram

import (
	"crypto/rand"
	"testing"
)

func TestKeyFromEnv(t *testing.T) {
	env := map[string]string{
		SecretEnvVar: "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20=",
	}
	getfn := func(k string) string { return env[k] }
	setfn := func(k, v string) error { env[k] = v; return nil }
	key, err := KeyFromEnv(SecretEnvVar, getfn, setfn)
	if err != nil {
		t.Fatal(err)
	}
	if env[SecretEnvVar] != "" {
		t.Fatal("reading the key should remove it from the environment")
	}
	if key.Encode() != "blmHX4evD5FygUEa3EWxjzuAPF7lC4sKuWBrhgti/20=" {
		t.Fatalf("unexpected key %v", key.Encode())
	}
	if _, err := KeyFromEnv(SecretEnvVar, getfn, setfn); err == nil {
		t.Fatal("an empty variable should not produce a key")
	}
}

func TestDecodeKey(t *testing.T) {
	for _, val := range []string{"", "not base64", "c2hvcnQ="} {
		if _, err := DecodeKey(val); err == nil {
			t.Errorf("DecodeKey(%q) should fail", val)
		}
	}
	k, err := GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeKey(k.Encode())
	if err != nil {
		t.Fatal(err)
	} else if *decoded != *k {
		t.Fatal("encode/decode should preserve the key")
	}
	k.Zero()
	if *k != (Key{}) {
		t.Fatal("Zero should clear the key")
	}
}
