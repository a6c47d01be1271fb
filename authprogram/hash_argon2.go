package authprogram

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

type (
	// Argon2Hasher produces digests in the PHC string format:
	//
	//	$argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<hash>
	Argon2Hasher struct {
		Time    uint32
		Memory  uint32
		Threads uint8
		SaltLen int
		KeyLen  uint32
	}
)

const (
	argon2idPrefix = "$argon2id$"
)

func DefaultArgon2Hasher() Argon2Hasher {
	threads := runtime.NumCPU() / 2
	if threads < 1 {
		threads = 1
	}
	// 7 passes over 10 MB should be a good replacement
	// for 1 pass over 64 MB of ram.
	return Argon2Hasher{
		Time:    7,
		Memory:  10 * 1024,
		Threads: uint8(threads),
		SaltLen: 16,
		KeyLen:  32,
	}
}

func (a Argon2Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.SaltLen)
	_, err := rand.Read(salt)
	if err != nil {
		return "", fmt.Errorf("unable to generate salt, cause %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, a.Time, a.Memory, a.Threads, a.KeyLen)
	return fmt.Sprintf("%vv=%d$m=%d,t=%d,p=%d$%v$%v", argon2idPrefix, argon2.Version,
		a.Memory, a.Time, a.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a Argon2Hasher) Verify(plaintext, digest string) bool {
	return VerifyPassword(plaintext, digest)
}

func verifyArgon2id(plaintext, digest string) bool {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}
	actual := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}
