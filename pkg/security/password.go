package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/univlive/univlive-backend/pkg/config"
)

// ErrInvalidHash means the stored hash string is not a well-formed argon2id
// encoding; treat it as a failed verification, never a crash.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// ArgonParams are the argon2id cost settings baked into every hash string,
// so old hashes stay verifiable after the config changes.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func (p ArgonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// HashPassword derives an argon2id hash with a fresh random salt and encodes
// params, salt and key into the standard modular crypt format.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	params := boundedParams(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt entropy: %w", err)
	}

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		params.Memory, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(params.derive(password, salt)),
	), nil
}

// VerifyPassword re-derives the key with the params stored in encoded and
// compares in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, want, err := splitHash(encoded)
	if err != nil {
		return false, err
	}
	got := params.derive(password, salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func boundedParams(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      clamp32(cfg.ArgonMemoryKB, 8, 512*1024),
		Time:        clamp32(cfg.ArgonTime, 1, 10),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     clamp32(cfg.ArgonSaltLen, 8, 64),
		KeyLen:      clamp32(cfg.ArgonKeyLen, 16, 64),
	}
}

func splitHash(encoded string) (ArgonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	params, err := parseCosts(parts[3])
	if err != nil {
		return ArgonParams{}, nil, nil, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(hash))
	return params, salt, hash, nil
}

// parseCosts decodes the "m=...,t=...,p=..." segment of the hash string.
func parseCosts(segment string) (ArgonParams, error) {
	var params ArgonParams
	for _, token := range strings.Split(segment, ",") {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return ArgonParams{}, ErrInvalidHash
		}
		bits := 32
		if key == "p" {
			bits = 8
		}
		parsed, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return ArgonParams{}, ErrInvalidHash
		}
		switch key {
		case "m":
			params.Memory = uint32(parsed)
		case "t":
			params.Time = uint32(parsed)
		case "p":
			params.Parallelism = uint8(parsed)
		}
	}
	return params, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clamp32(value, min, max int) uint32 {
	return uint32(clamp(value, min, max))
}
