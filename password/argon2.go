package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minIterations  uint32 = 1
	minParallelism uint32 = 1
	maxParallelism uint32 = 255
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// DefaultMaxPasswordBytes caps input length when Config.MaxPasswordBytes is zero.
// Argon2 has no intrinsic input limit, so an explicit cap bounds key-derivation
// cost per call.
const DefaultMaxPasswordBytes = 1024

// Config holds the argon2id cost parameters. Parallelism must fit the
// algorithm's 8-bit thread count (1..255).
type Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint32
	SaltLength  uint32
	KeyLength   uint32

	// MaxPasswordBytes bounds accepted input length. Zero selects
	// DefaultMaxPasswordBytes.
	MaxPasswordBytes int
}

// Hasher derives and verifies argon2id digests in PHC string format. It is
// immutable after [NewHasher] and safe for concurrent use.
type Hasher struct {
	config Config
}

type digestFields struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
	keyLength   uint32
}

// NewHasher validates cfg against the parameter floors and returns a
// ready [Hasher].
func NewHasher(cfg Config) (*Hasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives a fresh-salted digest and encodes it as
// $argon2id$v=19$m=...,t=...,p=...$salt$key.
func (h *Hasher) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) == 0 {
		return "", errors.New("password must not be empty")
	}
	if len(password) > h.config.MaxPasswordBytes {
		return "", fmt.Errorf("password must be at most %d bytes", h.config.MaxPasswordBytes)
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Iterations,
		h.config.Memory,
		uint8(h.config.Parallelism),
		h.config.KeyLength,
	)

	saltEncoded := base64.StdEncoding.EncodeToString(salt)
	keyEncoded := base64.StdEncoding.EncodeToString(key)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Iterations,
		h.config.Parallelism,
		saltEncoded,
		keyEncoded,
	), nil
}

// Verify reports whether password matches digest, recomputing under the
// digest's own recorded parameters. Digests that cannot be decoded, empty
// passwords, and over-long passwords all verify as false.
func (h *Hasher) Verify(password string, digest string) bool {
	if len(password) == 0 || len(password) > h.config.MaxPasswordBytes {
		return false
	}

	parsed, err := parseDigest(digest)
	if err != nil {
		return false
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.iterations,
		parsed.memory,
		parsed.parallelism,
		parsed.keyLength,
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1
}

// NeedsRehash reports whether digest was produced with weaker parameters
// than the configured ones. Digests that cannot be decoded report false,
// since verification has already failed for them.
func (h *Hasher) NeedsRehash(digest string) bool {
	parsed, err := parseDigest(digest)
	if err != nil {
		return false
	}

	if h.config.Memory > parsed.memory {
		return true
	}
	if h.config.Iterations > parsed.iterations {
		return true
	}
	if h.config.Parallelism > uint32(parsed.parallelism) {
		return true
	}
	if h.config.KeyLength != parsed.keyLength {
		return true
	}

	return false
}

func parseDigest(digest string) (*digestFields, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}

	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, errors.New("missing argon2 version")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}

	key, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid key encoding")
	}
	if len(key) == 0 {
		return nil, errors.New("invalid key length")
	}

	return &digestFields{
		memory:      params.memory,
		iterations:  params.iterations,
		parallelism: params.parallelism,
		salt:        salt,
		key:         key,
		keyLength:   uint32(len(key)),
	}, nil
}

type digestParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func parseParams(part string) (*digestParams, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, errors.New("invalid parameter format")
	}

	var (
		memorySet, iterationsSet, parallelismSet bool
		params                                   digestParams
	)

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("invalid parameter entry")
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, errors.New("invalid memory parameter")
			}
			params.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minIterations) {
				return nil, errors.New("invalid iterations parameter")
			}
			params.iterations = uint32(v)
			iterationsSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, errors.New("invalid parallelism parameter")
			}
			params.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, errors.New("unsupported parameter")
		}
	}

	if !memorySet || !iterationsSet || !parallelismSet {
		return nil, errors.New("missing parameters")
	}

	return &params, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Iterations < minIterations {
		return errors.New("password iterations must be >= 1")
	}
	if cfg.Parallelism < minParallelism || cfg.Parallelism > maxParallelism {
		return errors.New("password parallelism must be between 1 and 255")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	if cfg.MaxPasswordBytes < 0 {
		return errors.New("password max bytes must be >= 0")
	}

	return nil
}
