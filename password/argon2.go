package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"

	defaultMaxInputBytes = 1024
)

var (
	// ErrEmptyInput is returned when Hash receives an empty secret.
	ErrEmptyInput = errors.New("password: empty input")
	// ErrInputTooLong is returned when a secret exceeds Config.MaxInputBytes.
	ErrInputTooLong = errors.New("password: input too long")
	// ErrMalformedHash wraps every failure to decode a stored hash.
	ErrMalformedHash = errors.New("password: malformed hash")
)

// Config holds Argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxInputBytes bounds the secret passed to Hash and Verify. Zero means 1024.
	MaxInputBytes int
}

// Argon2 hashes passwords and security answers. It is safe for concurrent use.
type Argon2 struct {
	config Config
}

// phc is the decoded form of
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) derive(secret string) []byte {
	return argon2.IDKey([]byte(secret), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
}

func (p phc) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		p.memory, p.time, p.parallelism,
		base64.StdEncoding.EncodeToString(p.salt),
		base64.StdEncoding.EncodeToString(p.key),
	)
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = defaultMaxInputBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns a PHC string for secret. The secret is hashed byte for byte;
// callers normalize beforehand when they need to.
func (a *Argon2) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyInput
	}
	if len(secret) > a.config.MaxInputBytes {
		return "", ErrInputTooLong
	}

	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
		key:         make([]byte, a.config.KeyLength),
	}
	if _, err := io.ReadFull(rand.Reader, p.salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}
	p.key = p.derive(secret)
	return p.String(), nil
}

// Verify reports whether secret matches encodedHash in constant time. A
// malformed hash is an error; a wrong secret is (false, nil).
func (a *Argon2) Verify(secret string, encodedHash string) (bool, error) {
	if len(secret) > a.config.MaxInputBytes {
		return false, nil
	}
	p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(secret), p.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the current Config.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	p, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}
	weaker := p.memory < a.config.Memory ||
		p.time < a.config.Time ||
		p.parallelism < a.config.Parallelism ||
		uint32(len(p.key)) != a.config.KeyLength
	return weaker, nil
}

func malformed(what string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, what)
}

func decodePHC(encoded string) (phc, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return phc{}, malformed("want 5 fields")
	}
	if fields[1] != algorithmID {
		return phc{}, malformed("unsupported algorithm " + fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return phc{}, malformed("version")
	}
	if version != argon2.Version {
		return phc{}, malformed(fmt.Sprintf("unsupported version %d", version))
	}

	var (
		p     phc
		lanes uint32
	)
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &lanes)
	if err != nil || n != 3 {
		return phc{}, malformed("parameters")
	}
	if fields[3] != fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, lanes) {
		return phc{}, malformed("parameters")
	}
	switch {
	case p.memory < minMemoryKB:
		return phc{}, malformed("memory below floor")
	case p.time < minTimeCost:
		return phc{}, malformed("time below floor")
	case lanes < uint32(minParallelism) || lanes > 255:
		return phc{}, malformed("parallelism out of range")
	}
	p.parallelism = uint8(lanes)

	if p.salt, err = base64.StdEncoding.DecodeString(fields[4]); err != nil {
		return phc{}, malformed("salt encoding")
	}
	if len(p.salt) < int(minSaltLength) {
		return phc{}, malformed("salt too short")
	}
	if p.key, err = base64.StdEncoding.DecodeString(fields[5]); err != nil {
		return phc{}, malformed("key encoding")
	}
	if len(p.key) == 0 {
		return phc{}, malformed("empty key")
	}
	return p, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return fmt.Errorf("password: memory must be >= %d KiB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return errors.New("password: time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return errors.New("password: parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("password: salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return fmt.Errorf("password: key length must be >= %d", minKeyLength)
	}
	return nil
}
