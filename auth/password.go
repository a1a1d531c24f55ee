package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns plaintext passwords into self-describing hash strings
// and verifies plaintexts against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// Argon2idParams holds the argon2id cost parameters
type Argon2idParams struct {
	Time        uint32 `yaml:"time"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Parallelism uint8  `yaml:"parallelism"`
	KeyLen      uint32 `yaml:"key_length"`
	SaltLen     uint32 `yaml:"salt_length"`
}

// DefaultArgon2idParams returns the default argon2id cost parameters
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	}
}

// Validate checks that the parameters can be used for hashing
func (p Argon2idParams) Validate() error {
	if p.Time == 0 {
		return errors.New("argon2id time must be at least 1")
	}
	if p.Parallelism == 0 {
		return errors.New("argon2id parallelism must be at least 1")
	}
	if p.MemoryKiB < 8*uint32(p.Parallelism) {
		return errors.Errorf("argon2id memory must be at least %d KiB", 8*uint32(p.Parallelism))
	}
	if p.KeyLen < 16 {
		return errors.New("argon2id key length must be at least 16")
	}
	if p.SaltLen < 8 {
		return errors.New("argon2id salt length must be at least 8")
	}
	return nil
}

// Argon2idHasher hashes passwords with argon2id into PHC strings of the form
// $argon2id$v=19$m=65536,t=1,p=4$<saltB64>$<hashB64>.
// Legacy bcrypt hashes can still be verified.
type Argon2idHasher struct {
	params Argon2idParams
}

// NewArgon2idHasher returns an Argon2idHasher; zero parameters select the defaults
func NewArgon2idHasher(p Argon2idParams) (*Argon2idHasher, error) {
	if p == (Argon2idParams{}) {
		p = DefaultArgon2idParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Argon2idHasher{params: p}, nil
}

// Hash returns a salted argon2id hash of password
func (h *Argon2idHasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}
	dk := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify reports whether password matches encoded. Malformed or unsupported
// hashes never match.
func (h *Argon2idHasher) Verify(password, encoded string) bool {
	if isBcryptHash(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}
	p, salt, want, err := parseArgon2id(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsRehash reports whether encoded was produced by another algorithm or
// with other parameters than the hasher's current ones
func (h *Argon2idHasher) NeedsRehash(encoded string) bool {
	p, _, _, err := parseArgon2id(encoded)
	return err != nil || p != h.params
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// parseArgon2id parses a PHC-formatted argon2id hash and returns parameters, salt and hash bytes.
func parseArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var out Argon2idParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return out, nil, nil, errors.New("invalid argon2id hash format")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return out, nil, nil, errors.New("unsupported argon2 version")
	}
	var seen int
	for _, kv := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return out, nil, nil, errors.Errorf("invalid argon2id parameter '%s'", kv)
		}
		bits := 32
		if key == "p" {
			bits = 8
		}
		v, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return out, nil, nil, errors.Wrapf(err, "invalid argon2id parameter '%s'", kv)
		}
		switch key {
		case "m":
			out.MemoryKiB = uint32(v)
		case "t":
			out.Time = uint32(v)
		case "p":
			out.Parallelism = uint8(v)
		default:
			return out, nil, nil, errors.Errorf("unknown argon2id parameter '%s'", key)
		}
		seen++
	}
	if seen != 3 || out.Time == 0 || out.Parallelism == 0 || out.MemoryKiB < 8*uint32(out.Parallelism) {
		return out, nil, nil, errors.New("invalid argon2id parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, errors.Wrap(err, "invalid argon2id salt")
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, nil, nil, errors.Wrap(err, "invalid argon2id hash")
	}
	if len(salt) == 0 || len(hash) == 0 {
		return out, nil, nil, errors.New("empty argon2id salt or hash")
	}
	out.SaltLen = uint32(len(salt))
	out.KeyLen = uint32(len(hash))
	return out, salt, hash, nil
}
