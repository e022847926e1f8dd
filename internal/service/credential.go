package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/msomdec/localmarket/internal/domain"
)

// Supported credential hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// Upper bounds for parameters read back from a stored argon2id hash.
const (
	maxArgon2Time   = 16
	maxArgon2Memory = 1 << 20 // KiB, 1 GiB
	maxArgon2KeyLen = 128
)

// DefaultArgon2Params are the parameters used when none are configured.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}

// CredentialHasher turns plaintext passwords into salted one-way hashes and
// checks passwords against them. Hashing is CPU bound, so the number of
// derivations running at once is capped; callers queue on ctx.
type CredentialHasher struct {
	algorithm  string
	bcryptCost int
	argon2     Argon2Params
	slots      *semaphore.Weighted
}

// NewCredentialHasher creates a hasher for the given algorithm. maxConcurrent
// <= 0 defaults to GOMAXPROCS.
func NewCredentialHasher(algorithm string, bcryptCost, maxConcurrent int) (*CredentialHasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("%w: unknown credential algorithm %q", domain.ErrInvalidInput, algorithm)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range", domain.ErrInvalidInput, bcryptCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &CredentialHasher{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2:     DefaultArgon2Params,
		slots:      semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// Hash derives a stored hash from secret with a fresh random salt.
func (h *CredentialHasher) Hash(ctx context.Context, secret string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon2(secret)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches the stored hash. A mismatch is
// (false, nil); a hash that cannot be parsed is ErrCorruptCredential. Hashes
// from either algorithm verify regardless of the configured one.
func (h *CredentialHasher) Verify(ctx context.Context, secret, stored string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	if strings.HasPrefix(stored, "$argon2id$") {
		return verifyArgon2(secret, stored)
	}

	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", domain.ErrCorruptCredential, err)
	}
}

func (h *CredentialHasher) hashArgon2(secret string) (string, error) {
	p := h.argon2
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2(secret, stored string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(stored, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("%w: argon2id hash has %d sections", domain.ErrCorruptCredential, len(parts))
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("%w: argon2id version %q", domain.ErrCorruptCredential, parts[2])
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return false, fmt.Errorf("%w: argon2id params: %v", domain.ErrCorruptCredential, err)
	}
	if p.Time < 1 || p.Time > maxArgon2Time || p.Memory < 8*uint32(p.Threads) || p.Memory > maxArgon2Memory || p.Threads < 1 {
		return false, fmt.Errorf("%w: argon2id params out of range", domain.ErrCorruptCredential)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: argon2id salt: %v", domain.ErrCorruptCredential, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgon2KeyLen {
		return false, fmt.Errorf("%w: argon2id key", domain.ErrCorruptCredential)
	}

	got := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
