// Package digest computes streaming content digests of files.
//
// A digest is the lowercase hex encoding of a hash over the file's bytes.
// The algorithm is fixed per manifest; md5 is the default because manifests
// written by earlier releases carry md5 digests without naming an algorithm.
package digest

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// Algorithm names a digest function.
type Algorithm string

// Supported algorithms.
const (
	MD5     Algorithm = "md5"
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "blake2b"
	XXH3    Algorithm = "xxh3"

	// Default is used when a manifest does not name its algorithm.
	Default = MD5
)

// Unavailable marks a file whose digest could not be computed.
// It never equals a real digest.
const Unavailable = ""

// ChunkSize is the read size used when streaming a file into the hash.
const ChunkSize = 64 * 1024

// Algorithms returns every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, SHA256, BLAKE2b, XXH3}
}

// ParseAlgorithm validates s. The empty string selects Default.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return Default, nil
	}
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Algorithms(), alg) {
		return "", errors.Wrapf(errors.ErrInvalidConfig, "unknown hash algorithm %q", s)
	}
	return alg, nil
}

// Hasher produces digests with one algorithm.
type Hasher struct {
	alg Algorithm
}

// New returns a Hasher for alg.
func New(alg Algorithm) (*Hasher, error) {
	alg, err := ParseAlgorithm(string(alg))
	if err != nil {
		return nil, err
	}
	return &Hasher{alg: alg}, nil
}

// Algorithm returns the hasher's algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

// NewHash returns a fresh hash.Hash. Callers that already stream the bytes
// elsewhere (e.g. into an archive) tee them into it and call Encode.
func (h *Hasher) NewHash() hash.Hash {
	switch h.alg {
	case SHA256:
		return sha256.New()
	case BLAKE2b:
		b, _ := blake2b.New256(nil) // only fails for oversized keys
		return b
	case XXH3:
		return xxh3Hash128{xxh3.New()}
	default:
		return md5.New() //nolint:gosec
	}
}

// Encode returns the digest string for a hash that has consumed all content.
func Encode(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Reader digests everything r yields.
func (h *Hasher) Reader(r io.Reader) (string, error) {
	sum := h.NewHash()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(sum, r, buf); err != nil {
		return "", errors.Mark(errors.Wrap(err, "reading content"), errors.ErrIO)
	}
	return Encode(sum), nil
}

// File digests the file at path.
func (h *Hasher) File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "opening file"), errors.ErrIO)
	}
	defer f.Close()

	return h.Reader(f)
}

// Equal reports whether two digests prove identical content.
// An unavailable digest on either side is never equal to anything.
func Equal(a, b string) bool {
	return a != Unavailable && b != Unavailable && strings.EqualFold(a, b)
}

// xxh3Hash128 exposes the 128-bit xxh3 sum through hash.Hash.
type xxh3Hash128 struct {
	*xxh3.Hasher
}

func (h xxh3Hash128) Sum(b []byte) []byte {
	s := h.Sum128().Bytes()
	return append(b, s[:]...)
}

func (h xxh3Hash128) Size() int { return 16 }
