// Package digest implements xvc's content-addressing primitives: the XvcDigest byte-plus-
// algorithm value, its ContentDigest/MetadataDigest/CollectionDigest newtypes, and the
// deterministic cache path a ContentDigest maps to.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// Algorithm names a supported hash algorithm, matching spec.md section 4 and section 6.
type Algorithm string

const (
	Blake3 Algorithm = "blake3"
	Blake2 Algorithm = "blake2"
	Sha2   Algorithm = "sha2"
	Sha3   Algorithm = "sha3"
	// AsIs treats the input bytes themselves as the digest, used only for already-digested
	// values that are being re-wrapped (e.g. turning a stored hex string back into an
	// XvcDigest without rehashing it).
	AsIs Algorithm = "as-is"
)

// shortTag is the on-disk/cache-path prefix for each algorithm, matching the `<algo>` segment
// of spec.md section 6's `<root>/.xvc/b3/<hex prefix tree>/0.<ext>` layout (b3 for Blake3).
func (a Algorithm) shortTag() string {
	switch a {
	case Blake3:
		return "b3"
	case Blake2:
		return "b2"
	case Sha2:
		return "s2"
	case Sha3:
		return "s3"
	case AsIs:
		return "ai"
	default:
		return string(a)
	}
}

func newHasher(a Algorithm) (hasherFunc func([]byte) []byte, err error) {
	switch a {
	case Blake3:
		return func(b []byte) []byte {
			sum := blake3.Sum256(b)
			return sum[:]
		}, nil
	case Blake2:
		return func(b []byte) []byte {
			sum := blake2b.Sum256(b)
			return sum[:]
		}, nil
	case Sha2:
		return func(b []byte) []byte {
			sum := sha256.Sum256(b)
			return sum[:]
		}, nil
	case Sha3:
		return func(b []byte) []byte {
			sum := sha3.Sum256(b)
			return sum[:]
		}, nil
	default:
		return nil, fmt.Errorf("digest: unsupported algorithm %q", a)
	}
}

// XvcDigest is a fixed-length hash value tagged with the algorithm that produced it.
type XvcDigest struct {
	Algorithm Algorithm
	Bytes     []byte
}

// Hex returns the lowercase hex encoding of the digest bytes.
func (d XvcDigest) Hex() string { return hex.EncodeToString(d.Bytes) }

func (d XvcDigest) String() string {
	return fmt.Sprintf("%s:%s", d.Algorithm.shortTag(), d.Hex())
}

// Equal reports whether two digests have the same algorithm and bytes.
func (d XvcDigest) Equal(other XvcDigest) bool {
	return d.Algorithm == other.Algorithm && bytes.Equal(d.Bytes, other.Bytes)
}

// FromBytes hashes b with algo.
func FromBytes(b []byte, algo Algorithm) (XvcDigest, error) {
	if algo == AsIs {
		return XvcDigest{Algorithm: AsIs, Bytes: append([]byte(nil), b...)}, nil
	}
	h, err := newHasher(algo)
	if err != nil {
		return XvcDigest{}, err
	}
	return XvcDigest{Algorithm: algo, Bytes: h(b)}, nil
}

// FromContent hashes the UTF-8 bytes of s with algo — the string-content analogue of FromBytes,
// used for collection and parameter digests.
func FromContent(s string, algo Algorithm) (XvcDigest, error) {
	return FromBytes([]byte(s), algo)
}

// TextOrBinary selects how FromPath reads a file before hashing it.
type TextOrBinary string

const (
	Auto   TextOrBinary = "auto"
	Text   TextOrBinary = "text"
	Binary TextOrBinary = "binary"
)

// autoSampleSize is how many leading bytes Auto mode inspects for a NUL byte, per spec.md
// section 4.5.
const autoSampleSize = 8000

// FromPath computes the ContentDigest-backing hash of the file at path. In Text mode, `\r`
// bytes are stripped before hashing (matching spec.md's line-ending normalization); in Binary
// mode the raw bytes are hashed; in Auto mode the first 8000 bytes are sampled for a NUL byte
// to decide between the two, with no NUL (including an empty file) resolving to Text.
func FromPath(path string, algo Algorithm, mode TextOrBinary) (XvcDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return XvcDigest{}, xvcerr.New(xvcerr.IO, "digest.FromPath", path, err)
	}
	defer f.Close()

	resolved := mode
	if mode == Auto {
		resolved, err = detectMode(f)
		if err != nil {
			return XvcDigest{}, xvcerr.New(xvcerr.IO, "digest.FromPath", path, err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return XvcDigest{}, xvcerr.New(xvcerr.IO, "digest.FromPath", path, err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return XvcDigest{}, xvcerr.New(xvcerr.IO, "digest.FromPath", path, err)
	}
	if resolved == Text {
		data = stripCR(data)
	}
	return FromBytes(data, algo)
}

func detectMode(f *os.File) (TextOrBinary, error) {
	buf := make([]byte, autoSampleSize)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if bytes.IndexByte(buf[:n], 0) >= 0 {
		return Binary, nil
	}
	return Text, nil
}

func stripCR(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b != '\r' {
			out = append(out, b)
		}
	}
	return out
}

// ContentDigest is the digest of a single path's content.
type ContentDigest struct{ XvcDigest }

// MetadataDigest is the digest of a path's filesystem metadata (size, modification time, file
// kind), used for the cheap "superficial" comparison before a thorough content digest.
type MetadataDigest struct{ XvcDigest }

// CollectionDigest is the digest of an ordered collection of path strings.
type CollectionDigest struct{ XvcDigest }

// ContentDigestFromPath computes the ContentDigest of the file at path.
func ContentDigestFromPath(path string, algo Algorithm, mode TextOrBinary) (ContentDigest, error) {
	d, err := FromPath(path, algo, mode)
	return ContentDigest{d}, err
}

// CollectionDigestFromPaths hashes the `\n`-joined list of path strings, per spec.md section
// 4.5. The caller is responsible for ordering paths deterministically beforehand.
func CollectionDigestFromPaths(paths []string, algo Algorithm) (CollectionDigest, error) {
	joined := ""
	for i, p := range paths {
		if i > 0 {
			joined += "\n"
		}
		joined += p
	}
	d, err := FromContent(joined, algo)
	return CollectionDigest{d}, err
}

// EntityMetadataBytes is a (entity-order key, digest bytes) pair fed to
// MetadataDigestFromEntities; callers sort their input by the ascending entity ordering
// described in spec.md section 4.5 before calling in.
type EntityMetadataBytes struct {
	OrderKey string
	Bytes    []byte
}

// MetadataDigestFromEntities concatenates each entry's bytes, in the order given, and hashes
// the concatenation with Blake3, matching spec.md section 4.5's MetadataDigest definition.
// Callers must pre-sort entries by ascending entity order; this function does not re-sort, so
// that the "strictly ascending entity ordering" requirement is visible at the call site rather
// than hidden behind an implicit key comparator here.
func MetadataDigestFromEntities(entries []EntityMetadataBytes) (MetadataDigest, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.Write(e.Bytes)
	}
	d, err := FromBytes(buf.Bytes(), Blake3)
	return MetadataDigest{d}, err
}

// SortOrderKeys is a convenience for callers building EntityMetadataBytes slices: it returns a
// copy of keys sorted ascending, so entity order keys (typically an Entity's decimal-pair
// string) are applied consistently across call sites.
func SortOrderKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
