package dupfind

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int // digest length in bytes
	NewFunc func() hash.Hash
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "md5":
		return &HashAlgorithm{
			Name:    "md5",
			Size:    HashSizeMD5,
			NewFunc: func() hash.Hash { return md5.New() },
		}, nil
	case "sha1":
		return &HashAlgorithm{
			Name:    "sha1",
			Size:    HashSizeSHA1,
			NewFunc: func() hash.Hash { return sha1.New() },
		}, nil
	case "sha256":
		return &HashAlgorithm{
			Name:    "sha256",
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case "sha512":
		return &HashAlgorithm{
			Name:    "sha512",
			Size:    HashSizeSHA512,
			NewFunc: func() hash.Hash { return sha512.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashReader streams r through the algorithm in bufferSize chunks and returns
// the digest along with the number of bytes consumed. The context is checked
// before every read so a long file can be abandoned part way through.
func HashReader(ctx context.Context, r io.Reader, algorithm *HashAlgorithm, bufferSize int) ([]byte, int64, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	hasher := algorithm.NewFunc()
	buffer := make([]byte, bufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, total, fmt.Errorf("hash operation interrupted: %w", err)
		}

		n, err := r.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
			total += int64(n)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, total, err
		}
	}

	return hasher.Sum(nil), total, nil
}

// Fingerprinter computes content fingerprints for files on a billy filesystem.
type Fingerprinter struct {
	fs         billy.Filesystem
	algorithm  *HashAlgorithm
	bufferSize int
}

// NewFingerprinter returns a Fingerprinter reading through fs.
func NewFingerprinter(fs billy.Filesystem, algorithm *HashAlgorithm, bufferSize int) *Fingerprinter {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Fingerprinter{fs: fs, algorithm: algorithm, bufferSize: bufferSize}
}

// Algorithm returns the configured hash algorithm.
func (f *Fingerprinter) Algorithm() *HashAlgorithm {
	return f.algorithm
}

// Fingerprint returns the hex digest of the file's content. The entry's size
// from the walk must match the number of bytes read, otherwise ErrSizeChanged
// is returned so a file rewritten mid-scan is never grouped on a stale view.
func (f *Fingerprinter) Fingerprint(ctx context.Context, entry FileEntry) (string, error) {
	file, err := f.fs.Open(entry.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", entry.Path, err)
	}
	defer file.Close()

	adviseSequential(file)

	sum, n, err := HashReader(ctx, file, f.algorithm, f.bufferSize)
	if err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", entry.Path, err)
	}
	if n != entry.Size {
		return "", fmt.Errorf("%s: read %d bytes, expected %d: %w", entry.Path, n, entry.Size, ErrSizeChanged)
	}
	if len(sum) != f.algorithm.Size {
		return "", fmt.Errorf("%s digest of %s is %d bytes, expected %d", f.algorithm.Name, entry.Path, len(sum), f.algorithm.Size)
	}

	if IsDebugEnabled("hash") {
		VerboseLog(3, "hashed %s (%d bytes)", entry.Path, n)
	}
	return hex.EncodeToString(sum), nil
}
