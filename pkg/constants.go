package dupfind

// Hash size constants
const (
	HashSizeMD5    = 16
	HashSizeSHA1   = 20
	HashSizeSHA256 = 32
	HashSizeSHA512 = 64
)

// DefaultHashAlgorithm is a 128-bit digest; collisions are treated as impossible.
const DefaultHashAlgorithm = "md5"

// DefaultBufferSize is the chunk size used when streaming a file into a hash.
// It bounds memory per hash worker independently of file size.
const DefaultBufferSize = 4096

// DefaultHashWorkers keeps hashing on a single goroutine.
const DefaultHashWorkers = 1

// MaxHashWorkers is the largest accepted worker count.
const MaxHashWorkers = 64

// maxSymlinkHops bounds symlink chain resolution, matching the usual kernel limit.
const maxSymlinkHops = 40
