//go:build linux

package dupfind

import (
	"bytes"
	"fmt"
	"os"
	"syscall"

	"github.com/google/vectorio"
)

// IOV_MAX on Linux
const maxIovecs = 1024

// writevLines writes lines to f with writev, batching to stay under IOV_MAX.
// A short write is finished with ordinary writes.
func writevLines(f *os.File, lines [][]byte) error {
	for offset := 0; offset < len(lines); offset += maxIovecs {
		chunk := lines[offset:min(offset+maxIovecs, len(lines))]

		iovecs := make([]syscall.Iovec, 0, len(chunk))
		want := 0
		for _, line := range chunk {
			if len(line) == 0 {
				continue
			}
			iov := syscall.Iovec{Base: &line[0]}
			iov.SetLen(len(line))
			iovecs = append(iovecs, iov)
			want += len(line)
		}
		if len(iovecs) == 0 {
			continue
		}

		nw, err := vectorio.WritevRaw(f.Fd(), iovecs)
		if err != nil {
			return fmt.Errorf("failed to write report with vectorio: %w", err)
		}
		if nw < want {
			rest := bytes.Join(chunk, nil)[nw:]
			if _, err := f.Write(rest); err != nil {
				return fmt.Errorf("failed to finish short report write: %w", err)
			}
		}
	}
	return nil
}
