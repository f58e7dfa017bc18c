//go:build !linux

package dupfind

import (
	"bytes"
	"fmt"
	"os"
)

func writevLines(f *os.File, lines [][]byte) error {
	if _, err := f.Write(bytes.Join(lines, nil)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
