package dupfind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatHuman  Format = "human"
	FormatJSON   Format = "json"
	FormatFdupes Format = "fdupes" // one path per line, blank line between groups
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	if err := ValidateOutputFormat(s); err != nil {
		return "", err
	}
	return Format(strings.ToLower(s)), nil
}

// WriteReport renders r to w. Writes to an *os.File go out as a single
// vectored write per batch of lines.
func WriteReport(w io.Writer, r *Report, format Format) error {
	var lines [][]byte
	var err error

	switch format {
	case FormatHuman, "":
		lines = renderHuman(r, useColor(w))
	case FormatJSON:
		lines, err = renderJSON(r)
	case FormatFdupes:
		lines = renderFdupes(r)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return err
	}

	return writeLines(w, lines)
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderHuman(r *Report, colored bool) [][]byte {
	heading := color.New(color.Bold)
	groupColor := color.New(color.FgYellow)
	summary := color.New(color.FgGreen)
	warn := color.New(color.FgRed)
	for _, c := range []*color.Color{heading, groupColor, summary, warn} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var lines [][]byte
	add := func(s string) {
		lines = append(lines, []byte(s+"\n"))
	}

	if len(r.Groups) == 0 {
		add(summary.Sprint("No duplicates found!"))
	} else {
		add(heading.Sprint("--- Duplicate Results ---"))
		for i, g := range r.Groups {
			add(groupColor.Sprintf("Group %d (Hash: %s, %s each)", i+1, g.Hash, humanize.IBytes(uint64(g.Size))))
			for _, f := range g.Files {
				add(" - " + f)
			}
			add("")
		}
		add(summary.Sprintf("Found %d duplicate groups covering %d files, %s reclaimable",
			len(r.Groups), r.DuplicateFiles(), humanize.IBytes(r.WastedBytes())))
	}

	if len(r.Skipped) > 0 {
		add(warn.Sprintf("Skipped %d unreadable entries", len(r.Skipped)))
	}
	return lines
}

func renderJSON(r *Report) ([][]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return [][]byte{data, []byte("\n")}, nil
}

func renderFdupes(r *Report) [][]byte {
	var lines [][]byte
	for i, g := range r.Groups {
		if i > 0 {
			lines = append(lines, []byte("\n"))
		}
		for _, p := range r.Paths(g) {
			lines = append(lines, []byte(p+"\n"))
		}
	}
	return lines
}

func writeLines(w io.Writer, lines [][]byte) error {
	if f, ok := w.(*os.File); ok {
		return writevLines(f, lines)
	}

	if _, err := w.Write(bytes.Join(lines, nil)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
