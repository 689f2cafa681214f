package kilt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrViewportProbe reports that the terminal dimensions could not be
// determined. Fatal: without them rendering has no defined bounds.
var ErrViewportProbe = errors.New("viewport probe failed")

// Size holds the terminal dimensions. Resolved once at startup and
// read-only thereafter; this design does not track live resizes.
type Size struct {
	Rows int
	Cols int
}

// ResolveSize determines the terminal's row and column count. It asks the
// terminal driver first; when that is unsupported or reports zero columns
// it falls back to the cursor-position probe.
func ResolveSize(fd int, out io.Writer, in io.Reader) (Size, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err == nil && ws.Col != 0 {
		return Size{Rows: int(ws.Row), Cols: int(ws.Col)}, nil
	}

	tracef("viewport: winsize ioctl unavailable (%v), probing cursor", err)
	return probeCursorPosition(out, in)
}

// probeCursorPosition pushes the cursor toward row 999, column 999 — the
// terminal clamps it to the actual bottom-right corner — then asks for a
// cursor position report and parses the reply.
func probeCursorPosition(out io.Writer, in io.Reader) (Size, error) {
	if _, err := io.WriteString(out, "\x1b[999C\x1b[999B"); err != nil {
		return Size{}, fmt.Errorf("%w: %v", ErrViewportProbe, err)
	}
	if _, err := io.WriteString(out, "\x1b[6n"); err != nil {
		return Size{}, fmt.Errorf("%w: %v", ErrViewportProbe, err)
	}

	// Read the reply a byte at a time up to the 'R' terminator. A short
	// read ends the reply; the parser decides whether it was complete.
	var reply [32]byte
	i := 0
	for i < len(reply)-1 {
		n, _ := in.Read(reply[i : i+1])
		if n != 1 || reply[i] == 'R' {
			break
		}
		i++
	}

	return parseCursorReport(reply[:i])
}

// parseCursorReport parses a cursor position report of the form
// ESC [ <row> ; <col> R into a Size. The trailing 'R' may already have
// been consumed by the reply reader.
func parseCursorReport(b []byte) (Size, error) {
	b = bytes.TrimSuffix(b, []byte{'R'})

	if len(b) < 2 || b[0] != escByte || b[1] != '[' {
		return Size{}, fmt.Errorf("%w: reply missing ESC [ prefix", ErrViewportProbe)
	}

	fields := bytes.Split(b[2:], []byte{';'})
	if len(fields) != 2 {
		return Size{}, fmt.Errorf("%w: malformed reply %q", ErrViewportProbe, b)
	}

	rows, err := strconv.Atoi(string(fields[0]))
	if err != nil {
		return Size{}, fmt.Errorf("%w: bad row count %q", ErrViewportProbe, fields[0])
	}
	cols, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return Size{}, fmt.Errorf("%w: bad column count %q", ErrViewportProbe, fields[1])
	}

	if rows <= 0 || cols <= 0 {
		return Size{}, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrViewportProbe, cols, rows)
	}

	return Size{Rows: rows, Cols: cols}, nil
}
