package kilt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Version is the banner version string.
const Version = "0.1.0"

const ctrlQ = 'q' & 0x1f

// Editor holds the viewer state: the terminal session, the resolved
// viewport, the cursor, and the content rows. One instance is created by
// the entry point and threaded through the render/input loop; there are
// no package-level globals.
type Editor struct {
	session *Session
	decoder *Decoder
	size    Size

	cx, cy int // cursor position, 0-based, bounded by the viewport
	rows   []string

	hideBanner bool
	frame      Frame // reused across redraws
}

// NewEditor creates an editor over the given session and viewport.
func NewEditor(s *Session, size Size) *Editor {
	return &Editor{
		session: s,
		decoder: NewDecoder(s.Input()),
		size:    size,
	}
}

// SetHideBanner suppresses the version banner on the empty screen.
func (e *Editor) SetHideBanner(hide bool) {
	e.hideBanner = hide
}

// Size returns the resolved viewport dimensions.
func (e *Editor) Size() Size {
	return e.size
}

// Cursor returns the current cursor position, 0-based.
func (e *Editor) Cursor() (cx, cy int) {
	return e.cx, e.cy
}

// Open loads the first line of the named file as content row zero,
// stripped of trailing newline and carriage-return bytes. An empty file
// contributes no rows.
func (e *Editor) Open(path string) error {
	fp, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer fp.Close()

	line, err := bufio.NewReader(fp).ReadString('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if line == "" && err == io.EOF {
		return nil
	}

	e.rows = append(e.rows, strings.TrimRight(line, "\r\n"))
	return nil
}

// Run renders and dispatches until the user quits or a fatal error
// occurs. Each iteration paints a full frame before the next key is
// read, so the screen always reflects the previous key event.
func (e *Editor) Run() error {
	for {
		if err := e.RefreshScreen(); err != nil {
			return err
		}
		quit, err := e.ProcessKey()
		if err != nil {
			return err
		}
		if quit {
			e.ClearScreen()
			return nil
		}
	}
}

// RefreshScreen assembles one complete frame — cursor hide, home, every
// row, cursor reposition, cursor show — and writes it in a single call.
func (e *Editor) RefreshScreen() error {
	f := &e.frame

	f.AppendString("\x1b[?25l")
	f.AppendString("\x1b[H")

	e.drawRows(f)

	// Terminal positions are 1-based.
	f.AppendString("\x1b[")
	f.AppendInt(e.cy + 1)
	f.AppendByte(';')
	f.AppendInt(e.cx + 1)
	f.AppendByte('H')

	f.AppendString("\x1b[?25h")

	return f.Flush(e.session.Writer())
}

// drawRows emits every viewport row: content where it exists, a filler
// tilde otherwise, and the centered banner on the empty screen. Each row
// ends with erase-to-end-of-line; rows are separated by CRLF with none
// after the last.
func (e *Editor) drawRows(f *Frame) {
	for y := 0; y < e.size.Rows; y++ {
		switch {
		case y < len(e.rows):
			f.AppendString(clampWidth(e.rows[y], e.size.Cols))
		case len(e.rows) == 0 && !e.hideBanner && y == e.size.Rows/3:
			e.drawBanner(f)
		default:
			f.AppendByte('~')
		}

		f.AppendString("\x1b[K")
		if y < e.size.Rows-1 {
			f.AppendString("\r\n")
		}
	}
}

// drawBanner emits the version banner centered in the row, flanked by the
// filler tilde when there is room for padding.
func (e *Editor) drawBanner(f *Frame) {
	banner := clampWidth("kilt viewer -- version "+Version, e.size.Cols)

	padding := (e.size.Cols - runewidth.StringWidth(banner)) / 2
	if padding > 0 {
		f.AppendByte('~')
		padding--
	}
	for ; padding > 0; padding-- {
		f.AppendByte(' ')
	}
	f.AppendString(banner)
}

// clampWidth truncates s to at most cols terminal columns.
func clampWidth(s string, cols int) string {
	return runewidth.Truncate(s, cols, "")
}

// ProcessKey blocks on the next key event and applies it. It reports
// whether the user asked to quit.
func (e *Editor) ProcessKey() (quit bool, err error) {
	k, err := e.decoder.ReadKey()
	if err != nil {
		return false, err
	}
	return e.applyKey(k), nil
}

// applyKey dispatches a single key event against the editor state.
func (e *Editor) applyKey(k Key) (quit bool) {
	switch k.Special {
	case SpecialNone:
		if k.Rune == ctrlQ {
			return true
		}
	case SpecialUp, SpecialDown, SpecialLeft, SpecialRight:
		e.moveCursor(k.Special)
	case SpecialPageUp, SpecialPageDown:
		// A page moves the cursor a full screen of rows.
		dir := SpecialUp
		if k.Special == SpecialPageDown {
			dir = SpecialDown
		}
		for times := e.size.Rows; times > 0; times-- {
			e.moveCursor(dir)
		}
	}
	return false
}

// moveCursor moves the cursor one cell, clamped to the viewport.
func (e *Editor) moveCursor(dir Special) {
	switch dir {
	case SpecialLeft:
		if e.cx != 0 {
			e.cx--
		}
	case SpecialRight:
		if e.cx != e.size.Cols-1 {
			e.cx++
		}
	case SpecialUp:
		if e.cy != 0 {
			e.cy--
		}
	case SpecialDown:
		if e.cy != e.size.Rows-1 {
			e.cy++
		}
	}
}

// ClearScreen best-effort erases the display and homes the cursor, so the
// shell prompt comes back to a clean terminal.
func (e *Editor) ClearScreen() {
	io.WriteString(e.session.Writer(), "\x1b[2J\x1b[H")
}
