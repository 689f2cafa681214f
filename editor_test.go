package kilt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestEditor builds an editor over a fixed-size in-memory terminal.
func newTestEditor(rows, cols int) (*Editor, *countingWriter) {
	var w countingWriter
	s := &Session{writer: &w}
	e := &Editor{
		session: s,
		decoder: NewDecoder(bytes.NewReader(nil)),
		size:    Size{Rows: rows, Cols: cols},
	}
	return e, &w
}

func TestRefreshScreen(t *testing.T) {
	t.Run("frame is one write", func(t *testing.T) {
		e, w := newTestEditor(24, 80)

		if err := e.RefreshScreen(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(w.writes) != 1 {
			t.Fatalf("expected one write per frame, got %d", len(w.writes))
		}
	})

	t.Run("frame structure", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.RefreshScreen()

		frame := string(w.writes[0])
		if !strings.HasPrefix(frame, "\x1b[?25l\x1b[H") {
			t.Errorf("frame must start with cursor hide + home, got %q", frame[:12])
		}
		if !strings.HasSuffix(frame, "\x1b[1;1H\x1b[?25h") {
			t.Errorf("frame must end with cursor position + show, got %q", frame[len(frame)-16:])
		}
		if got := strings.Count(frame, "\x1b[K"); got != 24 {
			t.Errorf("expected 24 erase-line sequences, got %d", got)
		}
		if got := strings.Count(frame, "\r\n"); got != 23 {
			t.Errorf("expected 23 row separators (none after last row), got %d", got)
		}
	})

	t.Run("banner row on empty screen", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.RefreshScreen()

		frame := string(w.writes[0])
		rows := strings.Split(frame, "\r\n")
		if len(rows) != 24 {
			t.Fatalf("expected 24 rows, got %d", len(rows))
		}

		banner := "kilt viewer -- version " + Version
		for i, row := range rows {
			// Strip per-row control sequences before inspecting content.
			row = strings.TrimSuffix(row, "\x1b[K")
			row = strings.TrimPrefix(row, "\x1b[?25l\x1b[H")
			if i == 24/3 {
				if !strings.Contains(row, banner) {
					t.Errorf("row %d should carry the banner, got %q", i, row)
				}
				if !strings.HasPrefix(row, "~") {
					t.Errorf("banner row should be flanked by ~, got %q", row)
				}
				pad := strings.Count(row, " ")
				if pad == 0 {
					t.Errorf("banner should be centered with padding, got %q", row)
				}
			} else if !strings.HasPrefix(row, "~") {
				t.Errorf("row %d should start with ~, got %q", i, row)
			}
		}
	})

	t.Run("banner never exceeds the viewport", func(t *testing.T) {
		e, w := newTestEditor(12, 10)
		e.RefreshScreen()

		frame := string(w.writes[0])
		rows := strings.Split(frame, "\r\n")
		row := strings.TrimSuffix(rows[12/3], "\x1b[K")
		if len(row) > 10 {
			t.Errorf("banner row %q wider than 10 cols", row)
		}
	})

	t.Run("banner can be hidden", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.SetHideBanner(true)
		e.RefreshScreen()

		if strings.Contains(string(w.writes[0]), "kilt viewer") {
			t.Error("banner rendered despite SetHideBanner(true)")
		}
	})

	t.Run("content row replaces banner and filler", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.rows = []string{"hello from a file"}
		e.RefreshScreen()

		frame := string(w.writes[0])
		if !strings.Contains(frame, "hello from a file") {
			t.Error("content row missing from frame")
		}
		if strings.Contains(frame, "kilt viewer") {
			t.Error("banner should not render when content rows exist")
		}
	})

	t.Run("content rows are clamped to the viewport width", func(t *testing.T) {
		e, w := newTestEditor(4, 10)
		e.rows = []string{strings.Repeat("a", 40)}
		e.RefreshScreen()

		frame := string(w.writes[0])
		if strings.Contains(frame, strings.Repeat("a", 11)) {
			t.Error("content row not clamped to 10 columns")
		}
		if !strings.Contains(frame, strings.Repeat("a", 10)) {
			t.Error("clamped content row missing")
		}
	})

	t.Run("cursor position is 1-based", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.cx, e.cy = 4, 9
		e.RefreshScreen()

		if !strings.Contains(string(w.writes[0]), "\x1b[10;5H") {
			t.Errorf("expected cursor sequence for row 10 col 5, frame %q", w.writes[0])
		}
	})
}

func TestApplyKey(t *testing.T) {
	t.Run("arrows move within bounds", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)

		// Already at the origin; up and left are no-ops.
		e.applyKey(Key{Special: SpecialUp})
		e.applyKey(Key{Special: SpecialLeft})
		if e.cx != 0 || e.cy != 0 {
			t.Errorf("cursor moved past origin: (%d,%d)", e.cx, e.cy)
		}

		e.applyKey(Key{Special: SpecialRight})
		e.applyKey(Key{Special: SpecialDown})
		if e.cx != 1 || e.cy != 1 {
			t.Errorf("expected (1,1), got (%d,%d)", e.cx, e.cy)
		}
	})

	t.Run("cursor stops at the far edges", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)

		for i := 0; i < 200; i++ {
			e.applyKey(Key{Special: SpecialRight})
			e.applyKey(Key{Special: SpecialDown})
		}
		if e.cx != 79 || e.cy != 23 {
			t.Errorf("expected (79,23), got (%d,%d)", e.cx, e.cy)
		}
	})

	t.Run("page keys move a full screen", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)

		e.applyKey(Key{Special: SpecialPageDown})
		if e.cy != 23 {
			t.Errorf("PageDown: expected cy=23, got %d", e.cy)
		}
		e.applyKey(Key{Special: SpecialPageUp})
		if e.cy != 0 {
			t.Errorf("PageUp: expected cy=0, got %d", e.cy)
		}
	})

	t.Run("ctrl-q quits", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)

		if quit := e.applyKey(Key{Rune: ctrlQ}); !quit {
			t.Error("Ctrl-Q should request quit")
		}
		if quit := e.applyKey(Key{Rune: 'q'}); quit {
			t.Error("plain q should not quit")
		}
	})

	t.Run("delete and escape are inert", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		e.cx, e.cy = 3, 3

		e.applyKey(Key{Special: SpecialDelete})
		e.applyKey(Key{Special: SpecialEscape})
		if e.cx != 3 || e.cy != 3 {
			t.Errorf("state changed: (%d,%d)", e.cx, e.cy)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("renders before reading and clears on quit", func(t *testing.T) {
		e, w := newTestEditor(24, 80)
		e.decoder = NewDecoder(bytes.NewReader([]byte{ctrlQ}))

		if err := e.Run(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(w.writes) != 2 {
			t.Fatalf("expected frame write + clear write, got %d writes", len(w.writes))
		}
		if got := string(w.writes[1]); got != "\x1b[2J\x1b[H" {
			t.Errorf("final write = %q, want clear + home", got)
		}
	})

	t.Run("moves then quits", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		e.decoder = NewDecoder(bytes.NewReader([]byte("\x1b[C\x1b[B" + string(rune(ctrlQ)))))

		if err := e.Run(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.cx != 1 || e.cy != 1 {
			t.Errorf("expected cursor (1,1) after arrows, got (%d,%d)", e.cx, e.cy)
		}
	})

	t.Run("input stream failure surfaces", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		e.decoder = NewDecoder(brokenReader{})

		if err := e.Run(); err == nil {
			t.Fatal("expected input stream error")
		}
	})
}

func TestOpen(t *testing.T) {
	writeTemp := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "sample.txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("first line without trailing newline bytes", func(t *testing.T) {
		tests := []struct {
			content string
			want    string
		}{
			{"hello world\n", "hello world"},
			{"hello world\r\n", "hello world"},
			{"no newline at all", "no newline at all"},
			{"first\nsecond\n", "first"},
		}

		for _, tt := range tests {
			e, _ := newTestEditor(24, 80)
			if err := e.Open(writeTemp(t, tt.content)); err != nil {
				t.Fatalf("%q: unexpected error: %v", tt.content, err)
			}
			if len(e.rows) != 1 || e.rows[0] != tt.want {
				t.Errorf("%q: rows = %q, want [%q]", tt.content, e.rows, tt.want)
			}
		}
	})

	t.Run("empty file contributes no rows", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		if err := e.Open(writeTemp(t, "")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(e.rows) != 0 {
			t.Errorf("expected no rows, got %q", e.rows)
		}
	})

	t.Run("blank first line is still a row", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		if err := e.Open(writeTemp(t, "\n")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(e.rows) != 1 || e.rows[0] != "" {
			t.Errorf("rows = %q, want one empty row", e.rows)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		e, _ := newTestEditor(24, 80)
		if err := e.Open(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
