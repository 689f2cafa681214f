package kilt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Errors for terminal state management. Both are fatal: once the program
// cannot read or reapply the terminal attributes, it can no longer trust
// its own view of the terminal.
var (
	ErrTerminalQuery   = errors.New("terminal attribute query failed")
	ErrTerminalRestore = errors.New("terminal restore failed")
)

// Session owns the terminal line discipline for the life of the process.
// Exactly one live session is expected: it captures the original termios
// before any mutation and restores it on exit. The caller guarantees
// restoration with a deferred Restore on every exit path.
type Session struct {
	in     *os.File
	writer io.Writer
	fd     int

	origTermios *unix.Termios
	inRawMode   bool

	// Read timeout in tenths of a second (termios VTIME). This bounds
	// every read, which is what lets the key decoder poll for
	// escape-sequence continuation bytes without blocking forever.
	vtime uint8
}

// NewSession creates a session over the given input file and output writer.
// Pass nil to use os.Stdin / os.Stdout. The input must be a terminal.
func NewSession(in *os.File, out io.Writer) (*Session, error) {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: input is not a terminal", ErrTerminalQuery)
	}

	return &Session{
		in:     in,
		writer: out,
		fd:     fd,
		vtime:  1,
	}, nil
}

// Input returns the raw input stream.
func (s *Session) Input() io.Reader {
	return s.in
}

// Writer returns the terminal output stream.
func (s *Session) Writer() io.Writer {
	return s.writer
}

// Fd returns the terminal file descriptor.
func (s *Session) Fd() int {
	return s.fd
}

// SetEscapeTimeout sets how long a raw-mode read waits for input before
// returning empty. Granularity is a tenth of a second; values are clamped
// to the 0.1s..25.5s range the terminal driver supports. Must be called
// before EnterRawMode.
func (s *Session) SetEscapeTimeout(d time.Duration) {
	tenths := int64(d / (100 * time.Millisecond))
	if tenths < 1 {
		tenths = 1
	}
	if tenths > 255 {
		tenths = 255
	}
	s.vtime = uint8(tenths)
}

// EnterRawMode switches the terminal to raw input: bytes are delivered
// immediately, without line buffering, echo, or signal generation.
func (s *Session) EnterRawMode() error {
	if s.inRawMode {
		return nil
	}

	termios, err := unix.IoctlGetTermios(s.fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminalQuery, err)
	}
	s.origTermios = termios

	raw := rawTermios(*termios, s.vtime)
	if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, &raw); err != nil {
		return fmt.Errorf("%w: set raw mode: %v", ErrTerminalQuery, err)
	}

	s.inRawMode = true
	return nil
}

// rawTermios derives the raw attribute set from the original.
func rawTermios(orig unix.Termios, vtime uint8) unix.Termios {
	raw := orig
	// Input flags: disable break signal, CR to NL, parity check, 8th-bit
	// strip, flow control start/stop
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	// Output flags: disable post processing
	raw.Oflag &^= unix.OPOST
	// Control flags: 8 bit chars
	raw.Cflag |= unix.CS8
	// Local flags: disable echo, canonical mode, signals, extended input
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	// Control chars: reads return as soon as any input is available, or
	// empty after the timeout elapses
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = vtime
	return raw
}

// Restore reapplies the original terminal attributes. Safe to call more
// than once; only the first call touches the terminal. A failure here is
// reported, never swallowed — the user's shell is unusable otherwise.
func (s *Session) Restore() error {
	if !s.inRawMode || s.origTermios == nil {
		return nil
	}

	if err := unix.IoctlSetTermios(s.fd, ioctlSetTermios, s.origTermios); err != nil {
		return fmt.Errorf("%w: %v", ErrTerminalRestore, err)
	}

	s.inRawMode = false
	return nil
}
