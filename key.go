package kilt

import (
	"errors"
	"fmt"
	"io"
)

// ErrInputStream reports a failed read of the underlying input stream.
// Malformed escape sequences are not errors; they decode to Escape.
var ErrInputStream = errors.New("input stream read failed")

// Special identifies named keys that arrive as multi-byte escape sequences.
type Special uint8

const (
	SpecialNone Special = iota
	SpecialEscape
	SpecialUp
	SpecialDown
	SpecialLeft
	SpecialRight
	SpecialPageUp
	SpecialPageDown
	SpecialDelete
)

var specialNames = map[Special]string{
	SpecialEscape:   "Esc",
	SpecialUp:       "Up",
	SpecialDown:     "Down",
	SpecialLeft:     "Left",
	SpecialRight:    "Right",
	SpecialPageUp:   "PageUp",
	SpecialPageDown: "PageDown",
	SpecialDelete:   "Del",
}

// Key is a single decoded input event: either a literal byte or one of
// the named special keys. Keys are produced transiently and consumed by
// the dispatch step; they are never stored.
type Key struct {
	Rune    byte
	Special Special
}

// String returns a readable representation of the key.
func (k Key) String() string {
	if k.Special != SpecialNone {
		return "<" + specialNames[k.Special] + ">"
	}
	if k.Rune < 32 || k.Rune == 127 {
		return fmt.Sprintf("<%#02x>", k.Rune)
	}
	return string(k.Rune)
}

const escByte = 0x1b

// Decoder turns the raw byte stream of a terminal into Keys. It relies on
// the session's bounded-read policy: in raw mode a read returns empty once
// the timeout elapses, which is how a lone Escape keypress is told apart
// from the start of an escape sequence. It reads at most three lookahead
// bytes and never backtracks.
type Decoder struct {
	r   io.Reader
	buf [1]byte
}

// NewDecoder creates a decoder over the given raw input stream.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadKey blocks until the next key event arrives and returns it.
// Unrecognized or incomplete escape sequences degrade to a plain Escape
// event rather than failing; only an unreadable stream is an error.
func (d *Decoder) ReadKey() (Key, error) {
	b, err := d.waitByte()
	if err != nil {
		return Key{}, err
	}

	if b != escByte {
		return Key{Rune: b}, nil
	}

	// Escape introducer. Collect up to two continuation bytes; if either
	// read times out this was a lone Escape keypress.
	b1, ok, err := d.pollByte()
	if err != nil {
		return Key{}, err
	}
	if !ok {
		return Key{Special: SpecialEscape}, nil
	}
	b2, ok, err := d.pollByte()
	if err != nil {
		return Key{}, err
	}
	if !ok {
		return Key{Special: SpecialEscape}, nil
	}

	if b1 != '[' {
		tracef("decode: unknown sequence ESC %q %q", b1, b2)
		return Key{Special: SpecialEscape}, nil
	}

	switch b2 {
	case 'A':
		return Key{Special: SpecialUp}, nil
	case 'B':
		return Key{Special: SpecialDown}, nil
	case 'C':
		return Key{Special: SpecialRight}, nil
	case 'D':
		return Key{Special: SpecialLeft}, nil
	}

	if b2 >= '0' && b2 <= '9' {
		// Numeric parameter: a single digit followed by '~'.
		b3, ok, err := d.pollByte()
		if err != nil {
			return Key{}, err
		}
		if ok && b3 == '~' {
			switch b2 {
			case '3':
				return Key{Special: SpecialDelete}, nil
			case '5':
				return Key{Special: SpecialPageUp}, nil
			case '6':
				return Key{Special: SpecialPageDown}, nil
			}
		}
	}

	tracef("decode: unrecognized sequence ESC [ %q", b2)
	return Key{Special: SpecialEscape}, nil
}

// waitByte reads until a byte arrives. Empty reads are the raw-mode
// timeout ticking over; keep waiting.
func (d *Decoder) waitByte() (byte, error) {
	for {
		n, err := d.r.Read(d.buf[:])
		if n == 1 {
			return d.buf[0], nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInputStream, err)
		}
	}
}

// pollByte makes a single read attempt for an escape-sequence
// continuation byte. An empty read (raw-mode timeout, or end of a plain
// stream) means no byte arrived in time.
func (d *Decoder) pollByte() (byte, bool, error) {
	n, err := d.r.Read(d.buf[:])
	if n == 1 {
		return d.buf[0], true, nil
	}
	if err != nil && err != io.EOF {
		return 0, false, fmt.Errorf("%w: %v", ErrInputStream, err)
	}
	return 0, false, nil
}
