package kilt

import "io"

// Frame accumulates one complete screen update so the terminal sees a
// single write per redraw. Writing piecemeal is what causes flicker: the
// terminal may repaint between writes and show a half-drawn frame.
type Frame struct {
	buf []byte
}

// NewFrame creates a frame with room for a typical redraw.
func NewFrame() *Frame {
	return &Frame{buf: make([]byte, 0, 4096)}
}

// Append copies the bytes onto the end of the frame.
func (f *Frame) Append(p []byte) {
	f.buf = append(f.buf, p...)
}

// AppendString copies the string onto the end of the frame.
func (f *Frame) AppendString(s string) {
	f.buf = append(f.buf, s...)
}

// AppendByte appends a single byte.
func (f *Frame) AppendByte(b byte) {
	f.buf = append(f.buf, b)
}

// AppendInt appends the decimal representation of n without allocating.
func (f *Frame) AppendInt(n int) {
	f.buf = appendInt(f.buf, n)
}

// Len returns the number of bytes accumulated so far.
func (f *Frame) Len() int {
	return len(f.buf)
}

// Bytes returns the accumulated frame contents.
func (f *Frame) Bytes() []byte {
	return f.buf
}

// Flush writes the entire frame in a single call, then empties it.
// Capacity is retained so steady-state rendering does not allocate.
func (f *Frame) Flush(w io.Writer) error {
	if len(f.buf) == 0 {
		return nil
	}
	_, err := w.Write(f.buf)
	f.buf = f.buf[:0]
	return err
}

// appendInt appends an integer to a byte slice without allocation.
func appendInt(b []byte, n int) []byte {
	if n == 0 {
		return append(b, '0')
	}
	if n < 0 {
		b = append(b, '-')
		n = -n
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	return append(b, scratch[i:]...)
}
