package bits

import (
	"errors"
	"fmt"
)

var ErrFieldTooLong = errors.New("value does not fit field")

type BitWriter struct {
	pos  int
	data []byte
	size int
}

func NewEncodeBuffer(buf []byte) BitWriter {

	result := BitWriter{}

	result.data = buf
	result.pos = 0
	result.size = len(buf)

	return result
}

func (this BitWriter) Position() int {
	return this.pos
}

func (this *BitWriter) ensure(n int) {
	if (this.pos + n) > this.size {
		panic(fmt.Sprintf("bit writer out of space on pos : %d, need %d, size : %d", this.pos, n, this.size))
	}
}

func (this *BitWriter) Write(p []byte) (n int, err error) {

	oldl := len(p)
	this.ensure(oldl)

	n = copy(this.data[this.pos:], p)

	if oldl != n {
		return 0, errors.New("not enough space")
	}

	this.pos += n

	return
}

func (this *BitWriter) Bytes() []byte {
	return this.data[:this.pos]
}

func (this *BitWriter) WriteByte(u byte) error {
	this.ensure(1)
	this.data[this.pos] = u
	this.pos++
	return nil
}

// PutFixedString writes s zero padded to width n.
func (this *BitWriter) PutFixedString(s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrFieldTooLong, s, n)
	}

	this.ensure(n)
	copied := copy(this.data[this.pos:], s)
	clear(this.data[this.pos+copied : this.pos+n])
	this.pos += n

	return nil
}
