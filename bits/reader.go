package bits

import (
	"errors"
	"io"
)

var (
	ErrEOF          = errors.New("end of file")
	ErrReadMismatch = errors.New("read size mismatch")
)

const MaxBinReaderBufferSize = 256

// BitsReader reads the fixed-width little fields the container header is
// made of.
type BitsReader struct {
	readBuffer [MaxBinReaderBufferSize]byte

	buf io.Reader
	pos int
}

func NewReader(buf io.Reader) *BitsReader {
	return &BitsReader{buf: buf}
}

// Position is the number of bytes consumed so far.
func (r *BitsReader) Position() int {
	return r.pos
}

func (r *BitsReader) readNextBytesIntoReadBuffer(size int) error {
	readBytes, err := io.ReadFull(r.buf, r.readBuffer[:size])
	r.pos += readBytes

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrEOF
		}
		return err
	}

	if readBytes != size {
		return ErrReadMismatch
	}

	return nil
}

func (r *BitsReader) ReadU8() (uint8, error) {
	err := r.readNextBytesIntoReadBuffer(1)

	if err != nil {
		return 0, err
	}

	return r.readBuffer[0], err
}

// ReadBytes fills out[:n].
func (r *BitsReader) ReadBytes(n int, out []byte) error {

	readBytes, err := io.ReadFull(r.buf, out[:n])
	r.pos += readBytes

	if readBytes != n {
		return ErrReadMismatch
	}

	return err
}

// ReadFixedString reads a zero padded string field of width n. The result
// stops at the first zero byte.
func (r *BitsReader) ReadFixedString(n int) (string, error) {
	if n > MaxBinReaderBufferSize {
		return "", ErrReadMismatch
	}

	err := r.readNextBytesIntoReadBuffer(n)
	if err != nil {
		return "", err
	}

	return StripNulls(r.readBuffer[:n]), nil
}

func StripNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
