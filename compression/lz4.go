// Package compression frames byte payloads with lz4 for raw dumps.
package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	_, writeErr := zw.Write(src)
	if writeErr != nil {
		return writeErr
	}

	flushErr := zw.Flush()

	if flushErr != nil {
		return flushErr
	}

	return zw.Close()
}

// DecompressLz4 reads one lz4 frame from input, which must hold exactly size
// bytes of payload.
func DecompressLz4(input io.Reader, size int) ([]byte, error) {
	zr := lz4.NewReader(input)

	out := make([]byte, size)

	readBytes, err := io.ReadFull(zr, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 payload too short, read %d of %d bytes: %w", readBytes, size, err)
	}

	var probe [1]byte
	if n, _ := zr.Read(probe[:]); n != 0 {
		return nil, fmt.Errorf("lz4 payload longer than %d bytes", size)
	}

	return out, nil
}
