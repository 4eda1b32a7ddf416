package block

import (
	"fmt"

	"github.com/dot5enko/lsdsav/codec"
	"github.com/dot5enko/lsdsav/errs"
)

// trailer is the special marker plus the next id or EOF tag.
const trailer = 2

// Split cuts a merged compressed stream into segments of at most
// blockSize-2 bytes, never inside a command, and writes each into a newly
// allocated block followed by a pointer to the next block (or EOF) and
// zero padding. An empty stream still takes one block holding only EOF.
func Split(compressed []byte, blockSize int, alloc Allocator) ([]ID, error) {

	if blockSize < MinBlockSize {
		return nil, errs.InvalidArgument.WithFormat("block size %d is below the minimum of %d", blockSize, MinBlockSize)
	}

	segments, err := segment(compressed, blockSize-trailer)
	if err != nil {
		return nil, err
	}

	blocks := make([]*Block, len(segments))
	ids := make([]ID, len(segments))

	for i := range segments {
		b, allocErr := alloc.NewBlock()
		if allocErr != nil {
			return nil, fmt.Errorf("unable to allocate block %d of %d: %w", i+1, len(segments), allocErr)
		}
		if len(b.Data) != blockSize {
			return nil, errs.InvalidArgument.WithFormat("allocator returned a %d byte block, expected %d", len(b.Data), blockSize)
		}

		blocks[i] = b
		ids[i] = b.ID
	}

	for i, seg := range segments {
		data := blocks[i].Data

		n := copy(data, seg)
		data[n] = codec.SpecialMarker

		if i == len(segments)-1 {
			data[n+1] = codec.EOFTag
		} else {
			data[n+1] = byte(ids[i+1])
		}

		clear(data[n+trailer:])
	}

	return ids, nil
}

func segment(compressed []byte, capacity int) ([][]byte, error) {

	var segments [][]byte

	segmentStart := 0
	index := 0
	dataSize := len(compressed)

	for index < dataSize {
		kind, width := codec.NextCommand(compressed, index)

		switch kind {
		case codec.Truncated:
			return nil, errs.Decode.With("expected a command to follow the marker").AtOffset(index)
		case codec.Control:
			return nil, errs.Decode.
				WithFormat("encountered block switch or EOF 0x%02x while segmenting", compressed[index+1]).
				AtOffset(index)
		}

		if index+width > dataSize {
			return nil, errs.Decode.WithFormat("%s command runs past the end of the stream", kind).AtOffset(index)
		}

		if width > capacity {
			return nil, errs.InvalidArgument.WithFormat("%d byte command does not fit a %d byte segment", width, capacity).AtOffset(index)
		}

		if index-segmentStart+width > capacity {
			segments = append(segments, compressed[segmentStart:index])
			segmentStart = index
			continue
		}

		index += width
	}

	if segmentStart != index || len(segments) == 0 {
		segments = append(segments, compressed[segmentStart:index])
	}

	total := 0
	for _, seg := range segments {
		total += len(seg)
	}

	if total != dataSize {
		panic(errs.SegmentationInvariant.WithFormat("lost %d bytes of data while segmenting", dataSize-total))
	}

	return segments, nil
}
