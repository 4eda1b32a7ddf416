package codec

import (
	"bytes"
	"fmt"
)

type encoder struct {
	raw []byte
	pos int

	out []byte
}

// Compress encodes raw project bytes. The instrument and wave regions get
// default-template coalescing, everything else plain run-length encoding.
// Input shorter than a region simply stops early.
func Compress(raw []byte) []byte {

	e := &encoder{
		raw: raw,
		out: make([]byte, 0, len(raw)/4),
	}

	size := len(raw)

	e.rleRegion(min(InstrRegionStart, size))
	if e.pos == size {
		return e.out
	}

	e.defaultRegion(InstrRegionStart, InstrRegionEnd, &DefaultInstrument, DefaultInstrumentTag)
	if e.pos == size {
		return e.out
	}
	e.expectAt(InstrRegionEnd)

	e.rleRegion(min(WaveRegionStart, size))
	if e.pos == size {
		return e.out
	}

	e.defaultRegion(WaveRegionStart, WaveRegionEnd, &DefaultWave, DefaultWaveTag)
	if e.pos == size {
		return e.out
	}
	e.expectAt(WaveRegionEnd)

	e.rleRegion(size)

	return e.out
}

func (e *encoder) expectAt(boundary int) {
	if e.pos != boundary {
		panic(fmt.Sprintf("compressor is at 0x%x, expected region boundary 0x%x", e.pos, boundary))
	}
}

func (e *encoder) rleRegion(end int) {
	for e.pos < end {
		e.rle(end)
	}
}

// rle encodes the command starting at e.pos without reading at or past end.
func (e *encoder) rle(end int) {
	current := e.raw[e.pos]

	// never counted, a marker-value-count triple with the marker as value
	// would read as an escaped marker
	if current == RLEMarker {
		e.out = append(e.out, RLEMarker, RLEMarker)
		e.pos++
		return
	}

	lookahead := e.pos
	for lookahead < end && e.raw[lookahead] == current && lookahead-e.pos < MaxRun {
		lookahead++
	}

	occurrences := lookahead - e.pos

	switch {
	case current == SpecialMarker:
		if occurrences > 1 {
			e.out = append(e.out, RLEMarker, current, byte(occurrences))
		} else {
			e.out = append(e.out, SpecialMarker, SpecialMarker)
		}
	case occurrences > 3:
		e.out = append(e.out, RLEMarker, current, byte(occurrences))
	default:
		for range occurrences {
			e.out = append(e.out, current)
		}
	}

	e.pos = lookahead
}

// defaultRegion encodes [start, end) chunk by chunk: runs of chunks equal to
// template become SpecialMarker, tag, count; other runs are run-length
// encoded. A trailing partial chunk never matches.
func (e *encoder) defaultRegion(start, end int, template *[ChunkSize]byte, tag byte) {
	e.expectAt(start)

	end = min(end, len(e.raw))

	runDefault := false
	runChunks := 0

	flush := func() {
		if runChunks == 0 {
			return
		}
		if runDefault {
			e.defaultRun(runChunks, tag)
		} else {
			e.rleRegion(min(e.pos+runChunks*ChunkSize, end))
		}
		runChunks = 0
	}

	for idx := start; idx < end; idx += ChunkSize {
		chunk := e.raw[idx:min(idx+ChunkSize, end)]
		isDefault := bytes.Equal(chunk, template[:])

		if runChunks > 0 && isDefault != runDefault {
			flush()
		}

		runDefault = isDefault
		runChunks++
	}

	flush()
}

func (e *encoder) defaultRun(chunks int, tag byte) {
	for chunks > 0 {
		count := min(chunks, MaxRun)
		e.out = append(e.out, SpecialMarker, tag, byte(count))
		e.pos += count * ChunkSize
		chunks -= count
	}
}
