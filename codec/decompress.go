package codec

import (
	"fmt"

	"github.com/dot5enko/lsdsav/errs"
)

type decodeState uint8

const (
	stateLiteral decodeState = iota
	stateAfterRLEMarker
	stateRLECountPending
	stateAfterSpecialMarker
	stateDefaultInstrCount
	stateDefaultWaveCount
)

func (s decodeState) String() string {
	switch s {
	case stateLiteral:
		return "literal"
	case stateAfterRLEMarker:
		return "after rle marker"
	case stateRLECountPending:
		return "rle count pending"
	case stateAfterSpecialMarker:
		return "after special marker"
	case stateDefaultInstrCount:
		return "default instrument count"
	case stateDefaultWaveCount:
		return "default wave count"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type decoder struct {
	state    decodeState
	runValue byte

	out []byte
}

// step consumes one input byte.
func (d *decoder) step(b byte) *errs.Error {
	switch d.state {

	case stateLiteral:
		switch b {
		case RLEMarker:
			d.state = stateAfterRLEMarker
		case SpecialMarker:
			d.state = stateAfterSpecialMarker
		default:
			d.out = append(d.out, b)
		}

	case stateAfterRLEMarker:
		if b == RLEMarker {
			d.out = append(d.out, RLEMarker)
			d.state = stateLiteral
		} else {
			d.runValue = b
			d.state = stateRLECountPending
		}

	case stateRLECountPending:
		for range int(b) {
			d.out = append(d.out, d.runValue)
		}
		d.state = stateLiteral

	case stateAfterSpecialMarker:
		switch b {
		case SpecialMarker:
			d.out = append(d.out, SpecialMarker)
			d.state = stateLiteral
		case DefaultInstrumentTag:
			d.state = stateDefaultInstrCount
		case DefaultWaveTag:
			d.state = stateDefaultWaveCount
		default:
			return errs.Decode.WithFormat("didn't expect special instruction byte 0x%02x while decompressing", b)
		}

	case stateDefaultInstrCount:
		for range int(b) {
			d.out = append(d.out, DefaultInstrument[:]...)
		}
		d.state = stateLiteral

	case stateDefaultWaveCount:
		for range int(b) {
			d.out = append(d.out, DefaultWave[:]...)
		}
		d.state = stateLiteral

	default:
		panic(fmt.Sprintf("decoder reached invalid %s", d.state))
	}

	return nil
}

// Decompress expands a merged compressed stream. Ending anywhere but
// between two commands is an errs.Decode error, as is any special marker
// command other than a default run or an escaped marker.
func Decompress(compressed []byte) ([]byte, error) {
	return DecompressWithHint(compressed, len(compressed)*4)
}

// DecompressWithHint is Decompress with a capacity hint for the output.
func DecompressWithHint(compressed []byte, sizeHint int) ([]byte, error) {

	d := decoder{
		state: stateLiteral,
		out:   make([]byte, 0, sizeHint),
	}

	for offset, b := range compressed {
		if err := d.step(b); err != nil {
			return nil, err.AtOffset(offset)
		}
	}

	if d.state != stateLiteral {
		return nil, errs.Decode.
			WithFormat("stream truncated in %s state", d.state).
			AtOffset(len(compressed))
	}

	return d.out, nil
}
