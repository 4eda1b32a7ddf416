// Package codec implements the run-length / default-template compression
// used for project data inside a save container.
package codec

const (
	// RLEMarker introduces a run (marker, value, count) or, doubled, a
	// literal marker byte.
	RLEMarker = 0xc0

	// SpecialMarker introduces a default-template run, a literal special
	// byte when doubled, and at block level a next-block pointer or EOF.
	SpecialMarker = 0xe0

	DefaultWaveTag       = 0xf0
	DefaultInstrumentTag = 0xf1

	// EOFTag after SpecialMarker terminates a block chain.
	EOFTag = 0xff

	// MaxRun is the longest run a single count byte can express.
	MaxRun = 0xff
)

func IsDefaultTag(b byte) bool {
	return b == DefaultInstrumentTag || b == DefaultWaveTag
}

type CommandKind uint8

const (
	Literal CommandKind = iota
	// EscapedRLE is RLEMarker, RLEMarker.
	EscapedRLE
	// Run is RLEMarker, value, count.
	Run
	// EscapedSpecial is SpecialMarker, SpecialMarker.
	EscapedSpecial
	// DefaultRun is SpecialMarker, default tag, count.
	DefaultRun
	// Control is SpecialMarker followed by anything else: a block pointer
	// or EOFTag. It never appears in a merged stream.
	Control
	// Truncated is a marker with nothing after it.
	Truncated
)

func (k CommandKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case EscapedRLE:
		return "escaped rle marker"
	case Run:
		return "run"
	case EscapedSpecial:
		return "escaped special marker"
	case DefaultRun:
		return "default run"
	case Control:
		return "control"
	case Truncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// NextCommand classifies the command starting at stream[i] and returns its
// width in bytes. The width of a Run or DefaultRun may exceed what is left
// in the stream; callers check that. Control has width 2, Truncated 1.
func NextCommand(stream []byte, i int) (kind CommandKind, width int) {
	current := stream[i]

	if current != RLEMarker && current != SpecialMarker {
		return Literal, 1
	}

	if i+1 >= len(stream) {
		return Truncated, 1
	}

	next := stream[i+1]

	if current == RLEMarker {
		if next == RLEMarker {
			return EscapedRLE, 2
		}
		return Run, 3
	}

	switch {
	case next == SpecialMarker:
		return EscapedSpecial, 2
	case IsDefaultTag(next):
		return DefaultRun, 3
	default:
		return Control, 2
	}
}
