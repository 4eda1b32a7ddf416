package codec

// ChunkSize is the width of one instrument parameter record and of one wave
// frame.
const ChunkSize = 16

// Regions of a decompressed project that get default-template coalescing.
const (
	InstrRegionStart = 0x3080
	InstrRegionEnd   = 0x3480

	WaveRegionStart = 0x6000
	WaveRegionEnd   = 0x7000
)

// DefaultInstrument is the parameter record of an untouched instrument.
var DefaultInstrument = [ChunkSize]byte{
	0x00, 0xa8, 0x00, 0x00, 0xff, 0x00, 0x00, 0x03,
	0x00, 0x00, 0xd0, 0x00, 0x00, 0xf3, 0x00, 0x00,
}

// DefaultWave is the frame of an untouched wave.
var DefaultWave = [ChunkSize]byte{
	0x8e, 0xcd, 0xcc, 0xbb, 0xaa, 0xa9, 0x99, 0x88,
	0x87, 0x76, 0x66, 0x55, 0x54, 0x43, 0x32, 0x31,
}
