package schema

// Container file
//
// *--------------------------------*  0x00000
// | preamble (working song memory) |
// *--------------------------------*  0x08000
// | header block (block 0)         |
// *--------------------------------*  0x08200
// | data blocks 1 ... 0xbf         |
// *--------------------------------*  0x20000

const (
	BlockSize    = 0x200
	PreambleSize = 0x8000

	// NumSlots is the number of project slots in a container.
	NumSlots = 0x20

	// NumBlocks counts every block including the header block.
	NumBlocks = 0xc0

	// NumDataBlocks is the number of BAT entries.
	NumDataBlocks = NumBlocks - 1

	HeaderBlockID    = 0
	FirstDataBlockID = 1

	ContainerSize = PreambleSize + NumBlocks*BlockSize

	// EmptyBlock marks a BAT entry that no project owns.
	EmptyBlock = 0xff
)

// Header block
//
// *--------------------------------*  0x000
// | project names, 32 x 8          |
// *--------------------------------*  0x100
// | project versions, 32 x 1       |
// *--------------------------------*  0x120
// | reserved                       |
// *--------------------------------*  0x13e
// | init check "jk"                |
// *--------------------------------*  0x140
// | active project slot            |
// *--------------------------------*  0x141
// | block allocation table, 191    |
// *--------------------------------*  0x200

const (
	NameLength = 8

	NamesOffset      = 0x000
	VersionsOffset   = NamesOffset + NumSlots*NameLength
	ReservedOffset   = VersionsOffset + NumSlots
	InitCheckOffset  = 0x13e
	ActiveSlotOffset = 0x140
	BATOffset        = 0x141

	ReservedLength  = InitCheckOffset - ReservedOffset
	InitCheckLength = 2

	// NoActiveSlot is stored when no project is loaded on the device.
	NoActiveSlot = 0xff
)

// InitCheck is the two byte value that marks initialized save memory.
var InitCheck = [InitCheckLength]byte{'j', 'k'}

// ProjectSize is the length of one decompressed project.
const ProjectSize = 0x8000
