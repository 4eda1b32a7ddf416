package schema

import (
	"fmt"
	"io"

	"github.com/dot5enko/lsdsav/bits"
	"github.com/dot5enko/lsdsav/errs"
)

// Header is the content of block 0.
type Header struct {
	Names    [NumSlots]string
	Versions [NumSlots]uint8

	// preserved verbatim
	Reserved [ReservedLength]byte

	InitCheck  [InitCheckLength]byte
	ActiveSlot uint8

	BAT BAT
}

func NewHeader() *Header {
	return &Header{
		InitCheck:  InitCheck,
		ActiveSlot: NoActiveSlot,
		BAT:        NewBAT(),
	}
}

// FromBytes parses a header block. A wrong init check or an out of range
// BAT entry is reported as errs.CorruptContainer.
func (header *Header) FromBytes(input io.Reader) (topErr error) {

	reader := bits.NewReader(input)

	for slot := range header.Names {
		header.Names[slot], topErr = reader.ReadFixedString(NameLength)
		if topErr != nil {
			return errs.CorruptContainer.WithFormat("unable to decode name of slot %d: %w", slot, topErr).AtOffset(reader.Position())
		}
	}

	topErr = reader.ReadBytes(NumSlots, header.Versions[:])
	if topErr != nil {
		return errs.CorruptContainer.WithFormat("unable to decode project versions: %w", topErr).AtOffset(reader.Position())
	}

	topErr = reader.ReadBytes(ReservedLength, header.Reserved[:])
	if topErr != nil {
		return errs.CorruptContainer.WithFormat("unable to decode reserved area: %w", topErr).AtOffset(reader.Position())
	}

	topErr = reader.ReadBytes(InitCheckLength, header.InitCheck[:])
	if topErr != nil {
		return errs.CorruptContainer.WithFormat("unable to decode init check: %w", topErr).AtOffset(reader.Position())
	}

	if header.InitCheck != InitCheck {
		return errs.CorruptContainer.
			WithFormat("init check should be %q, was %q", InitCheck[:], header.InitCheck[:]).
			AtOffset(InitCheckOffset)
	}

	header.ActiveSlot, topErr = reader.ReadU8()
	if topErr != nil {
		return errs.CorruptContainer.WithFormat("unable to decode active slot: %w", topErr).AtOffset(reader.Position())
	}

	topErr = reader.ReadBytes(NumDataBlocks, header.BAT[:])
	if topErr != nil {
		return errs.CorruptContainer.WithFormat("unable to decode block allocation table: %w", topErr).AtOffset(reader.Position())
	}

	return header.BAT.Validate()
}

// WriteTo serializes the header into buffer, which must hold at least
// BlockSize bytes.
func (header *Header) WriteTo(buffer []byte) (int, error) {
	if len(buffer) < BlockSize {
		return 0, fmt.Errorf("header buffer too small: %d < %d", len(buffer), BlockSize)
	}

	bw := bits.NewEncodeBuffer(buffer[:BlockSize])

	for slot, name := range header.Names {
		if err := bw.PutFixedString(name, NameLength); err != nil {
			return 0, errs.InvalidArgument.WithFormat("slot %d: %w", slot, err).AtSlot(slot)
		}
	}

	bw.Write(header.Versions[:])
	bw.Write(header.Reserved[:])
	bw.Write(header.InitCheck[:])
	bw.WriteByte(header.ActiveSlot)
	bw.Write(header.BAT[:])

	if bw.Position() != BlockSize {
		panic(fmt.Sprintf("header block isn't the expected length; expected 0x%x, got 0x%x", BlockSize, bw.Position()))
	}

	return bw.Position(), nil
}
