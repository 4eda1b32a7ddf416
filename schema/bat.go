package schema

import (
	"slices"

	"github.com/dot5enko/lsdsav/block"
	"github.com/dot5enko/lsdsav/errs"
)

// BAT is the block allocation table: entry i holds the owning slot of data
// block i+1, or EmptyBlock.
type BAT [NumDataBlocks]uint8

func NewBAT() BAT {
	var b BAT
	b.Clear()
	return b
}

func (b *BAT) Clear() {
	for i := range b {
		b[i] = EmptyBlock
	}
}

func batIndex(id block.ID) (int, bool) {
	idx := int(id) - FirstDataBlockID
	return idx, idx >= 0 && idx < NumDataBlocks
}

// Owner returns the slot owning block id.
func (b *BAT) Owner(id block.ID) (slot int, ok bool) {
	idx, inRange := batIndex(id)
	if !inRange || b[idx] == EmptyBlock {
		return 0, false
	}
	return int(b[idx]), true
}

func (b *BAT) Assign(id block.ID, slot int) error {
	idx, inRange := batIndex(id)
	if !inRange {
		return errs.InvalidArgument.WithFormat("block %d is not a data block", id)
	}
	if slot < 0 || slot >= NumSlots {
		return errs.InvalidArgument.WithFormat("slot %d out of range", slot)
	}

	b[idx] = uint8(slot)
	return nil
}

// Validate checks that every entry is either empty or a valid slot.
func (b *BAT) Validate() error {
	for idx, owner := range b {
		if owner != EmptyBlock && owner >= NumSlots {
			return errs.CorruptContainer.
				WithFormat("slot 0x%x for block 0x%x out of range", owner, idx+FirstDataBlockID).
				AtOffset(BATOffset + idx)
		}
	}
	return nil
}

// Group returns, per owning slot, the ids of the blocks it owns in
// ascending order.
func (b *BAT) Group() map[int][]block.ID {
	result := map[int][]block.ID{}

	for idx, owner := range b {
		if owner == EmptyBlock {
			continue
		}
		result[int(owner)] = append(result[int(owner)], block.ID(idx+FirstDataBlockID))
	}

	for _, ids := range result {
		slices.Sort(ids)
	}

	return result
}

// Used counts the non-empty entries.
func (b *BAT) Used() int {
	used := 0
	for _, owner := range b {
		if owner != EmptyBlock {
			used++
		}
	}
	return used
}
