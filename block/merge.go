package block

import (
	"slices"

	"github.com/dot5enko/lsdsav/codec"
	"github.com/dot5enko/lsdsav/errs"
	"golang.org/x/exp/maps"
)

// Merge rebuilds a compressed stream from the blocks of one project by
// following the trailing pointers.
//
// The chain starts at the lowest id: writers allocate a project's blocks
// in chain order, so the first allocated block has the smallest id. Every
// block in blocks must be reached exactly once.
func Merge(blocks map[ID]*Block) ([]byte, error) {

	if len(blocks) == 0 {
		return nil, errs.Decode.With("no blocks to merge")
	}

	ids := maps.Keys(blocks)
	slices.Sort(ids)
	current := ids[0]

	visited := make(map[ID]bool, len(blocks))

	var compressed []byte

	for {
		b, ok := blocks[current]
		if !ok {
			return nil, errs.Decode.WithFormat("chain switches to block %d which is not part of the project", current)
		}

		if visited[current] {
			return nil, errs.Decode.WithFormat("chain loops back to block %d", current)
		}
		visited[current] = true

		end, next, eof, found := scanSegment(b.Data)
		if !found {
			return nil, errs.Decode.
				WithFormat("ran off the end of block %d without encountering a block switch or EOF", current).
				AtOffset(len(b.Data))
		}

		compressed = append(compressed, b.Data[:end]...)

		if eof {
			break
		}

		current = next
	}

	if len(visited) != len(blocks) {
		return nil, errs.Decode.WithFormat("%d of %d blocks are not reachable from block %d", len(blocks)-len(visited), len(blocks), ids[0])
	}

	return compressed, nil
}

// scanSegment finds the trailing control command of a block. Default runs
// and escaped markers are skipped over.
func scanSegment(data []byte) (end int, next ID, eof bool, found bool) {

	i := 0
	for i < len(data)-1 {
		kind, width := codec.NextCommand(data, i)

		if kind == codec.Control {
			if data[i+1] == codec.EOFTag {
				return i, 0, true, true
			}
			return i, ID(data[i+1]), false, true
		}

		i += width
	}

	return 0, 0, false, false
}
