package block

import (
	"github.com/dot5enko/lsdsav/errs"
	"github.com/google/uuid"
)

// ID identifies a block. Ids are written as single bytes after a special
// marker, so they stay below MaxIDs and cannot read as an escape.
type ID uint8

const MaxIDs = 0xe0

// MinBlockSize leaves room for one two-byte command plus the trailing
// pointer or EOF marker.
const MinBlockSize = 4

type Block struct {
	ID   ID
	Data []byte
}

// Allocator hands out fresh, zeroed blocks with sequential ids.
type Allocator interface {
	NewBlock() (*Block, error)
}

// Store is an arena of fixed-size blocks. The arena is laid out in id
// order, so it is also the serialized form of the blocks.
type Store struct {
	// Uid tags log lines of the load or save the store serves.
	Uid uuid.UUID

	arena     []byte
	blocks    []*Block
	blockSize int

	// next unallocated id
	next int
}

func NewStore(blockSize int, capacity int) (*Store, error) {

	if blockSize < MinBlockSize {
		return nil, errs.InvalidArgument.WithFormat("block size %d is below the minimum of %d", blockSize, MinBlockSize)
	}

	if capacity <= 0 || capacity > MaxIDs {
		return nil, errs.InvalidArgument.WithFormat("store capacity %d out of range 1..%d", capacity, MaxIDs)
	}

	arena := make([]byte, capacity*blockSize)

	uid, _ := uuid.NewV7()

	return &Store{
		Uid:       uid,
		arena:     arena,
		blocks:    make([]*Block, capacity),
		blockSize: blockSize,
	}, nil
}

// LoadStore builds a store whose blocks are all allocated and hold a copy
// of data, which must be a whole number of blocks.
func LoadStore(data []byte, blockSize int) (*Store, error) {

	if blockSize <= 0 || len(data)%blockSize != 0 {
		return nil, errs.InvalidArgument.WithFormat("%d bytes is not a whole number of %d byte blocks", len(data), blockSize)
	}

	s, err := NewStore(blockSize, len(data)/blockSize)
	if err != nil {
		return nil, err
	}

	copy(s.arena, data)

	for range s.Capacity() {
		s.allocate()
	}

	return s, nil
}

func (s *Store) allocate() *Block {
	start := s.next * s.blockSize
	end := start + s.blockSize

	b := &Block{
		ID:   ID(s.next),
		Data: s.arena[start:end:end],
	}

	s.blocks[s.next] = b
	s.next++

	return b
}

// NewBlock allocates the next id.
func (s *Store) NewBlock() (*Block, error) {
	if s.next >= len(s.blocks) {
		return nil, errs.StoreFull.WithFormat("all %d blocks are allocated", len(s.blocks))
	}

	return s.allocate(), nil
}

func (s *Store) Block(id ID) (*Block, bool) {
	if int(id) >= s.next {
		return nil, false
	}
	return s.blocks[id], true
}

// Blocks returns the allocated blocks among ids, keyed by id.
func (s *Store) Blocks(ids []ID) (map[ID]*Block, error) {
	result := make(map[ID]*Block, len(ids))

	for _, id := range ids {
		b, ok := s.Block(id)
		if !ok {
			return nil, errs.InvalidArgument.WithFormat("block %d is not allocated", id)
		}
		result[id] = b
	}

	return result, nil
}

func (s *Store) BlockSize() int {
	return s.blockSize
}

func (s *Store) Capacity() int {
	return len(s.blocks)
}

// Allocated counts allocated blocks.
func (s *Store) Allocated() int {
	return s.next
}

// Bytes is the whole arena, unallocated blocks included as zeroes.
func (s *Store) Bytes() []byte {
	return s.arena
}

// Span returns the arena bytes of blocks [from, to).
func (s *Store) Span(from, to ID) []byte {
	return s.arena[int(from)*s.blockSize : int(to)*s.blockSize]
}
