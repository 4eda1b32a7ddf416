package project

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dot5enko/lsdsav/bits"
	"github.com/dot5enko/lsdsav/block"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/schema"
)

// .lsdsng layout
//
//	+------------------+---------+---------------------------+
//	| name (8 bytes)   | version | blocks 1..n (0x200 each)  |
//	+------------------+---------+---------------------------+
//
// The blocks hold the project's compressed stream chained exactly like in a
// container. Ids start at 1, id 0 is never written.
const lsdsngHeaderSize = schema.NameLength + 1

// ReadLsdsng decodes a single-project file.
func ReadLsdsng(input io.Reader) (*Project, error) {

	reader := bits.NewReader(input)

	name, err := reader.ReadFixedString(schema.NameLength)
	if err != nil {
		return nil, errs.Decode.WithFormat("unable to read project name: %w", err)
	}

	version, err := reader.ReadU8()
	if err != nil {
		return nil, errs.Decode.WithFormat("unable to read project version: %w", err)
	}

	payload, err := io.ReadAll(input)
	if err != nil {
		return nil, fmt.Errorf("unable to read project blocks: %w", err)
	}

	if len(payload) == 0 || len(payload)%schema.BlockSize != 0 {
		return nil, errs.Decode.
			WithFormat("block data is 0x%x bytes, not a whole number of 0x%x byte blocks", len(payload), schema.BlockSize).
			AtOffset(lsdsngHeaderSize)
	}

	numBlocks := len(payload) / schema.BlockSize
	if numBlocks+1 > block.MaxIDs {
		return nil, errs.Decode.WithFormat("%d blocks is more than a chain can address", numBlocks)
	}

	// unused block 0 keeps ids aligned with arena positions
	image := make([]byte, schema.BlockSize, schema.BlockSize+len(payload))
	image = append(image, payload...)

	store, err := block.LoadStore(image, schema.BlockSize)
	if err != nil {
		return nil, err
	}

	ids := make([]block.ID, numBlocks)
	for i := range ids {
		ids[i] = block.ID(i + 1)
	}

	blocks, err := store.Blocks(ids)
	if err != nil {
		return nil, err
	}

	compressed, err := block.Merge(blocks)
	if err != nil {
		return nil, err
	}

	p, err := FromCompressed(name, version, compressed)
	if err != nil {
		return nil, err
	}

	p.SizeBlocks = numBlocks

	return p, nil
}

// WriteLsdsng encodes p as a single-project file and returns the number of
// bytes written.
func (p *Project) WriteLsdsng(output io.Writer) (int, error) {

	if err := p.Validate(); err != nil {
		return 0, err
	}

	store, err := block.NewStore(schema.BlockSize, block.MaxIDs)
	if err != nil {
		return 0, err
	}

	// reserve id 0
	if _, err := store.NewBlock(); err != nil {
		return 0, err
	}

	ids, err := block.Split(p.Compressed(), schema.BlockSize, store)
	if err != nil {
		return 0, err
	}

	bw := bits.NewEncodeBuffer(make([]byte, lsdsngHeaderSize))
	if err := bw.PutFixedString(p.Name, schema.NameLength); err != nil {
		return 0, errs.InvalidArgument.Wrap(err)
	}
	bw.WriteByte(p.Version)

	var out bytes.Buffer
	out.Write(bw.Bytes())
	out.Write(store.Span(1, block.ID(store.Allocated())))

	p.SizeBlocks = len(ids)

	n, err := output.Write(out.Bytes())
	if err != nil {
		return n, fmt.Errorf("unable to write project %q: %w", p.Name, err)
	}

	return n, nil
}
