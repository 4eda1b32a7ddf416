// Package project holds a single song's raw bytes and the single-project
// file formats built on the container codec.
package project

import (
	"github.com/dot5enko/lsdsav/codec"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/schema"
)

type Project struct {
	Name    string
	Version uint8

	// Data is the decompressed project, always schema.ProjectSize bytes.
	Data []byte

	// SizeBlocks is how many blocks the project occupied when it was last
	// packed, 0 if it never was.
	SizeBlocks int
}

func New(name string, version uint8, data []byte) (*Project, error) {
	p := &Project{
		Name:    name,
		Version: version,
		Data:    data,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Project) Validate() error {
	if len(p.Name) > schema.NameLength {
		return errs.InvalidArgument.WithFormat("project name %q is longer than %d bytes", p.Name, schema.NameLength)
	}

	if len(p.Data) != schema.ProjectSize {
		return errs.InvalidArgument.WithFormat("project data is 0x%x bytes, expected 0x%x", len(p.Data), schema.ProjectSize)
	}

	return nil
}

// Compressed encodes the project data with the container codec.
func (p *Project) Compressed() []byte {
	return codec.Compress(p.Data)
}

// Clone copies the project including its data.
func (p *Project) Clone() *Project {
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// FromCompressed decodes a merged compressed stream into a project. A length
// other than schema.ProjectSize is reported as errs.CorruptContainer.
func FromCompressed(name string, version uint8, compressed []byte) (*Project, error) {
	raw, err := codec.DecompressWithHint(compressed, schema.ProjectSize)
	if err != nil {
		return nil, err
	}

	if len(raw) != schema.ProjectSize {
		return nil, errs.CorruptContainer.WithFormat("decompressed project is 0x%x bytes, expected 0x%x", len(raw), schema.ProjectSize)
	}

	return &Project{
		Name:    name,
		Version: version,
		Data:    raw,
	}, nil
}
