package project

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dot5enko/lsdsav/bits"
	"github.com/dot5enko/lsdsav/compression"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/schema"
)

// Raw dumps hold the uncompressed project behind the same name/version
// prefix as .lsdsng files, framed with lz4 instead of the container codec.
// They are meant for inspecting and diffing project bytes.

func (p *Project) WriteRawDump(output io.Writer) error {

	if err := p.Validate(); err != nil {
		return err
	}

	bw := bits.NewEncodeBuffer(make([]byte, lsdsngHeaderSize))
	if err := bw.PutFixedString(p.Name, schema.NameLength); err != nil {
		return errs.InvalidArgument.Wrap(err)
	}
	bw.WriteByte(p.Version)

	var out bytes.Buffer
	out.Write(bw.Bytes())

	if err := compression.CompressLz4(p.Data, &out); err != nil {
		return fmt.Errorf("unable to compress project %q: %w", p.Name, err)
	}

	_, err := output.Write(out.Bytes())
	return err
}

func ReadRawDump(input io.Reader) (*Project, error) {

	reader := bits.NewReader(input)

	name, err := reader.ReadFixedString(schema.NameLength)
	if err != nil {
		return nil, errs.Decode.WithFormat("unable to read project name: %w", err)
	}

	version, err := reader.ReadU8()
	if err != nil {
		return nil, errs.Decode.WithFormat("unable to read project version: %w", err)
	}

	data, err := compression.DecompressLz4(input, schema.ProjectSize)
	if err != nil {
		return nil, errs.Decode.WithFormat("unable to read project data: %w", err).AtOffset(lsdsngHeaderSize)
	}

	return &Project{
		Name:    name,
		Version: version,
		Data:    data,
	}, nil
}
