// Package container loads and saves .sav files: a preamble, a header block
// and the data blocks holding every project's compressed block chain.
package container

import (
	"log/slog"
	"sync"

	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/io"
	"github.com/dot5enko/lsdsav/project"
	"github.com/dot5enko/lsdsav/schema"
)

type Container struct {
	config Config
	log    *slog.Logger

	preamble []byte
	header   *schema.Header
	projects [schema.NumSlots]*project.Project

	// image is the packed file for the current projects, nil when it has to
	// be rebuilt.
	image []byte

	progressMu sync.Mutex
}

// New returns a container with no projects and a zeroed preamble.
func New(config Config) *Container {
	config = config.withDefaults()

	return &Container{
		config:   config,
		log:      config.Logger,
		preamble: make([]byte, schema.PreambleSize),
		header:   schema.NewHeader(),
	}
}

// Load reads and parses the container at path.
func Load(path string, config Config) (*Container, error) {
	image, err := io.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(image, config)
}

// Save packs the projects and writes the container to path.
func (c *Container) Save(path string) error {
	image, err := c.Bytes()
	if err != nil {
		return err
	}

	return io.WriteFile(path, image)
}

// Bytes returns the packed container, always schema.ContainerSize bytes.
func (c *Container) Bytes() ([]byte, error) {
	if c.image == nil {
		if err := c.repack(); err != nil {
			return nil, err
		}
	}

	return append([]byte(nil), c.image...), nil
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= schema.NumSlots {
		return errs.InvalidArgument.WithFormat("slot %d out of range 0..%d", slot, schema.NumSlots-1)
	}
	return nil
}

// Project returns a copy of the project in slot.
func (c *Container) Project(slot int) (*project.Project, bool) {
	if checkSlot(slot) != nil || c.projects[slot] == nil {
		return nil, false
	}
	return c.projects[slot].Clone(), true
}

// Projects returns copies of all projects, indexed by slot. Empty slots are
// nil.
func (c *Container) Projects() [schema.NumSlots]*project.Project {
	var result [schema.NumSlots]*project.Project
	for slot, p := range c.projects {
		if p != nil {
			result[slot] = p.Clone()
		}
	}
	return result
}

// SetProject stores p in slot and repacks. If the projects no longer fit
// the container is left as it was.
func (c *Container) SetProject(slot int, p *project.Project) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	if err := p.Validate(); err != nil {
		return errs.WithSlot(err, slot)
	}

	return c.replace(slot, p.Clone())
}

// RemoveProject empties slot and repacks. Removing the active project
// clears the active slot.
func (c *Container) RemoveProject(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	if c.projects[slot] == nil {
		return nil
	}

	if err := c.replace(slot, nil); err != nil {
		return err
	}

	if int(c.header.ActiveSlot) == slot {
		c.header.ActiveSlot = schema.NoActiveSlot
		c.image = nil
	}

	return nil
}

func (c *Container) replace(slot int, p *project.Project) error {
	previous := c.projects[slot]
	c.projects[slot] = p

	if err := c.repack(); err != nil {
		c.projects[slot] = previous
		return err
	}

	return nil
}

// ActiveSlot is the slot the device has loaded into working memory.
func (c *Container) ActiveSlot() (int, bool) {
	if c.header.ActiveSlot == schema.NoActiveSlot {
		return 0, false
	}
	return int(c.header.ActiveSlot), true
}

func (c *Container) SetActiveSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	if c.projects[slot] == nil {
		return errs.InvalidArgument.With("cannot activate an empty slot").AtSlot(slot)
	}

	c.header.ActiveSlot = uint8(slot)
	c.image = nil

	return nil
}

// FreeBlocks counts the data blocks no project used in the last packing
// (or in the loaded file).
func (c *Container) FreeBlocks() int {
	return schema.NumDataBlocks - c.header.BAT.Used()
}

// Preamble is the working memory copy that precedes the header block.
func (c *Container) Preamble() []byte {
	return c.preamble
}

func (c *Container) progress(slot int) {
	if c.config.Progress == nil {
		return
	}

	c.progressMu.Lock()
	defer c.progressMu.Unlock()

	c.config.Progress(slot)
}

// CompressAndStoreProject replaces the bytes of slot with raw and repacks.
// An occupied slot keeps its name and version.
func (c *Container) CompressAndStoreProject(slot int, raw []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	var name string
	var version uint8
	if current := c.projects[slot]; current != nil {
		name, version = current.Name, current.Version
	}

	p, err := project.New(name, version, append([]byte(nil), raw...))
	if err != nil {
		return errs.WithSlot(err, slot)
	}

	return c.replace(slot, p)
}
