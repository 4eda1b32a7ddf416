package container

import (
	"fmt"
	"time"

	"github.com/dot5enko/lsdsav/block"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/schema"
	"golang.org/x/sync/errgroup"
)

// repack compresses every project, lays the chains out in slot order into
// fresh blocks and rebuilds the header. Projects keep their slots. On
// failure the container is unchanged.
func (c *Container) repack() error {

	store, err := block.NewStore(schema.BlockSize, schema.NumBlocks)
	if err != nil {
		return err
	}

	log := c.log.With("session", store.Uid.String())

	started := time.Now()

	var compressed [schema.NumSlots][]byte

	var g errgroup.Group
	g.SetLimit(c.config.Workers)

	for slot, p := range c.projects {
		if p == nil {
			continue
		}

		g.Go(func() error {
			compressed[slot] = p.Compressed()
			c.progress(slot)
			return nil
		})
	}

	g.Wait()

	// block 0 is the header
	if _, err := store.NewBlock(); err != nil {
		return err
	}

	header := *c.header
	header.BAT.Clear()

	var sizes [schema.NumSlots]int

	for slot, p := range c.projects {
		if p == nil {
			header.Names[slot] = ""
			header.Versions[slot] = 0
			continue
		}

		ids, splitErr := block.Split(compressed[slot], schema.BlockSize, store)
		if splitErr != nil {
			log.Warn("projects do not fit the container", "slot", slot, "free_blocks", store.Capacity()-store.Allocated())
			return errs.WithSlot(fmt.Errorf("unable to store project %q: %w", p.Name, splitErr), slot)
		}

		for _, id := range ids {
			if err := header.BAT.Assign(id, slot); err != nil {
				panic(errs.SegmentationInvariant.WithFormat("store handed out block %d outside the allocation table: %w", id, err))
			}
		}

		header.Names[slot] = p.Name
		header.Versions[slot] = p.Version
		sizes[slot] = len(ids)
	}

	image := make([]byte, schema.ContainerSize)
	copy(image, c.preamble)

	if _, err := header.WriteTo(image[schema.PreambleSize:]); err != nil {
		return err
	}

	copy(image[schema.PreambleSize+schema.BlockSize:], store.Span(schema.FirstDataBlockID, schema.NumBlocks))

	c.header = &header
	c.image = image

	for slot, p := range c.projects {
		if p != nil {
			p.SizeBlocks = sizes[slot]
		}
	}

	log.Info("packed container",
		"blocks_used", store.Allocated()-1,
		"free_blocks", c.FreeBlocks(),
		"took", time.Since(started),
	)

	return nil
}
