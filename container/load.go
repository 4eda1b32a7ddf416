package container

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/lsdsav/block"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/project"
	"github.com/dot5enko/lsdsav/schema"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
)

// Parse decodes a whole container image. Any corrupt project fails the
// whole load and nothing is returned.
func Parse(image []byte, config Config) (*Container, error) {

	config = config.withDefaults()

	started := time.Now()

	header, store, err := parseHeader(image)
	if err != nil {
		return nil, err
	}

	log := config.Logger.With("session", store.Uid.String())

	c := &Container{
		config:   config,
		log:      log,
		preamble: append([]byte(nil), image[:schema.PreambleSize]...),
		header:   header,
	}

	groups := header.BAT.Group()
	slots := maps.Keys(groups)
	slices.Sort(slots)

	var g errgroup.Group
	g.SetLimit(config.Workers)

	for _, slot := range slots {
		ids := groups[slot]

		g.Go(func() error {
			p, decodeErr := decodeSlot(store, header, slot, ids, log)
			if decodeErr != nil {
				return decodeErr
			}

			c.projects[slot] = p
			c.progress(slot)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("unable to load container", "error", err)
		return nil, err
	}

	log.Info("loaded container",
		"projects", len(slots),
		"free_blocks", c.FreeBlocks(),
		"took", time.Since(started),
	)

	return c, nil
}

// DecompressProject decodes the project stored in slot of a container
// image without loading the other projects.
func DecompressProject(image []byte, slot int) ([]byte, error) {

	if err := checkSlot(slot); err != nil {
		return nil, err
	}

	header, store, err := parseHeader(image)
	if err != nil {
		return nil, err
	}

	ids := header.BAT.Group()[slot]
	if len(ids) == 0 {
		return nil, errs.InvalidArgument.With("slot is empty").AtSlot(slot)
	}

	p, err := decodeSlot(store, header, slot, ids, slog.Default())
	if err != nil {
		return nil, err
	}

	return p.Data, nil
}

func parseHeader(image []byte) (*schema.Header, *block.Store, error) {

	if len(image) != schema.ContainerSize {
		return nil, nil, errs.CorruptContainer.WithFormat("container is 0x%x bytes, expected 0x%x", len(image), schema.ContainerSize)
	}

	blockData := image[schema.PreambleSize:]

	header := schema.NewHeader()
	if err := header.FromBytes(bytes.NewReader(blockData[:schema.BlockSize])); err != nil {
		var e *errs.Error
		if errors.As(err, &e) && e.Offset >= 0 {
			e.Offset += schema.PreambleSize
		}
		return nil, nil, err
	}

	if header.ActiveSlot != schema.NoActiveSlot && int(header.ActiveSlot) >= schema.NumSlots {
		return nil, nil, errs.CorruptContainer.
			WithFormat("active slot 0x%x out of range", header.ActiveSlot).
			AtOffset(schema.PreambleSize + schema.ActiveSlotOffset)
	}

	store, err := block.LoadStore(blockData, schema.BlockSize)
	if err != nil {
		return nil, nil, errs.CorruptContainer.Wrap(err)
	}

	return header, store, nil
}

func decodeSlot(store *block.Store, header *schema.Header, slot int, ids []block.ID, log *slog.Logger) (*project.Project, error) {

	blocks, err := store.Blocks(ids)
	if err != nil {
		return nil, errs.CorruptContainer.WithFormat("unable to collect blocks: %w", err).AtSlot(slot)
	}

	compressed, err := block.Merge(blocks)
	if err != nil {
		if log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("corrupt block chain", "slot", slot, "blocks", ids, "dump", spew.Sdump(blocks))
		}
		return nil, errs.CorruptContainer.WithFormat("unable to merge block chain: %w", err).AtSlot(slot)
	}

	p, err := project.FromCompressed(header.Names[slot], header.Versions[slot], compressed)
	if err != nil {
		if log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("corrupt project stream", "slot", slot, "dump", spew.Sdump(compressed))
		}
		return nil, errs.CorruptContainer.WithFormat("unable to decompress project: %w", err).AtSlot(slot)
	}

	p.SizeBlocks = len(ids)

	log.Debug("decoded project", "slot", slot, "name", p.Name, "blocks", len(ids), "compressed", len(compressed))

	return p, nil
}
