package container

import (
	"bytes"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dot5enko/lsdsav/codec"
	"github.com/dot5enko/lsdsav/errs"
	"github.com/dot5enko/lsdsav/project"
	"github.com/dot5enko/lsdsav/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Workers: 4,
	}
}

func sampleProject(t *testing.T, name string, seed int64) *project.Project {
	t.Helper()

	rnd := rand.New(rand.NewSource(seed))

	data := make([]byte, schema.ProjectSize)
	for i := 0; i < 0x1000; i++ {
		if rnd.Intn(16) == 0 {
			data[i] = byte(rnd.Intn(256))
		}
	}
	for off := codec.InstrRegionStart; off < codec.InstrRegionEnd; off += codec.ChunkSize {
		copy(data[off:], codec.DefaultInstrument[:])
	}
	for off := codec.WaveRegionStart; off < codec.WaveRegionEnd; off += codec.ChunkSize {
		copy(data[off:], codec.DefaultWave[:])
	}

	p, err := project.New(name, uint8(seed), data)
	require.NoError(t, err)

	return p
}

func noiseProject(t *testing.T, seed int64) *project.Project {
	t.Helper()

	data := make([]byte, schema.ProjectSize)
	rand.New(rand.NewSource(seed)).Read(data)

	p, err := project.New("NOISE", 0, data)
	require.NoError(t, err)

	return p
}

// chainBlocks lists the block ids the image's allocation table gives slot.
func chainBlocks(image []byte, slot int) []int {
	var ids []int
	for i := range schema.NumDataBlocks {
		if int(image[schema.PreambleSize+schema.BATOffset+i]) == slot {
			ids = append(ids, i+schema.FirstDataBlockID)
		}
	}
	return ids
}

func TestEmptyContainer(t *testing.T) {

	c := New(testConfig())

	image, err := c.Bytes()
	require.NoError(t, err)
	require.Len(t, image, schema.ContainerSize)

	initCheck := image[schema.PreambleSize+schema.InitCheckOffset:][:2]
	require.Equal(t, []byte("jk"), initCheck)

	loaded, err := Parse(image, testConfig())
	require.NoError(t, err)
	require.Equal(t, schema.NumDataBlocks, loaded.FreeBlocks())

	_, ok := loaded.ActiveSlot()
	require.False(t, ok)

	for _, p := range loaded.Projects() {
		require.Nil(t, p)
	}
}

func TestRoundTripPreservesSlots(t *testing.T) {

	c := New(testConfig())

	projects := map[int]*project.Project{
		0:  sampleProject(t, "FIRST", 1),
		5:  sampleProject(t, "MIDDLE", 2),
		31: sampleProject(t, "LAST", 3),
	}

	for slot, p := range projects {
		require.NoError(t, c.SetProject(slot, p))
	}
	require.NoError(t, c.SetActiveSlot(5))

	image, err := c.Bytes()
	require.NoError(t, err)

	loaded, err := Parse(image, testConfig())
	require.NoError(t, err)

	for slot, stored := range loaded.Projects() {
		expected, ok := projects[slot]
		if !ok {
			require.Nil(t, stored, "slot %d", slot)
			continue
		}

		require.NotNil(t, stored, "slot %d", slot)
		require.Equal(t, expected.Name, stored.Name)
		require.Equal(t, expected.Version, stored.Version)
		require.True(t, bytes.Equal(expected.Data, stored.Data), "slot %d data differs", slot)
		require.Equal(t, len(chainBlocks(image, slot)), stored.SizeBlocks)
	}

	active, ok := loaded.ActiveSlot()
	require.True(t, ok)
	require.Equal(t, 5, active)

	require.Equal(t, c.FreeBlocks(), loaded.FreeBlocks())

	again, err := loaded.Bytes()
	require.NoError(t, err)
	require.Equal(t, image, again)
}

func TestChainsAreAllocatedInSlotOrder(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(9, sampleProject(t, "B", 2)))
	require.NoError(t, c.SetProject(2, sampleProject(t, "A", 1)))

	image, err := c.Bytes()
	require.NoError(t, err)

	first := chainBlocks(image, 2)
	second := chainBlocks(image, 9)

	require.Equal(t, schema.FirstDataBlockID, first[0])
	require.Equal(t, first[len(first)-1]+1, second[0])
}

func TestPreambleAndReservedArePreserved(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(1, sampleProject(t, "P", 1)))

	image, err := c.Bytes()
	require.NoError(t, err)

	rand.New(rand.NewSource(9)).Read(image[:schema.PreambleSize])
	for i := range schema.ReservedLength {
		image[schema.PreambleSize+schema.ReservedOffset+i] = byte(i + 1)
	}

	loaded, err := Parse(image, testConfig())
	require.NoError(t, err)

	// force a repack
	require.NoError(t, loaded.SetProject(2, sampleProject(t, "Q", 2)))

	repacked, err := loaded.Bytes()
	require.NoError(t, err)

	require.Equal(t, image[:schema.PreambleSize], repacked[:schema.PreambleSize])

	reserved := schema.PreambleSize + schema.ReservedOffset
	require.Equal(t, image[reserved:reserved+schema.ReservedLength], repacked[reserved:reserved+schema.ReservedLength])
}

func TestCorruptInitCheck(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(0, sampleProject(t, "P", 1)))

	image, err := c.Bytes()
	require.NoError(t, err)

	image[schema.PreambleSize+schema.InitCheckOffset] = 'x'

	loaded, err := Parse(image, testConfig())
	require.Nil(t, loaded)
	require.ErrorIs(t, err, errs.CorruptContainer)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, schema.PreambleSize+schema.InitCheckOffset, e.Offset)

	_, err = DecompressProject(image, 0)
	require.ErrorIs(t, err, errs.CorruptContainer)
}

func TestCorruptChainAbortsLoad(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(0, sampleProject(t, "GOOD", 1)))
	require.NoError(t, c.SetProject(3, sampleProject(t, "BAD", 2)))

	image, err := c.Bytes()
	require.NoError(t, err)

	// no terminator and no pointer left in the chain head
	head := chainBlocks(image, 3)[0]
	start := schema.PreambleSize + head*schema.BlockSize
	copy(image[start:start+schema.BlockSize], bytes.Repeat([]byte{1}, schema.BlockSize))

	loaded, err := Parse(image, testConfig())
	require.Nil(t, loaded)
	require.ErrorIs(t, err, errs.CorruptContainer)
	require.ErrorIs(t, err, errs.Decode)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 3, e.Slot)

	// the intact project is still readable on its own
	data, err := DecompressProject(image, 0)
	require.NoError(t, err)
	require.Len(t, data, schema.ProjectSize)
}

func TestBadAllocationTable(t *testing.T) {

	image, err := New(testConfig()).Bytes()
	require.NoError(t, err)

	image[schema.PreambleSize+schema.BATOffset+4] = schema.NumSlots

	_, err = Parse(image, testConfig())
	require.ErrorIs(t, err, errs.CorruptContainer)
}

func TestBadActiveSlot(t *testing.T) {

	image, err := New(testConfig()).Bytes()
	require.NoError(t, err)

	image[schema.PreambleSize+schema.ActiveSlotOffset] = schema.NumSlots

	_, err = Parse(image, testConfig())
	require.ErrorIs(t, err, errs.CorruptContainer)
}

func TestWrongLength(t *testing.T) {

	_, err := Parse(make([]byte, 100), testConfig())
	require.ErrorIs(t, err, errs.CorruptContainer)
}

func TestLengthIsConstant(t *testing.T) {

	c := New(testConfig())

	for slot := range 4 {
		require.NoError(t, c.SetProject(slot, sampleProject(t, "S", int64(slot))))

		image, err := c.Bytes()
		require.NoError(t, err)
		require.Len(t, image, schema.ContainerSize)
	}

	require.NoError(t, c.RemoveProject(1))

	image, err := c.Bytes()
	require.NoError(t, err)
	require.Len(t, image, schema.ContainerSize)
	require.Empty(t, chainBlocks(image, 1))
}

func TestFullContainerIsLeftUnchanged(t *testing.T) {

	c := New(testConfig())

	var slot int
	var err error
	for slot = 0; slot < schema.NumSlots; slot++ {
		err = c.SetProject(slot, noiseProject(t, int64(slot)))
		if err != nil {
			break
		}
	}

	require.ErrorIs(t, err, errs.StoreFull)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, slot, e.Slot)

	_, ok := c.Project(slot)
	require.False(t, ok)

	image, err := c.Bytes()
	require.NoError(t, err)

	loaded, err := Parse(image, testConfig())
	require.NoError(t, err)

	for i := range slot {
		_, ok := loaded.Project(i)
		require.True(t, ok, "slot %d", i)
	}
}

func TestDecompressProject(t *testing.T) {

	p := sampleProject(t, "ONE", 4)

	c := New(testConfig())
	require.NoError(t, c.SetProject(7, p))

	image, err := c.Bytes()
	require.NoError(t, err)

	data, err := DecompressProject(image, 7)
	require.NoError(t, err)
	require.True(t, bytes.Equal(p.Data, data))

	_, err = DecompressProject(image, 6)
	require.ErrorIs(t, err, errs.InvalidArgument)

	_, err = DecompressProject(image, schema.NumSlots)
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestCompressAndStoreProject(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(2, sampleProject(t, "KEEP", 5)))

	raw := sampleProject(t, "", 6).Data
	require.NoError(t, c.CompressAndStoreProject(2, raw))

	stored, ok := c.Project(2)
	require.True(t, ok)
	require.Equal(t, "KEEP", stored.Name)
	require.Equal(t, uint8(5), stored.Version)
	require.True(t, bytes.Equal(raw, stored.Data))

	err := c.CompressAndStoreProject(2, raw[:10])
	require.ErrorIs(t, err, errs.InvalidArgument)
}

func TestActiveSlot(t *testing.T) {

	c := New(testConfig())

	require.ErrorIs(t, c.SetActiveSlot(0), errs.InvalidArgument)

	require.NoError(t, c.SetProject(0, sampleProject(t, "A", 1)))
	require.NoError(t, c.SetActiveSlot(0))

	require.NoError(t, c.RemoveProject(0))

	_, ok := c.ActiveSlot()
	require.False(t, ok)
}

func TestProgressIsReportedPerProject(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(1, sampleProject(t, "A", 1)))
	require.NoError(t, c.SetProject(4, sampleProject(t, "B", 2)))

	image, err := c.Bytes()
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[int]int{}

	config := testConfig()
	config.Progress = func(slot int) {
		mu.Lock()
		seen[slot]++
		mu.Unlock()
	}

	_, err = Parse(image, config)
	require.NoError(t, err)
	require.Equal(t, map[int]int{1: 1, 4: 1}, seen)
}

func TestSaveAndLoad(t *testing.T) {

	path := filepath.Join(t.TempDir(), "test.sav")

	c := New(testConfig())
	require.NoError(t, c.SetProject(3, sampleProject(t, "DISK", 8)))
	require.NoError(t, c.Save(path))

	loaded, err := Load(path, testConfig())
	require.NoError(t, err)

	p, ok := loaded.Project(3)
	require.True(t, ok)
	require.Equal(t, "DISK", p.Name)
}

func TestProjectAccessorsReturnCopies(t *testing.T) {

	c := New(testConfig())
	require.NoError(t, c.SetProject(0, sampleProject(t, "A", 1)))

	p, _ := c.Project(0)
	p.Data[0] ^= 0xff

	stored, _ := c.Project(0)
	require.NotEqual(t, p.Data[0], stored.Data[0])
}

func BenchmarkParse(b *testing.B) {

	c := New(Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rnd := rand.New(rand.NewSource(1))
	for slot := range 8 {
		data := make([]byte, schema.ProjectSize)
		for i := 0; i < 0x2000; i++ {
			if rnd.Intn(8) == 0 {
				data[i] = byte(rnd.Intn(256))
			}
		}
		p, _ := project.New("BENCH", 0, data)
		c.SetProject(slot, p)
	}

	image, _ := c.Bytes()

	for b.Loop() {
		Parse(image, Config{Logger: c.log})
	}
}

func TestMarkerHeavyProjectsRoundTrip(t *testing.T) {

	fill := func(pattern ...byte) []byte {
		data := make([]byte, schema.ProjectSize)
		for i := range data {
			data[i] = pattern[i%len(pattern)]
		}
		return data
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"rle markers", fill(codec.RLEMarker)},
		{"special markers", fill(codec.SpecialMarker)},
		{"alternating markers", fill(codec.SpecialMarker, codec.RLEMarker)},
		{"default tag bytes", fill(codec.DefaultInstrumentTag)},
	}

	for slot, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := project.New("MARKERS", 0, tc.data)
			require.NoError(t, err)

			c := New(testConfig())
			require.NoError(t, c.SetProject(slot, p))

			image, err := c.Bytes()
			require.NoError(t, err)

			loaded, err := Parse(image, testConfig())
			require.NoError(t, err)

			stored, ok := loaded.Project(slot)
			require.True(t, ok)
			require.True(t, bytes.Equal(tc.data, stored.Data), "data differs")
			require.Equal(t, len(chainBlocks(image, slot)), stored.SizeBlocks)
		})
	}
}

func TestSingleWorkerLoadsInSlotOrder(t *testing.T) {

	c := New(testConfig())
	for _, slot := range []int{9, 1, 4} {
		require.NoError(t, c.SetProject(slot, sampleProject(t, "S", int64(slot))))
	}

	image, err := c.Bytes()
	require.NoError(t, err)

	var order []int

	config := testConfig()
	config.Workers = 1
	config.Progress = func(slot int) {
		order = append(order, slot)
	}

	_, err = Parse(image, config)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 9}, order)
}

func TestLogLinesCarryStoreSession(t *testing.T) {

	var logs bytes.Buffer

	config := testConfig()
	config.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	c := New(config)
	require.NoError(t, c.SetProject(0, sampleProject(t, "A", 1)))

	image, err := c.Bytes()
	require.NoError(t, err)

	_, err = Parse(image, config)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "packed container")
	require.Contains(t, lines[1], "loaded container")

	sessions := map[string]bool{}
	for _, line := range lines {
		idx := strings.Index(line, "session=")
		require.GreaterOrEqual(t, idx, 0, line)

		id, err := uuid.Parse(strings.Fields(line[idx+len("session="):])[0])
		require.NoError(t, err)
		require.Equal(t, uuid.Version(7), id.Version())

		sessions[id.String()] = true
	}

	require.Len(t, sessions, 2)
}
