package metasync_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metasync "github.com/G1enB1and/MediaManagerX"
	"github.com/G1enB1and/MediaManagerX/catalog"
	"github.com/G1enB1and/MediaManagerX/catalog/memory"
	"github.com/G1enB1and/MediaManagerX/data"
	"github.com/G1enB1and/MediaManagerX/log"
)

// spyStore wraps the memory store and counts catalog accesses, so tests
// can prove an operation never touched the catalog.
type spyStore struct {
	catalog.Store
	gets    atomic.Int64
	upserts atomic.Int64
}

func newSpyStore() *spyStore {
	return &spyStore{Store: memory.NewMemoryStore()}
}

func (s *spyStore) Get(ctx context.Context, id data.MediaID) (*data.CatalogRecord, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, id)
}

func (s *spyStore) Upsert(ctx context.Context, record *data.CatalogRecord) error {
	s.upserts.Add(1)
	return s.Store.Upsert(ctx, record)
}

func newTestEngine(t *testing.T, store catalog.Store) *metasync.Engine {
	t.Helper()

	engine, err := metasync.NewEngine(store,
		metasync.WithLogLevel(log.Error),
		metasync.WithoutTerminalLog(),
	)
	require.NoError(t, err)
	require.NoError(t, engine.Open(context.Background()))
	t.Cleanup(func() { engine.Close(context.Background()) })

	return engine
}

// writePNG creates a minimal valid PNG file in dir and returns its path.
func writePNG(t *testing.T, dir string) string {
	t.Helper()

	writeChunk := func(out *bytes.Buffer, typ string, body []byte) {
		var header [8]byte
		binary.BigEndian.PutUint32(header[:4], uint32(len(body)))
		copy(header[4:], typ)
		out.Write(header[:])
		out.Write(body)

		crc := crc32.NewIEEE()
		crc.Write(header[4:])
		crc.Write(body)
		var sum [4]byte
		binary.BigEndian.PutUint32(sum[:], crc.Sum32())
		out.Write(sum[:])
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8
	ihdr[9] = 2

	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	writeChunk(&out, "IHDR", ihdr)
	writeChunk(&out, "IDAT", []byte{0x78, 0x9C, 0x62, 0x00})
	writeChunk(&out, "IEND", nil)

	path := filepath.Join(dir, "test.png")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
	return path
}

// writeJPEG creates a minimal valid JPEG file in dir and returns its
// path. An optional comment is carried in a COM segment.
func writeJPEG(t *testing.T, dir string, comment ...string) string {
	t.Helper()

	var length [2]byte
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8}) // SOI
	jfif := append([]byte("JFIF\x00"), 0x01, 0x02, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00)
	out.Write([]byte{0xFF, 0xE0})
	binary.BigEndian.PutUint16(length[:], uint16(len(jfif)+2))
	out.Write(length[:])
	out.Write(jfif)
	for _, c := range comment {
		out.Write([]byte{0xFF, 0xFE})
		binary.BigEndian.PutUint16(length[:], uint16(len(c)+2))
		out.Write(length[:])
		out.WriteString(c)
	}
	out.Write([]byte{0xFF, 0xDA, 0x00, 0x03, 0x00}) // SOS stub
	out.Write([]byte{0x12, 0x34, 0x56})
	out.Write([]byte{0xFF, 0xD9}) // EOI

	path := filepath.Join(dir, "test.jpg")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o644))
	return path
}

func TestRoundTripBothContainers(t *testing.T) {
	files := map[string]func(*testing.T, string) string{
		"png": writePNG,
		"jpeg": func(t *testing.T, dir string) string {
			return writeJPEG(t, dir)
		},
	}

	for name, write := range files {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			engine := newTestEngine(t, memory.NewMemoryStore())
			path := write(t, t.TempDir())

			bundle := data.MetadataBundle{
				Tags:    []string{"sunset", "beach"},
				Comment: "golden hour",
			}
			require.NoError(t, engine.Embed(ctx, path, bundle))

			snapshot, err := engine.Harvest(ctx, path)
			require.NoError(t, err)
			assert.ElementsMatch(t, bundle.Tags, snapshot.Tags)
			assert.Equal(t, bundle.Comment, snapshot.Comments)
		})
	}
}

func TestImportNeverTouchesCatalog(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	engine := newTestEngine(t, store)
	path := writePNG(t, t.TempDir())

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Tags: []string{"b", "c"}}))

	result, err := engine.Import(ctx, path, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, result.MergedTags)
	assert.Zero(t, store.gets.Load(), "Import must not read the catalog")
	assert.Zero(t, store.upserts.Load(), "Import must not write the catalog")
}

func TestSaveNeverChangesFile(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writePNG(t, t.TempDir())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = engine.Save(ctx, data.NewMediaID(), data.CatalogFields{
		Tags:  []string{"x"},
		Notes: "notes",
	})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEmbedNeverTouchesCatalog(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	engine := newTestEngine(t, store)
	path := writePNG(t, t.TempDir())

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Comment: "hi"}))

	assert.Zero(t, store.gets.Load())
	assert.Zero(t, store.upserts.Load())
}

func TestSaveReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	id := data.NewMediaID()

	first, err := engine.Save(ctx, id, data.CatalogFields{Tags: []string{"a"}, Notes: "keep?"})
	require.NoError(t, err)
	assert.False(t, first.UpdatedAt.IsZero())

	second, err := engine.Save(ctx, id, data.CatalogFields{Tags: []string{"b"}})
	require.NoError(t, err)

	// Replace, not patch: the old notes are gone.
	view, err := engine.Load(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, view.Record.Tags)
	assert.Empty(t, view.Record.Notes)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestIdempotentReimport(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writePNG(t, t.TempDir())

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{
		Tags:    []string{"one", "two"},
		Comment: "stable",
	}))

	first, err := engine.Import(ctx, path, nil)
	require.NoError(t, err)
	second, err := engine.Import(ctx, path, nil)
	require.NoError(t, err)

	assert.True(t, first.Snapshot.Equal(second.Snapshot))
	assert.Equal(t, first.MergedTags, second.MergedTags)
}

func TestDestructiveRewriteClearsStaleData(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writePNG(t, t.TempDir())

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Tags: []string{"x"}}))
	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Tags: []string{"y"}}))

	snapshot, err := engine.Harvest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, snapshot.Tags)
}

func TestScenarioEmptyFileThenEmbed(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	engine := newTestEngine(t, store)
	path := writePNG(t, t.TempDir())

	result, err := engine.Import(ctx, path, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Snapshot.Tags)
	assert.Empty(t, result.Snapshot.Comments)

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Tags: []string{"foo"}}))

	snapshot, err := engine.Harvest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, snapshot.Tags)

	// The catalog stayed untouched through all of it.
	assert.Zero(t, store.upserts.Load())
}

func TestLoadIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	engine := newTestEngine(t, store)
	path := writePNG(t, t.TempDir())

	require.NoError(t, engine.Embed(ctx, path, data.MetadataBundle{Comment: "embedded"}))

	id := data.NewMediaID()
	view, err := engine.Load(ctx, id, path)
	require.NoError(t, err)

	// Unknown identity loads as a zero record, not an error, and no
	// implicit import happens.
	assert.Equal(t, id, view.Record.ID)
	assert.Empty(t, view.Record.Tags)
	assert.Equal(t, "embedded", view.Snapshot.Comments)
	assert.Zero(t, store.upserts.Load())
}

func TestCombinedViewFromCatalogOnly(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	id := data.NewMediaID()

	_, err := engine.Save(ctx, id, data.CatalogFields{
		Notes:    "my notes",
		AIPrompt: "a cat",
	})
	require.NoError(t, err)

	view, err := engine.Load(ctx, id, "")
	require.NoError(t, err)
	assert.Contains(t, view.Combined, "Notes:\nmy notes")
	assert.Contains(t, view.Combined, "AI Prompt:\na cat")
	assert.Nil(t, view.Snapshot)
}

func TestHarvestUnreadableFile(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())

	snapshot, err := engine.Harvest(ctx, filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Tags)
	assert.Empty(t, snapshot.Comments)
}

func TestUnsupportedContainer(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))
	before, _ := os.ReadFile(path)

	_, err := engine.Import(ctx, path, nil)
	assert.ErrorIs(t, err, data.ErrUnsupportedContainer)

	err = engine.Embed(ctx, path, data.MetadataBundle{Comment: "x"})
	assert.ErrorIs(t, err, data.ErrUnsupportedContainer)

	after, _ := os.ReadFile(path)
	assert.Equal(t, before, after, "a failed embed must leave the file untouched")
}

func TestCancelledContextBlocksNewOperations(t *testing.T) {
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writePNG(t, t.TempDir())
	before, _ := os.ReadFile(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Import(ctx, path, nil)
	assert.ErrorIs(t, err, context.Canceled)

	err = engine.Embed(ctx, path, data.MetadataBundle{Comment: "x"})
	assert.ErrorIs(t, err, context.Canceled)

	after, _ := os.ReadFile(path)
	assert.Equal(t, before, after)
}

func TestConcurrentEmbedsAndImportsSerialize(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writePNG(t, t.TempDir())

	bundles := []data.MetadataBundle{
		{Tags: []string{"alpha"}, Comment: "first"},
		{Tags: []string{"beta"}, Comment: "second"},
		{Tags: []string{"gamma"}, Comment: "third"},
	}

	var wg sync.WaitGroup
	for _, bundle := range bundles {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, engine.Embed(ctx, path, bundle))
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Import(ctx, path, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Per-path serialization means the file always holds exactly one
	// bundle, never fields from two different writes.
	snapshot, err := engine.Harvest(ctx, path)
	require.NoError(t, err)

	matched := false
	for _, bundle := range bundles {
		if snapshot.Comments == bundle.Comment {
			assert.Equal(t, bundle.Tags, snapshot.Tags)
			matched = true
		}
	}
	assert.True(t, matched, "harvested metadata must come from a single embed")
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())

	a := data.NewMediaID()
	b := data.NewMediaID()
	_, err := engine.Save(ctx, a, data.CatalogFields{Notes: "a"})
	require.NoError(t, err)
	_, err = engine.Save(ctx, b, data.CatalogFields{Notes: "b"})
	require.NoError(t, err)

	ids, err := engine.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []data.MediaID{a, b}, ids)

	deleted, err := engine.Delete(ctx, a)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = engine.Delete(ctx, a)
	require.NoError(t, err)
	assert.False(t, deleted)

	ids, err = engine.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []data.MediaID{b}, ids)
}

func TestLegacyCommentHarvestsStripped(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())
	path := writeJPEG(t, t.TempDir(), "Hello <rdf:li>World</rdf:li>")

	snapshot, err := engine.Harvest(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", snapshot.Comments)
}

func TestEmbedFailureLeavesFileIntact(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, memory.NewMemoryStore())

	// A recognizable PNG signature with a garbage chunk stream encodes
	// to an error, not to partial output.
	path := filepath.Join(t.TempDir(), "broken.png")
	broken := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, []byte("garbage")...)
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	err := engine.Embed(ctx, path, data.MetadataBundle{Comment: "x"})
	require.Error(t, err)

	after, _ := os.ReadFile(path)
	assert.Equal(t, broken, after)
}
