package tiler_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/eak1mov/go-quadtiles/index"
	"github.com/eak1mov/go-quadtiles/internal"
	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tiler"
	"github.com/eak1mov/go-quadtiles/tileset"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testWorld = geom.Rect{H: geom.Coord{X: 1000, Y: 1000}}

func testConfig() tiler.Config {
	config := tiler.DefaultConfig()
	config.World = testWorld
	config.MaxDepth = 6
	config.Budget = 1024
	config.IndexDepth = 2
	return config
}

type run struct {
	archive   *internal.MemArchive
	directory []byte
	refs      []byte
	parent    []byte
	tiler     *tiler.Tiler
}

func compile(t *testing.T, source feature.Source, config tiler.Config) run {
	t.Helper()

	archive := internal.NewMemArchive()
	tl := tiler.New(archive,
		tiler.WithConfig(config),
		tiler.WithSlicer(feature.ClipSlicer{Tree: quadtree.Tree{World: config.World}}),
	)
	require.NoError(t, tl.Size(source))
	_, err := tl.Merge()
	require.NoError(t, err)

	var directory bytes.Buffer
	require.NoError(t, tl.Plan(&directory))

	refsFile, err := os.Create(filepath.Join(t.TempDir(), "refs.bin"))
	require.NoError(t, err)
	defer refsFile.Close()
	require.NoError(t, tl.Write(source, archive, refsFile))

	var parent bytes.Buffer
	require.NoError(t, tl.Finish(&parent))
	require.NoError(t, archive.Finalize())

	_, err = refsFile.Seek(0, io.SeekStart)
	require.NoError(t, err)
	refs, err := io.ReadAll(refsFile)
	require.NoError(t, err)

	return run{
		archive:   archive,
		directory: directory.Bytes(),
		refs:      refs,
		parent:    parent.Bytes(),
		tiler:     tl,
	}
}

func TestCompile(t *testing.T) {
	source := internal.RandomFeatures(1, 300, testWorld)
	config := testConfig()
	r := compile(t, source, config)

	entries, err := tileset.ReadDirectory(bytes.NewReader(r.directory))
	require.NoError(t, err)
	require.Len(t, r.archive.Members, len(entries))
	require.Greater(t, len(entries), 1)

	slots := make(map[string]int, len(entries))
	for slot, entry := range entries {
		member, ok := r.archive.Members[slot]
		require.True(t, ok, "slot %d", slot)
		require.Equal(t, tile.MemberName(entry.Name), member.Name)
		require.Len(t, r.archive.Data[slot], entry.Size, "tile %q", entry.Name)
		slots[entry.Name] = slot
	}

	ids := make(map[uint64]bool)
	submaps := make(map[uint32]string)
	for slot, data := range r.archive.Data {
		records, err := feature.SplitRecords(data)
		require.NoError(t, err)
		for _, record := range records {
			if record.Type == feature.TypeSubmap {
				item, err := index.ParseRecord(record)
				require.NoError(t, err)
				submaps[item.Slot] = r.archive.Members[slot].Name
				continue
			}
			item, err := feature.ParseItem(record)
			require.NoError(t, err)
			ids[item.ID()] = true
		}
	}
	require.Len(t, ids, len(source))

	// every tile but the root is indexed exactly once, in its index tile
	require.Len(t, submaps, len(entries)-1)
	for _, entry := range entries {
		if entry.Name == "" {
			continue
		}
		want := ""
		if quadtree.Depth(entry.Name) > config.IndexDepth {
			want = entry.Name[:config.IndexDepth]
		}
		require.Equal(t, tile.MemberName(want), submaps[uint32(slots[entry.Name])], "tile %q", entry.Name)
	}

	references, err := tileset.ReadReferences(r.refs)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(references), len(source))
	for _, ref := range references {
		data := r.archive.Data[int(ref.Slot)]
		offset := int(ref.Offset) * config.RecordUnit
		require.Less(t, offset, len(data))
		records, err := feature.SplitRecords(data[offset:])
		require.NoError(t, err)
		require.NotEqual(t, feature.TypeSubmap, records[0].Type)
	}

	require.Empty(t, r.parent)
}

func TestMemoryLimit(t *testing.T) {
	source := internal.RandomFeatures(2, 200, testWorld)
	want := compile(t, source, testConfig())

	config := testConfig()
	config.MemoryLimit = 512
	got := compile(t, source, config)

	if diff := cmp.Diff(want.archive.ByName(), got.archive.ByName()); diff != "" {
		t.Errorf("archive mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, want.directory, got.directory)
	require.Equal(t, want.refs, got.refs)
}

func TestResume(t *testing.T) {
	source := internal.RandomFeatures(3, 200, testWorld)
	config := testConfig()
	want := compile(t, source, config)

	archive := internal.NewMemArchive()
	tl, err := tiler.Resume(bytes.NewReader(want.directory), archive,
		tiler.WithConfig(config),
		tiler.WithSlicer(feature.ClipSlicer{Tree: quadtree.Tree{World: config.World}}),
	)
	require.NoError(t, err)
	require.NoError(t, tl.Write(source, archive, nil))
	require.NoError(t, tl.Finish(nil))

	if diff := cmp.Diff(want.archive.ByName(), archive.ByName()); diff != "" {
		t.Errorf("archive mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteUnsizedFeature(t *testing.T) {
	archive := internal.NewMemArchive()
	tl := tiler.New(archive, tiler.WithConfig(testConfig()))

	sized := feature.Slice{internal.Point(1, 10, 10)}
	require.NoError(t, tl.Size(sized))
	_, err := tl.Merge()
	require.NoError(t, err)
	require.NoError(t, tl.Plan(nil))

	written := feature.Slice{internal.Point(1, 10, 10), internal.Point(2, 990, 990)}
	err = tl.Write(written, archive, nil)
	require.ErrorIs(t, err, tileset.ErrUnresolved)
}

func TestWriteGrownFeature(t *testing.T) {
	archive := internal.NewMemArchive()
	tl := tiler.New(archive, tiler.WithConfig(testConfig()))

	require.NoError(t, tl.Size(feature.Slice{internal.Point(1, 10, 10)}))
	_, err := tl.Merge()
	require.NoError(t, err)
	require.NoError(t, tl.Plan(nil))

	grown := &feature.Item{
		ItemType: feature.TypePoint,
		ItemID:   1,
		Coords:   []geom.Coord{{X: 10, Y: 10}, {X: 11, Y: 11}},
	}
	err = tl.Write(feature.Slice{grown}, archive, nil)
	require.ErrorIs(t, err, tileset.ErrOverflow)
}

func TestPhaseOrder(t *testing.T) {
	archive := internal.NewMemArchive()
	tl := tiler.New(archive, tiler.WithConfig(testConfig()))

	require.ErrorIs(t, tl.Plan(nil), tiler.ErrStage)
	require.ErrorIs(t, tl.Write(feature.Slice{}, archive, nil), tiler.ErrStage)
	require.ErrorIs(t, tl.Finish(nil), tiler.ErrStage)

	require.NoError(t, tl.Size(feature.Slice{internal.Point(1, 10, 10)}))
	_, err := tl.Merge()
	require.NoError(t, err)

	require.ErrorIs(t, tl.Size(feature.Slice{}), tiler.ErrStage)
	_, err = tl.Merge()
	require.ErrorIs(t, err, tiler.ErrStage)
}

type sliceFunc func(f feature.Feature, address string, targetDepth int, emit func(string, feature.Feature) error) error

func (s sliceFunc) Slice(f feature.Feature, address string, targetDepth int, emit func(string, feature.Feature) error) error {
	return s(f, address, targetDepth, emit)
}

func TestSlicer(t *testing.T) {
	var calls []string
	slicer := sliceFunc(func(f feature.Feature, address string, targetDepth int, emit func(string, feature.Feature) error) error {
		calls = append(calls, address)
		require.Equal(t, 3, targetDepth)
		if err := emit("ddd_x", internal.Point(f.ID(), 10, 10)); err != nil {
			return err
		}
		return emit("aaa_x", internal.Point(f.ID(), 990, 990))
	})

	config := testConfig()
	config.Suffix = "_x"
	config.SliceTarget = 3
	tl := tiler.New(internal.NewMemArchive(), tiler.WithConfig(config), tiler.WithSlicer(slicer))

	source := feature.Slice{
		internal.Box(1, geom.Rect{L: geom.Coord{X: 100, Y: 100}, H: geom.Coord{X: 900, Y: 900}}),
		&feature.Item{ItemType: feature.TypePolyWaterTiled, ItemID: 2, Coords: []geom.Coord{{X: 100, Y: 100}, {X: 900, Y: 900}}},
		internal.Point(3, 10, 10),
	}
	require.NoError(t, tl.Size(source))

	require.Equal(t, []string{"_x"}, calls)
	require.Equal(t, []string{"_x", "aaa_x", "ddd_x", "dddddd_x"}, tl.Registry().Live())
}

func TestFinishSuffix(t *testing.T) {
	config := testConfig()
	config.Suffix = "_x"
	r := compile(t, internal.RandomFeatures(4, 50, testWorld), config)

	records, err := feature.SplitRecords(r.parent)
	require.NoError(t, err)
	require.Len(t, records, 1)

	item, err := index.ParseRecord(records[0])
	require.NoError(t, err)
	want := index.NewItem(testWorld, 0, index.MaxOrder, r.archive.CurrentSlot()-1)
	require.Equal(t, want, item)
	require.Equal(t, "_x", r.archive.Members[int(item.Slot)].Name)
}

func TestProgress(t *testing.T) {
	counts := make(map[tiler.Stage]int)
	tl := tiler.New(internal.NewMemArchive(),
		tiler.WithConfig(testConfig()),
		tiler.WithProgress(func(e tiler.Event) { counts[e.Stage]++ }),
	)

	require.NoError(t, tl.Size(internal.RandomFeatures(5, 20, testWorld)))
	_, err := tl.Merge()
	require.NoError(t, err)

	require.Equal(t, 20, counts[tiler.StageSizing])
	require.Positive(t, counts[tiler.StageMerging])
}
