package mb_test

import (
	"maps"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadtiles/mb"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestWriterReader(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tiles.mbtiles")
	metadata := map[string]string{"name": "quadtiles", "format": "navit"}

	members := map[tile.Member][]byte{
		{Slot: 0, Name: "style.xml"}: []byte("<style/>"),
		{Slot: 1, Name: "dd"}:        []byte("tile-dd"),
		{Slot: 2, Name: "d"}:         {},
		{Slot: 3, Name: "index"}:     []byte("tile-index"),
	}

	writer, err := mb.NewWriter(filePath, mb.WithMetadata(metadata))
	require.NoError(t, err)
	defer writer.Close()

	for slot, name := range []string{"style.xml", "dd", "d", "index"} {
		require.Equal(t, slot, writer.AllocateSlot())
		member := tile.Member{Slot: slot, Name: name}
		require.NoError(t, writer.WriteMember(slot, name, members[member]))
	}
	require.NoError(t, writer.Finalize())

	reader, err := mb.NewReader(filePath)
	require.NoError(t, err)
	defer reader.Close()

	gotMetadata, err := reader.ReadMetadata()
	require.NoError(t, err)
	require.Equal(t, metadata, gotMetadata)

	if diff := cmp.Diff(members, maps.Collect(tile.IterMembers(reader))); diff != "" {
		t.Errorf("VisitMembers mismatch (-want +got):\n%s", diff)
	}

	data, err := reader.ReadMember(3)
	require.NoError(t, err)
	require.Equal(t, []byte("tile-index"), data)

	data, err = reader.ReadMember(42)
	require.NoError(t, err)
	require.Empty(t, data)
}
