package tileset_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tileset"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDirectorySerializer(t *testing.T) {
	entries := []tileset.DirEntry{
		{Name: "abcd", Size: 120, Subtiles: []string{"abcda", "abcdb"}},
		{Name: "c", Size: 8, Subtiles: []string{"c"}},
		{Name: "", Size: 44, Subtiles: []string{"", "b"}},
	}

	var buffer bytes.Buffer
	require.NoError(t, tileset.WriteDirectory(entries, &buffer))
	require.Equal(t, "abcd:120:abcda:abcdb\nc:8:c\nindex:44::b\n", buffer.String())

	got, err := tileset.ReadDirectory(&buffer)
	require.NoError(t, err)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("ReadDirectory(WriteDirectory(input)) mismatch (-want+got):\n%v", diff)
	}
}

func TestDirectorySyntaxErrors(t *testing.T) {
	input := "ab:12:ab\nbroken line\nc:x:c\nd:4:d"
	entries, err := tileset.ReadDirectory(strings.NewReader(input))

	require.Truef(t, errors.Is(err, tileset.ErrDirectorySyntax), "%v", err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "line 3")
	require.Contains(t, err.Error(), "line 4: missing newline")

	want := []tileset.DirEntry{
		{Name: "ab", Size: 12, Subtiles: []string{"ab"}},
		{Name: "d", Size: 4, Subtiles: []string{"d"}},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("recovered entries mismatch (-want+got):\n%v", diff)
	}
}

func TestLoadDirectory(t *testing.T) {
	r := tileset.New()
	r.Record("ca", 100)
	r.Record("cb", 100)
	r.Record("ab", 70000)
	m := tileset.Merger{}
	m.Run(r)

	var buffer bytes.Buffer
	var slots tile.Counter
	entries := make([]tileset.DirEntry, 0)
	for _, h := range r.Heads() {
		h.Slot = slots.AllocateSlot()
		entries = append(entries, h.Entry())
	}
	require.NoError(t, tileset.WriteDirectory(entries, &buffer))

	var loadSlots tile.Counter
	loaded, err := tileset.LoadDirectory(&buffer, &loadSlots)
	require.NoError(t, err)
	require.Equal(t, r.Live(), loaded.Live())
	require.Equal(t, slots.CurrentSlot(), loadSlots.CurrentSlot())

	for _, h := range r.Heads() {
		lh := loaded.Head(h.String())
		require.NotNil(t, lh)
		require.Equal(t, h.Size, lh.Size)
		require.Equal(t, h.Slot, lh.Slot)
		require.Equal(t, h.SubtileNames(), lh.SubtileNames())
	}
	require.Same(t, loaded.Head(""), loaded.Resolve("ca"))
	require.Same(t, loaded.Head(""), loaded.Resolve("cb"))
}
