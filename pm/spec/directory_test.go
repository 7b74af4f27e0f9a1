package spec_test

import (
	"math/rand/v2"
	"testing"

	"github.com/eak1mov/go-quadtiles/pm/spec"
	gcmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// slotEntries returns entries for count consecutive slots, every fifth one
// sharing the blob of its predecessor and every ninth one empty.
func slotEntries(count int) []spec.Entry {
	rng := rand.New(rand.NewPCG(uint64(count), 1))
	entries := make([]spec.Entry, 0, count)
	offset := uint64(0)
	for slot := range uint64(count) {
		switch {
		case slot%9 == 8:
			continue
		case slot%5 == 4 && len(entries) > 0:
			prev := entries[len(entries)-1]
			entries = append(entries, spec.Entry{Slot: slot, Offset: prev.Offset, Length: prev.Length, RunLength: 1})
			continue
		}
		length := 1 + rng.Uint32N(1000)
		entries = append(entries, spec.Entry{Slot: slot, Offset: offset, Length: length, RunLength: 1})
		offset += uint64(length)
	}
	return entries
}

func TestDirectory(t *testing.T) {
	for _, count := range []int{0, 1, 100, 10_000} {
		entries := slotEntries(count)
		parsed, err := spec.ParseDirectory(spec.AppendDirectory(nil, entries))
		require.NoError(t, err, "count %d", count)
		if diff := gcmp.Diff(entries, parsed); diff != "" {
			t.Errorf("ParseDirectory(AppendDirectory(%d slots)) mismatch (-want +got):\n%s", count, diff)
		}
	}
}

func TestDirectoryErrors(t *testing.T) {
	data := spec.AppendDirectory(nil, slotEntries(100))

	_, err := spec.ParseDirectory(data[:len(data)-1])
	require.ErrorIs(t, err, spec.ErrInvalidDirectory)

	_, err = spec.ParseDirectory([]byte{0xff, 0xff, 0x03, 0})
	require.ErrorIs(t, err, spec.ErrInvalidDirectory)
}

func TestCompact(t *testing.T) {
	entries := []spec.Entry{
		{Slot: 0, Offset: 0, Length: 10, RunLength: 1},
		{Slot: 1, Offset: 0, Length: 10, RunLength: 1},
		{Slot: 2, Offset: 0, Length: 10, RunLength: 1},
		{Slot: 3, Offset: 10, Length: 5, RunLength: 1},
		{Slot: 5, Offset: 10, Length: 5, RunLength: 1},
	}
	want := []spec.Entry{
		{Slot: 0, Offset: 0, Length: 10, RunLength: 3},
		{Slot: 3, Offset: 10, Length: 5, RunLength: 1},
		{Slot: 5, Offset: 10, Length: 5, RunLength: 1},
	}
	require.Equal(t, want, spec.Compact(entries))
}

func TestFind(t *testing.T) {
	entries := []spec.Entry{
		{Slot: 0, Offset: 0, Length: 10, RunLength: 3},
		{Slot: 5, Offset: 10, Length: 5, RunLength: 1},
		{Slot: 8, Offset: 0, Length: 40},
	}
	for _, tc := range []struct {
		slot  uint64
		want  spec.Entry
		found bool
	}{
		{slot: 0, want: entries[0], found: true},
		{slot: 2, want: entries[0], found: true},
		{slot: 3},
		{slot: 5, want: entries[1], found: true},
		{slot: 6},
		{slot: 8, want: entries[2], found: true},
		{slot: 1_000, want: entries[2], found: true},
	} {
		got, found := spec.Find(entries, tc.slot)
		require.Equal(t, tc.found, found, "slot %d", tc.slot)
		require.Equal(t, tc.want, got, "slot %d", tc.slot)
	}
	_, found := spec.Find(nil, 0)
	require.False(t, found)
}

func TestBuildDirectoriesLeaves(t *testing.T) {
	entries := spec.Compact(slotEntries(200_000))

	dirs, err := spec.BuildDirectories(entries, spec.CompressionZstd)
	require.NoError(t, err)
	require.LessOrEqual(t, len(dirs.Root), spec.RootDirMaxLength)
	require.NotEmpty(t, dirs.Leaves)

	rootData, err := spec.Decompress(dirs.Root, spec.CompressionZstd)
	require.NoError(t, err)
	rootEntries, err := spec.ParseDirectory(rootData)
	require.NoError(t, err)

	for _, slot := range []uint64{0, 4, 77_778, 199_999} {
		entry, found := spec.Find(rootEntries, slot)
		require.True(t, found, "slot %d", slot)
		require.True(t, entry.IsLeaf(), "slot %d", slot)

		leafData, err := spec.Decompress(dirs.Leaves[entry.Offset:entry.Offset+uint64(entry.Length)], spec.CompressionZstd)
		require.NoError(t, err)
		leafEntries, err := spec.ParseDirectory(leafData)
		require.NoError(t, err)

		entry, found = spec.Find(leafEntries, slot)
		require.True(t, found, "slot %d", slot)
		require.False(t, entry.IsLeaf(), "slot %d", slot)
	}

	dirs, err = spec.BuildDirectories(entries[:10], spec.CompressionGzip)
	require.NoError(t, err)
	require.Empty(t, dirs.Leaves)
}
