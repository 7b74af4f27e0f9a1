package dir_test

import (
	"maps"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadtiles/dir"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/google/go-cmp/cmp"
)

func TestWriterReader(t *testing.T) {
	rootDir := t.TempDir()
	pattern := filepath.Join(rootDir, "tiles", "{slot}-{name}.bin")

	members := map[tile.Member][]byte{
		{Slot: 0, Name: "style.xml"}: []byte("<style/>"),
		{Slot: 1, Name: "ddab_x"}:    []byte("tile-ddab"),
		{Slot: 2, Name: "d_x"}:       []byte("tile-d"),
		{Slot: 12, Name: "index"}:    []byte("tile-index"),
	}

	writer, err := dir.NewWriter(pattern)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	for member, data := range members {
		if err := writer.WriteMember(member.Slot, member.Name, data); err != nil {
			t.Errorf("WriteMember(%v) failed: %v", member, err)
		}
	}

	if err := writer.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	reader, err := dir.NewReader(pattern)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if diff := cmp.Diff(members, maps.Collect(tile.IterMembers(reader))); diff != "" {
		t.Errorf("VisitMembers mismatch (-want +got):\n%s", diff)
	}

	for member, want := range members {
		data, err := reader.ReadMember(member.Slot)
		if err != nil {
			t.Errorf("ReadMember(%v) failed: %v", member.Slot, err)
			continue
		}
		if !cmp.Equal(data, want) {
			t.Errorf("ReadMember data mismatch for %v", member)
		}
	}

	data, err := reader.ReadMember(99)
	if err != nil {
		t.Errorf("ReadMember(missing member) failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("ReadMember(missing member) expected empty data, got: %v bytes", len(data))
	}
}

func TestInvalidPattern(t *testing.T) {
	for _, pattern := range []string{"/tmp/{name}.bin", "/tmp/{slot}/{slot}.bin", "/tmp/{slot}/{name}-{name}"} {
		if _, err := dir.NewWriter(pattern); err == nil {
			t.Errorf("NewWriter(%q) succeeded", pattern)
		}
		if _, err := dir.NewReader(pattern); err == nil {
			t.Errorf("NewReader(%q) succeeded", pattern)
		}
	}
}
