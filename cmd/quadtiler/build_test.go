package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tiler"
	"github.com/eak1mov/go-quadtiles/tileset"
	"github.com/stretchr/testify/require"
)

const testFeatures = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [13.4, 52.5]}, "properties": {}},
    {"type": "Feature", "id": 2, "geometry": {"type": "Point", "coordinates": [-0.12, 51.5]}, "properties": {}},
    {"type": "Feature", "id": 3, "geometry": {"type": "LineString", "coordinates": [[2.35, 48.85], [2.4, 48.9]]}, "properties": {}},
    {"type": "Feature", "id": 4, "geometry": {"type": "Polygon", "coordinates": [[[-10, -10], [10, -10], [10, 10], [-10, 10], [-10, -10]]]}, "properties": {}}
  ]
}`

func TestDeduceFormat(t *testing.T) {
	for path, want := range map[string]string{
		"out.zip":          "zip",
		"out.bin":          "zip",
		"out.pmtiles":      "pmtiles",
		"out.mbtiles":      "mbtiles",
		"out/{slot}.tile":  "dir",
	} {
		require.Equal(t, want, deduceFormat("", path), path)
	}
	require.Equal(t, "pmtiles", deduceFormat("pmtiles", "out.zip"))
}

func TestBuild(t *testing.T) {
	for _, name := range []string{"tiles.zip", "tiles.pmtiles", "tiles.mbtiles", "tiles/{slot}-{name}"} {
		t.Run(filepath.Ext(name), func(t *testing.T) {
			dir := t.TempDir()
			inputPath := filepath.Join(dir, "features.geojson")
			require.NoError(t, os.WriteFile(inputPath, []byte(testFeatures), 0o644))
			auxPath := filepath.Join(dir, "style.xml")
			require.NoError(t, os.WriteFile(auxPath, []byte("<style/>"), 0o644))

			c := &buildCmd{
				inputPath:     inputPath,
				outputPath:    filepath.Join(dir, name),
				directoryPath: filepath.Join(dir, "tiles.dir"),
				refsPath:      filepath.Join(dir, "tiles.refs"),
				indexPath:     filepath.Join(dir, "parent.index"),
				aux:           auxFlag{"style.xml=" + auxPath},
			}
			config := tiler.DefaultConfig()
			config.Suffix = "_test"
			require.NoError(t, c.run(config, map[string]string{"name": "test"}))

			directory, err := os.ReadFile(c.directoryPath)
			require.NoError(t, err)
			entries, err := tileset.ReadDirectory(bytes.NewReader(directory))
			require.NoError(t, err)

			reader, err := openReader("", c.outputPath)
			require.NoError(t, err)
			defer closeArchive(reader)

			members := make(map[string]int)
			for member, data := range tile.IterMembers(reader) {
				members[member.Name] = len(data)
			}
			require.Equal(t, len("<style/>"), members["style.xml"])
			for _, entry := range entries {
				require.Equal(t, entry.Size, members[tile.MemberName(entry.Name)], entry.Name)
			}

			refs, err := os.ReadFile(c.refsPath)
			require.NoError(t, err)
			require.Zero(t, len(refs)%tileset.ReferenceSize)
			require.GreaterOrEqual(t, len(refs)/tileset.ReferenceSize, 4)

			index, err := os.ReadFile(c.indexPath)
			require.NoError(t, err)
			require.NotEmpty(t, index)

			// the writing pass alone reproduces the archive
			resumed := *c
			resumed.resume = true
			resumed.outputPath = filepath.Join(t.TempDir(), name)
			resumed.indexPath = ""
			require.NoError(t, resumed.run(config, nil))
		})
	}
}
