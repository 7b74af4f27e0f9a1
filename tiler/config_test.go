package tiler_test

import (
	"testing"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/geom"
	"github.com/eak1mov/go-quadtiles/internal"
	"github.com/eak1mov/go-quadtiles/tiler"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, tiler.DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*tiler.Config)
	}{
		{"RecordUnit", func(c *tiler.Config) { c.RecordUnit = 0 }},
		{"Budget", func(c *tiler.Config) { c.Budget = -5 }},
		{"MaxDepth", func(c *tiler.Config) { c.MaxDepth = 0 }},
		{"Overlap", func(c *tiler.Config) { c.Overlap = -1 }},
		{"MemoryLimit", func(c *tiler.Config) { c.MemoryLimit = -1 }},
		{"World", func(c *tiler.Config) { c.World = geom.Rect{L: geom.Coord{X: 10}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tiler.DefaultConfig()
			tt.modify(&config)
			require.ErrorIs(t, config.Validate(), tiler.ErrInvalidConfig)
		})
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	config := tiler.DefaultConfig()
	config.RecordUnit = 0
	tl := tiler.New(internal.NewMemArchive(), tiler.WithConfig(config))
	require.ErrorIs(t, tl.Size(feature.Slice{}), tiler.ErrInvalidConfig)
}
