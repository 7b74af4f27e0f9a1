package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/eak1mov/go-quadtiles/dir"
	"github.com/eak1mov/go-quadtiles/mb"
	"github.com/eak1mov/go-quadtiles/pm"
	"github.com/eak1mov/go-quadtiles/pm/spec"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/zipfile"
)

const formatsHelp = "zip, pmtiles, mbtiles, dir"

func deduceFormat(format, filePath string) string {
	if format != "" {
		return format
	}
	switch {
	case strings.HasSuffix(filePath, ".zip"), strings.HasSuffix(filePath, ".bin"):
		return "zip"
	case strings.HasSuffix(filePath, ".mbtiles"):
		return "mbtiles"
	case strings.HasSuffix(filePath, ".pmtiles"):
		return "pmtiles"
	}
	return "dir"
}

type archiveReader interface {
	tile.Reader
	tile.Visitor
}

func openReader(format, filePath string) (archiveReader, error) {
	switch deduceFormat(format, filePath) {
	case "zip":
		return zipfile.NewReader(filePath)
	case "mbtiles":
		return mb.NewReader(filePath)
	case "pmtiles":
		return pm.NewFileReader(filePath)
	case "dir":
		return dir.NewReader(filePath)
	}
	return nil, fmt.Errorf("invalid format %q (want %s)", format, formatsHelp)
}

type writerOptions struct {
	compression string
	attributes  map[string]string
	logger      *slog.Logger
}

func openWriter(format, filePath string, opts writerOptions) (tile.Writer, error) {
	switch deduceFormat(format, filePath) {
	case "zip":
		zipOpts := []zipfile.WriterOption{zipfile.WithLogger(opts.logger)}
		if opts.compression == "none" {
			zipOpts = append(zipOpts, zipfile.WithStore())
		}
		return zipfile.NewWriter(filePath, zipOpts...)
	case "mbtiles":
		return mb.NewWriter(filePath, mb.WithMetadata(opts.attributes), mb.WithLogger(opts.logger))
	case "pmtiles":
		pmOpts := []pm.WriterOption{pm.WithAttributes(opts.attributes), pm.WithLogger(opts.logger)}
		if opts.compression != "" {
			compression, err := spec.ParseCompression(opts.compression)
			if err != nil {
				return nil, err
			}
			pmOpts = append(pmOpts, pm.WithTileCompression(compression))
		}
		return pm.NewWriter(filePath, pmOpts...)
	case "dir":
		return dir.NewWriter(filePath)
	}
	return nil, fmt.Errorf("invalid format %q (want %s)", format, formatsHelp)
}

func closeArchive(archive any) {
	if closer, ok := archive.(io.Closer); ok {
		closer.Close()
	}
}
