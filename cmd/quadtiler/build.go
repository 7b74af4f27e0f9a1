package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tiler"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type auxFlag []string

func (a *auxFlag) String() string { return strings.Join(*a, ",") }
func (a *auxFlag) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("want name=path, got %q", value)
	}
	*a = append(*a, value)
	return nil
}

type buildCmd struct {
	inputPath     string
	outputPath    string
	outputFormat  string
	configPath    string
	directoryPath string
	resume        bool
	refsPath      string
	indexPath     string
	compression   string
	aux           auxFlag
	verbose       bool

	maxDepth    int
	budget      int
	overlap     int
	suffix      string
	memoryLimit int
	noSlice     bool
}

func (c *buildCmd) Name() string     { return "build" }
func (c *buildCmd) Synopsis() string { return "compile GeoJSON features into a tile archive" }
func (c *buildCmd) Usage() string {
	return "quadtiler build -i <features.geojson> -o <path> [-of <format>] [-config <file.toml>] [-resume]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input GeoJSON feature collection")
	f.StringVar(&c.outputPath, "o", "", "Output archive path")
	f.StringVar(&c.outputFormat, "of", "", "Output format ("+formatsHelp+")")
	f.StringVar(&c.configPath, "config", "", "TOML configuration file")
	f.StringVar(&c.directoryPath, "dir", "", "Tile directory path (default <output>.dir)")
	f.BoolVar(&c.resume, "resume", false, "Skip sizing and reuse the tile directory of an earlier run")
	f.StringVar(&c.refsPath, "refs", "", "Write feature references to this file")
	f.StringVar(&c.indexPath, "index", "", "Append the aggregate index record to this file")
	f.StringVar(&c.compression, "compression", "", "Member compression (none, gzip, zstd)")
	f.Var(&c.aux, "aux", "Auxiliary file name=path, may be repeated")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")

	f.IntVar(&c.maxDepth, "max-depth", 0, "Override max_depth")
	f.IntVar(&c.budget, "budget", 0, "Override budget")
	f.IntVar(&c.overlap, "overlap", 0, "Override overlap")
	f.StringVar(&c.suffix, "suffix", "", "Override suffix")
	f.IntVar(&c.memoryLimit, "memory-limit", 0, "Override memory_limit")
	f.BoolVar(&c.noSlice, "no-slice", false, "Keep large areas whole")
}

// config loads the configuration file and applies the flags set on f.
func (c *buildCmd) config(f *flag.FlagSet) (tiler.Config, map[string]string, error) {
	config, attributes, err := loadConfig(c.configPath)
	if err != nil {
		return config, nil, err
	}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "max-depth":
			config.MaxDepth = c.maxDepth
		case "budget":
			config.Budget = c.budget
		case "overlap":
			config.Overlap = c.overlap
		case "suffix":
			config.Suffix = c.suffix
		case "memory-limit":
			config.MemoryLimit = c.memoryLimit
		}
	})
	return config, attributes, config.Validate()
}

func (c *buildCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputPath == "" {
		log.Println("both -i and -o are required")
		return subcommands.ExitUsageError
	}
	if c.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if c.directoryPath == "" {
		c.directoryPath = c.outputPath + ".dir"
	}

	config, attributes, err := c.config(f)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := c.run(config, attributes); err != nil {
		log.Fatal(err)
	}
	return subcommands.ExitSuccess
}

func (c *buildCmd) run(config tiler.Config, attributes map[string]string) error {
	logger := slog.Default()

	input, err := os.Open(c.inputPath)
	if err != nil {
		return err
	}
	source, err := feature.ReadGeoJSON(bufio.NewReader(input))
	input.Close()
	if err != nil {
		return err
	}
	logger.Info("quadtiles: features loaded", "features", source.Len())

	writer, err := openWriter(c.outputFormat, c.outputPath, writerOptions{
		compression: c.compression,
		attributes:  attributes,
		logger:      logger,
	})
	if err != nil {
		return err
	}
	defer closeArchive(writer)

	if err := c.writeAux(writer, logger); err != nil {
		return err
	}

	bar := progressbar.NewOptions(source.Len(), progressbar.OptionShowCount())
	opts := []tiler.Option{
		tiler.WithConfig(config),
		tiler.WithLogger(logger),
		tiler.WithProgress(func(e tiler.Event) { progress(bar, e) }),
	}
	if !c.noSlice {
		opts = append(opts, tiler.WithSlicer(feature.ClipSlicer{Tree: quadtree.Tree{World: config.World}}))
	}

	tl, err := c.plan(source, writer, opts)
	if err != nil {
		return err
	}

	var refs *os.File
	if c.refsPath != "" {
		refs, err = os.Create(c.refsPath)
		if err != nil {
			return err
		}
		defer refs.Close()
	}

	bar.Reset()
	bar.Describe("writing")
	if refs != nil {
		err = tl.Write(source, writer, refs)
	} else {
		err = tl.Write(source, writer, nil)
	}
	if err != nil {
		return err
	}
	bar.Finish()
	fmt.Println()

	if err := c.finish(tl); err != nil {
		return err
	}
	if refs != nil {
		if err := refs.Close(); err != nil {
			return err
		}
	}
	return writer.Finalize()
}

// plan runs sizing, merging and planning, or loads the tile directory of an
// earlier run with -resume.
func (c *buildCmd) plan(source feature.Source, writer tile.Writer, opts []tiler.Option) (*tiler.Tiler, error) {
	if c.resume {
		directory, err := os.Open(c.directoryPath)
		if err != nil {
			return nil, err
		}
		defer directory.Close()
		return tiler.Resume(bufio.NewReader(directory), writer, opts...)
	}

	tl := tiler.New(writer, opts...)
	if err := tl.Size(source); err != nil {
		return nil, err
	}
	if _, err := tl.Merge(); err != nil {
		return nil, err
	}

	directory, err := os.Create(c.directoryPath)
	if err != nil {
		return nil, err
	}
	defer directory.Close()
	buffered := bufio.NewWriter(directory)
	if err := tl.Plan(buffered); err != nil {
		return nil, err
	}
	if err := buffered.Flush(); err != nil {
		return nil, err
	}
	return tl, directory.Close()
}

func (c *buildCmd) writeAux(writer tile.Writer, logger *slog.Logger) error {
	if len(c.aux) == 0 {
		return nil
	}
	aux := tiler.NewAuxTiles(writer, logger)
	for _, value := range c.aux {
		name, path, _ := strings.Cut(value, "=")
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("quadtiles: skipping auxiliary tile", "name", name, "path", path, "err", err)
			continue
		}
		if _, err := aux.Add(name, path, int(info.Size())); err != nil {
			if errors.Is(err, tiler.ErrDuplicateAux) {
				logger.Warn("quadtiles: duplicate auxiliary tile", "name", name)
				continue
			}
			return err
		}
	}
	written, err := aux.WriteAll(writer)
	logger.Info("quadtiles: auxiliary tiles written", "tiles", written)
	return err
}

func (c *buildCmd) finish(tl *tiler.Tiler) error {
	if c.indexPath == "" {
		return tl.Finish(nil)
	}
	index, err := os.OpenFile(c.indexPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer index.Close()
	if err := tl.Finish(index); err != nil {
		return err
	}
	return index.Close()
}

func progress(bar *progressbar.ProgressBar, e tiler.Event) {
	switch e.Stage {
	case tiler.StageSizing, tiler.StageWriting:
		bar.Describe(string(e.Stage))
		bar.Set(e.Count)
	case tiler.StageMerging:
		bar.Describe(fmt.Sprintf("merging: %d tiles, %d merged", e.Count, e.Merged))
	case tiler.StagePlanning:
		bar.Describe(fmt.Sprintf("planning: %d tiles", e.Count))
	}
}
