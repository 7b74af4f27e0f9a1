package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/eak1mov/go-quadtiles/quadtree"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/eak1mov/go-quadtiles/tileset"
	"github.com/google/subcommands"
)

type dirCmd struct {
	strict bool
}

func (c *dirCmd) Name() string     { return "dir" }
func (c *dirCmd) Synopsis() string { return "validate a tile directory and print statistics" }
func (c *dirCmd) Usage() string {
	return "quadtiler dir [-strict] <path>\n"
}
func (c *dirCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.strict, "strict", false, "Fail on syntax errors")
}

func (c *dirCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	registry, err := tileset.LoadDirectory(bufio.NewReader(file), &tile.Counter{})
	if registry == nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err != nil {
		log.Println(err)
		if c.strict {
			return subcommands.ExitFailure
		}
	}

	heads := registry.Heads()
	depths := make(map[int]int)
	maxSize, subtiles := 0, 0
	for _, h := range heads {
		depths[quadtree.Depth(h.String())]++
		maxSize = max(maxSize, h.Size)
		subtiles += len(h.Subtiles)
	}

	fmt.Printf("tiles:      %d\n", len(heads))
	fmt.Printf("subtiles:   %d\n", subtiles)
	fmt.Printf("total size: %d\n", registry.TotalSize())
	fmt.Printf("max size:   %d\n", maxSize)
	for _, depth := range slices.Sorted(maps.Keys(depths)) {
		fmt.Printf("depth %2d:   %d\n", depth, depths[depth])
	}
	return subcommands.ExitSuccess
}
