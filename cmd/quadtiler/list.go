package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/eak1mov/go-quadtiles/feature"
	"github.com/eak1mov/go-quadtiles/index"
	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/google/subcommands"
)

type listCmd struct {
	inputFormat string
	records     bool
}

func (c *listCmd) Name() string     { return "list" }
func (c *listCmd) Synopsis() string { return "list the members of a tile archive" }
func (c *listCmd) Usage() string {
	return "quadtiler list [-if <format>] [-records] <path>\n"
}
func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputFormat, "if", "", "Input format ("+formatsHelp+")")
	f.BoolVar(&c.records, "records", false, "Count features and index records of every member")
}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}

	reader, err := openReader(c.inputFormat, f.Arg(0))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeArchive(reader)

	err = reader.VisitMembers(func(member tile.Member, data []byte) error {
		if !c.records {
			fmt.Printf("%6d %10d %s\n", member.Slot, len(data), member.Name)
			return nil
		}
		features, submaps, err := countRecords(data)
		if err != nil {
			fmt.Printf("%6d %10d %s (not a tile: %v)\n", member.Slot, len(data), member.Name, err)
			return nil
		}
		fmt.Printf("%6d %10d %s features=%d submaps=%d\n", member.Slot, len(data), member.Name, features, submaps)
		return nil
	})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func countRecords(data []byte) (features, submaps int, err error) {
	records, err := feature.SplitRecords(data)
	if err != nil {
		return 0, 0, err
	}
	items, err := index.ReadRecords(data)
	if err != nil {
		return 0, 0, err
	}
	return len(records) - len(items), len(items), nil
}
