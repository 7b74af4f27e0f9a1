package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/eak1mov/go-quadtiles/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type convertCmd struct {
	inputFormat  string
	inputPath    string
	outputFormat string
	outputPath   string
	compression  string
}

func (c *convertCmd) Name() string     { return "convert" }
func (c *convertCmd) Synopsis() string { return "convert between archive formats" }
func (c *convertCmd) Usage() string {
	return "quadtiler convert -i <path> -o <path> [-if <format> | -of <format>]\n"
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format ("+formatsHelp+")")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format ("+formatsHelp+")")
	f.StringVar(&c.compression, "compression", "", "Member compression (none, gzip, zstd)")
}

func (c *convertCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := openReader(c.inputFormat, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeArchive(reader)

	writer, err := openWriter(c.outputFormat, c.outputPath, writerOptions{
		compression: c.compression,
		logger:      slog.Default(),
	})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeArchive(writer)

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = reader.VisitMembers(func(member tile.Member, data []byte) error {
		err := writer.WriteMember(member.Slot, member.Name, data)
		bar.Add(1)
		return err
	})
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
