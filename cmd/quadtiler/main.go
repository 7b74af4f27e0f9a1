// Command quadtiler compiles GeoJSON features into a quadtree tile archive
// and inspects the results.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&buildCmd{}, "")
	subcommands.Register(&convertCmd{}, "")
	subcommands.Register(&dirCmd{}, "")
	subcommands.Register(&listCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
