// atlaspack packs the block textures of a resource set into texture atlases
// and keeps a mapping from texture names to atlas placements.
//
// Build:
//
//	go build -o atlaspack ./cmd/atlaspack
//
// Usage:
//
//	atlaspack init -o atlaspack.toml
//	atlaspack pack -config atlaspack.toml -pdf report.pdf
//	atlaspack inspect -config atlaspack.toml
//	atlaspack restore -config atlaspack.toml
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&packCmd{}, "")
	subcommands.Register(&initCmd{}, "")
	subcommands.Register(&inspectCmd{}, "")
	subcommands.Register(&restoreCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
