package main

import (
	"github.com/ignite/vcfbot/internal/cli"
)

// Version information (injected at build time)
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cli.SetVersion(Version, Commit, Date)
	cli.Execute()
}
