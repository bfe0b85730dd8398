package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/releasekit/cmd/releasekit"
	"github.com/arthur-debert/releasekit/internal/version"
)

func main() {
	rootCmd := releasekit.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "RELEASEKIT",
		Section: "1",
		Source:  "releasekit " + version.Version,
		Manual:  "releasekit manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
