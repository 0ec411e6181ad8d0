// Command greptree finds files beneath a directory that contain a piece of text.
//
//	greptree [flags] <path> <text> [ext1,ext2,...]
package main

import (
	"os"

	"greptree/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
