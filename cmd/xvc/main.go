// Command xvc tracks large data files and the pipelines that produce them, content-addressed
// and git-friendly, following the CLI surface laid out in this repository's design documents.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
