// ABOUTME: Entry point for samar-blogs CLI
// ABOUTME: Command-line and terminal client for the Samar Blogs platform

package main

import (
	"fmt"
	"os"

	"github.com/samarblogs/blogcli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
