// ABOUTME: TUI command for samar-blogs CLI
// ABOUTME: Launches the interactive terminal interface

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samarblogs/blogcli/internal/oauth"
	"github.com/samarblogs/blogcli/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive interface",
	Long: `Start the interactive interface.

Log output goes to debug.log in the config directory while it runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		d, err := newDeps()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitUsage)
		}

		flow := oauth.New(d.tokens, d.session, d.client.GoogleAuthURL)
		if err := tui.Run(d.client, d.session, flow, d.cfg.ConfigDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitBackend)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
