// ABOUTME: Fallback token commands for samar-blogs CLI
// ABOUTME: Inspects, sets and clears the stored bearer token

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samarblogs/blogcli/internal/tokenstore"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the fallback sign-in token",
	Long: `Manage the fallback sign-in token.

The token is issued after Google sign-in when the session cookie cannot be
used. It is stored encrypted in the config directory and sent as a bearer
token with every request.`,
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a fallback token is stored",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runTokenStatus(os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [TOKEN]",
	Short: "Store a fallback token (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		token := ""
		if len(args) == 1 {
			token = args[0]
		}
		if code := runTokenSet(os.Stdout, token); code != 0 {
			os.Exit(code)
		}
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored fallback token",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runTokenClear(os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenStatusCmd, tokenSetCmd, tokenClearCmd)
}

// runTokenStatus describes the stored token and returns exit code
func runTokenStatus(w io.Writer) int {
	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}

	token, err := d.tokens.Load()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitBackend
	}

	if IsJSONOutput() {
		output := map[string]interface{}{
			"present": token != "",
			"length":  len(token),
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, tokenstore.Describe(token))
	}
	return exitOK
}

// runTokenSet stores token and returns exit code
func runTokenSet(w io.Writer, token string) int {
	if token == "" {
		line, err := readLine()
		if err != nil {
			return fail(w, invalid(err))
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fail(w, invalid(errors.New("token must not be empty")))
	}
	if tokenstore.Expired(token, time.Now()) {
		return fail(w, invalid(errors.New("token has already expired")))
	}

	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}
	if err := d.tokens.Save(token); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitBackend
	}

	fmt.Fprintf(w, "Token stored (%d characters)\n", len(token))
	return exitOK
}

// runTokenClear removes the stored token and returns exit code
func runTokenClear(w io.Writer) int {
	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}
	if err := d.tokens.Clear(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitBackend
	}

	fmt.Fprintln(w, "Token cleared")
	return exitOK
}
