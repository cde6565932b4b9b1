// ABOUTME: Ping command for samar-blogs CLI
// ABOUTME: Checks backend connectivity by asking who is signed in

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samarblogs/blogcli/internal/tokenstore"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check backend connectivity",
	Long: `Check connectivity to the Samar Blogs backend.

Calls /auth/me with the stored credentials and prints the raw response,
the round-trip time and whether a fallback token is stored.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPing(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

// pingResult is what a ping found out
type pingResult struct {
	Backend  string
	Latency  time.Duration
	Response json.RawMessage
	Token    string
}

// runPing executes the connectivity check and returns exit code
func runPing(ctx context.Context, w io.Writer) int {
	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}

	token, err := d.tokens.Load()
	if err != nil {
		token = ""
	}

	start := time.Now()
	raw, err := d.client.Request(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return fail(w, err)
	}

	result := pingResult{
		Backend:  d.cfg.APIURL,
		Latency:  time.Since(start),
		Response: raw,
		Token:    tokenstore.Describe(token),
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPingJSON(result))
	} else {
		fmt.Fprintln(w, formatPingHuman(result))
	}
	return exitOK
}

// formatPingHuman formats the ping result for human readability
func formatPingHuman(r pingResult) string {
	return fmt.Sprintf(`Backend:   %s
Status:    reachable (%s)
Token:     %s
Response:  %s`, r.Backend, r.Latency.Round(time.Millisecond), r.Token, string(r.Response))
}

// formatPingJSON formats the ping result as JSON
func formatPingJSON(r pingResult) string {
	output := map[string]interface{}{
		"backend":    r.Backend,
		"latency_ms": r.Latency.Milliseconds(),
		"response":   r.Response,
		"token":      r.Token,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
