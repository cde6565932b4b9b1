// ABOUTME: Root command for samar-blogs CLI
// ABOUTME: Handles global flags, configuration and shared client wiring

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/config"
	"github.com/samarblogs/blogcli/internal/logger"
	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/session"
	"github.com/samarblogs/blogcli/internal/tokenstore"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string
)

// Exit codes
const (
	exitOK              = 0
	exitUsage           = 1 // bad input or failed validation
	exitBackend         = 2 // backend or network failure
	exitUnauthenticated = 3 // no valid session
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "samar-blogs",
	Short: "Command-line client for Samar Blogs",
	Long: `samar-blogs is a command-line client for the Samar Blogs platform.

Sign in, browse and search the feed, and write, edit or delete your posts.
Run "samar-blogs tui" for the interactive interface.

Exit codes:
  0 - Success
  1 - Invalid input
  2 - Backend or network error
  3 - Not signed in

Environment Variables:
  BLOG_API_URL      Backend API URL (also NEXT_PUBLIC_API_URL)
  BLOG_ENV          production selects the hosted backend (default: development)
  BLOG_CONFIG_DIR   Where the session and token are kept (default: ~/.config/samar-blogs)
  BLOG_RATE_LIMIT   Maximum requests per second, 0 for no limit
  LOG_LEVEL         debug, info, warn, error (default: warn)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Stderr)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides BLOG_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session and token files (overrides BLOG_CONFIG_DIR)")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// deps is everything a command needs to talk to the backend
type deps struct {
	cfg     *config.Config
	tokens  *tokenstore.File
	client  *client.Client
	session *session.Store
}

// newDeps loads configuration and wires the client with persistent credentials
func newDeps() (*deps, error) {
	cfg, err := config.Load(configDir, apiURL)
	if err != nil {
		return nil, err
	}
	if cfg.ConfigDir == "" {
		return nil, errors.New("could not determine config directory; set --config-dir or BLOG_CONFIG_DIR")
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	tokens := tokenstore.NewFile(cfg.ConfigDir)
	c, err := client.New(cfg.APIURL,
		client.WithTokenStore(tokens),
		client.WithCookieFile(filepath.Join(cfg.ConfigDir, "cookies.json")),
		client.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
	if err != nil {
		return nil, err
	}

	return &deps{
		cfg:     cfg,
		tokens:  tokens,
		client:  c,
		session: session.New(c),
	}, nil
}

// exitCodeFor maps an error to the process exit code
func exitCodeFor(err error) int {
	var apiErr *client.APIError
	var validation *validationError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &validation), errors.Is(err, posts.ErrNotOwner):
		return exitUsage
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return exitUnauthenticated
	default:
		return exitBackend
	}
}

// validationError marks bad user input
type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &validationError{err: err}
}

// fail prints err and returns its exit code
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", client.ErrorMessage(err))
	return exitCodeFor(err)
}
