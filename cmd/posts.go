// ABOUTME: Post commands for samar-blogs CLI
// ABOUTME: Lists, shows, creates, edits and deletes blog posts

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/session"
)

var (
	listPage    int
	listLimit   int
	listSearch  string
	postTitle   string
	postBody    string
	postBodyIn  string
	deleteForce bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse and manage blog posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a page of the feed",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPostsList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a single post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPostsShow(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var postsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new post",
	Long: `Publish a new post.

The body comes from --body, or from a file with --body-file ("-" reads stdin).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPostsCreate(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var postsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit one of your posts",
	Long: `Edit one of your posts. Fields that are not given keep their current value.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPostsEdit(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPostsDelete(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd, postsShowCmd, postsCreateCmd, postsEditCmd, postsDeleteCmd)

	postsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	postsListCmd.Flags().IntVar(&listLimit, "limit", client.DefaultPageSize, "Posts per page")
	postsListCmd.Flags().StringVar(&listSearch, "search", "", "Only posts matching this text")

	for _, c := range []*cobra.Command{postsCreateCmd, postsEditCmd} {
		c.Flags().StringVar(&postTitle, "title", "", "Post title")
		c.Flags().StringVar(&postBody, "body", "", "Post content")
		c.Flags().StringVar(&postBodyIn, "body-file", "", `Read the content from a file ("-" for stdin)`)
	}

	postsDeleteCmd.Flags().BoolVarP(&deleteForce, "yes", "y", false, "Delete without asking")
}

// runPostsList prints one page of the feed and returns exit code
func runPostsList(ctx context.Context, w io.Writer) int {
	if listPage < 1 {
		return fail(w, invalid(errors.New("--page must be at least 1")))
	}
	if listLimit < 1 || listLimit > 100 {
		return fail(w, invalid(errors.New("--limit must be between 1 and 100")))
	}

	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}

	feed := posts.NewFeed()
	feed.SetSearch(strings.TrimSpace(listSearch))
	feed.Page = listPage

	list, err := d.client.ListPosts(ctx, client.ListPostsParams{Page: feed.Page, Limit: listLimit, Search: feed.Search})
	if err != nil {
		return fail(w, err)
	}
	feed.Apply(list, nil)
	if feed.PastEnd() {
		return fail(w, invalid(fmt.Errorf("--page %d is past the last page (%d)", feed.Page, feed.TotalPages)))
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatListJSON(list))
	} else {
		fmt.Fprintln(w, formatListHuman(feed, time.Now()))
	}
	return exitOK
}

// runPostsShow prints a single post and returns exit code
func runPostsShow(ctx context.Context, w io.Writer, rawID string) int {
	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}

	p, err := d.client.GetPost(ctx, client.ID(rawID))
	if err != nil {
		return failPost(w, rawID, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPostJSON(p))
	} else {
		fmt.Fprintln(w, formatPostHuman(p, time.Now()))
	}
	return exitOK
}

// runPostsCreate publishes a post and returns exit code
func runPostsCreate(ctx context.Context, w io.Writer) int {
	body, err := resolveBody(postBody, postBodyIn)
	if err != nil {
		return fail(w, invalid(err))
	}
	title := strings.TrimSpace(postTitle)
	if err := posts.ValidatePost(title, body); err != nil {
		return fail(w, invalid(err))
	}

	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}
	if code := requireSession(ctx, w, d); code != exitOK {
		return code
	}

	p, err := d.client.CreatePost(ctx, client.PostInput{Title: title, Body: body})
	if err != nil {
		return fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPostJSON(p))
	} else {
		fmt.Fprintf(w, "Post published: %s (id %s)\n", posts.Title(*p), p.ID)
	}
	return exitOK
}

// runPostsEdit updates a post owned by the signed-in user and returns exit code
func runPostsEdit(ctx context.Context, w io.Writer, rawID string) int {
	body, err := resolveBody(postBody, postBodyIn)
	if err != nil {
		return fail(w, invalid(err))
	}
	if strings.TrimSpace(postTitle) == "" && body == "" {
		return fail(w, invalid(errors.New("nothing to change; pass --title, --body or --body-file")))
	}

	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}
	if code := requireSession(ctx, w, d); code != exitOK {
		return code
	}

	current, err := d.client.GetPost(ctx, client.ID(rawID))
	if err != nil {
		return failPost(w, rawID, err)
	}
	if err := posts.CheckOwner(*current, d.session.State().User); err != nil {
		return fail(w, err)
	}

	input := client.PostInput{Title: current.Title, Body: current.Body}
	if t := strings.TrimSpace(postTitle); t != "" {
		input.Title = t
	}
	if body != "" {
		input.Body = body
	}
	if err := posts.ValidatePost(input.Title, input.Body); err != nil {
		return fail(w, invalid(err))
	}

	p, err := d.client.UpdatePost(ctx, current.ID, input)
	if err != nil {
		return failPost(w, rawID, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPostJSON(p))
	} else {
		fmt.Fprintf(w, "Post updated: %s\n", posts.Title(*p))
	}
	return exitOK
}

// runPostsDelete removes a post owned by the signed-in user and returns exit code
func runPostsDelete(ctx context.Context, w io.Writer, rawID string) int {
	d, err := newDeps()
	if err != nil {
		return fail(w, invalid(err))
	}
	if code := requireSession(ctx, w, d); code != exitOK {
		return code
	}

	current, err := d.client.GetPost(ctx, client.ID(rawID))
	if err != nil {
		return failPost(w, rawID, err)
	}
	if err := posts.CheckOwner(*current, d.session.State().User); err != nil {
		return fail(w, invalid(errors.New("You don't have permission to delete this post")))
	}

	if !deleteForce && !confirm(w, fmt.Sprintf("Delete %q? This action cannot be undone.", posts.Title(*current))) {
		fmt.Fprintln(w, "Cancelled.")
		return exitOK
	}

	msg, err := d.client.DeletePost(ctx, current.ID)
	if err != nil {
		return failPost(w, rawID, err)
	}
	if msg == "" {
		msg = "Post deleted"
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"deleted": true, "id": current.ID, "message": msg}, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, msg)
	}
	return exitOK
}

// requireSession checks the stored session before a write
func requireSession(ctx context.Context, w io.Writer, d *deps) int {
	d.session.Start(ctx)
	if d.session.Phase() != session.PhaseAuthenticated {
		fmt.Fprintln(w, "Error: you need to sign in first. Run: samar-blogs login --email you@example.com")
		return exitUnauthenticated
	}
	return exitOK
}

// failPost reports a post lookup or write failure
func failPost(w io.Writer, rawID string, err error) int {
	if errors.Is(err, client.ErrPostNotFound) {
		fmt.Fprintf(w, "Error: post %s not found\n", rawID)
		return exitUsage
	}
	return fail(w, err)
}

// resolveBody picks the body from --body or --body-file
func resolveBody(body, path string) (string, error) {
	if body != "" && path != "" {
		return "", errors.New("use either --body or --body-file, not both")
	}
	if path == "" {
		return strings.TrimSpace(body), nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// formatListHuman formats a feed page for human readability
func formatListHuman(feed posts.Feed, now time.Time) string {
	if len(feed.Posts) == 0 {
		return feed.EmptyText()
	}

	var sb strings.Builder
	for i, p := range feed.Posts {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%s] %s\n", p.ID, posts.Title(p))
		meta := "    by " + posts.Author(p)
		if d := posts.Date(p.CreatedAt, now); d != "" {
			meta += " on " + d
		}
		sb.WriteString(meta + "\n")
		sb.WriteString("    " + posts.Excerpt(p) + "\n")
	}
	fmt.Fprintf(&sb, "\n%s (%d posts)", feed.PageInfo(), feed.TotalPosts)
	return sb.String()
}

// formatListJSON formats a feed page as JSON
func formatListJSON(list *client.PostList) string {
	if list.Posts == nil {
		list.Posts = []client.Post{}
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return string(data)
}

// formatPostHuman formats a single post for human readability
func formatPostHuman(p *client.Post, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(posts.Title(*p) + "\n")
	meta := "by " + posts.Author(*p)
	if d := posts.Date(p.CreatedAt, now); d != "" {
		meta += " on " + d
	}
	sb.WriteString(meta + "\n\n")
	body := posts.Body(*p)
	if body == "" {
		body = "No content available"
	}
	sb.WriteString(body)
	return sb.String()
}

// formatPostJSON formats a single post as JSON
func formatPostJSON(p *client.Post) string {
	data, _ := json.MarshalIndent(p, "", "  ")
	return string(data)
}
