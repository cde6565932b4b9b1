// ABOUTME: Paginated, searchable post feed state
// ABOUTME: Tracks page, search and results the way the posts screen shows them

package posts

import (
	"context"
	"fmt"

	"github.com/samarblogs/blogcli/internal/client"
)

// Lister fetches one page of posts
type Lister interface {
	ListPosts(ctx context.Context, params client.ListPostsParams) (*client.PostList, error)
}

// Feed is the state behind a post listing. It holds no connection so
// it can be copied into a view model.
type Feed struct {
	Page       int
	TotalPages int
	TotalPosts int
	Search     string
	Posts      []client.Post
	Err        error
}

// NewFeed returns an empty feed on page 1
func NewFeed() Feed {
	return Feed{Page: 1, TotalPages: 1, Posts: []client.Post{}}
}

// Query returns the parameters for fetching the current page
func (f Feed) Query() client.ListPostsParams {
	return client.ListPostsParams{Page: f.Page, Limit: client.DefaultPageSize, Search: f.Search}
}

// Apply records the result of fetching Query. On error the previous
// posts are kept and Err is set. Page is left as requested even when it
// is past the last page; see PastEnd.
func (f *Feed) Apply(list *client.PostList, err error) {
	if err != nil {
		f.Err = err
		return
	}
	f.Err = nil
	f.Posts = list.Posts
	f.TotalPosts = list.TotalPosts
	f.TotalPages = max(list.TotalPages, 1)
}

// PastEnd reports whether the requested page is beyond the last one
func (f Feed) PastEnd() bool {
	return f.Page > f.TotalPages
}

// Load fetches the current page and applies it
func (f *Feed) Load(ctx context.Context, api Lister) error {
	list, err := api.ListPosts(ctx, f.Query())
	f.Apply(list, err)
	return err
}

// Next moves forward one page. It reports whether the page changed.
func (f *Feed) Next() bool {
	if f.Page >= f.TotalPages {
		return false
	}
	f.Page++
	return true
}

// Prev moves back one page. It reports whether the page changed.
func (f *Feed) Prev() bool {
	if f.Page <= 1 {
		return false
	}
	f.Page--
	return true
}

// SetSearch starts a new search from page 1
func (f *Feed) SetSearch(q string) {
	f.Search = q
	f.Page = 1
}

// ErrorText is the message shown when loading failed
func (f Feed) ErrorText() string {
	if f.Err == nil {
		return ""
	}
	if msg := client.ErrorMessage(f.Err); msg != "" {
		return msg
	}
	return "Failed to fetch posts. Please try again."
}

// EmptyText is the message shown when there is nothing to list
func (f Feed) EmptyText() string {
	if f.Search != "" {
		return fmt.Sprintf("No posts match %q. Try a different search term.", f.Search)
	}
	return "No posts yet. Be the first to share your story with the community!"
}

// PageInfo is the pagination caption
func (f Feed) PageInfo() string {
	return fmt.Sprintf("Page %d of %d", f.Page, f.TotalPages)
}
