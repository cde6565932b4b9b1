// ABOUTME: Post feed component listing one page of posts as cards
// ABOUTME: Shows title, excerpt and author with the selected card highlighted

package feedview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/tui/icons"
	"github.com/samarblogs/blogcli/internal/tui/styles"
)

// FeedView renders a posts.Feed
type FeedView struct {
	feed     posts.Feed
	selected int
	width    int
	height   int
}

// New creates a feed view
func New(width, height int) *FeedView {
	return &FeedView{feed: posts.NewFeed(), width: width, height: height}
}

// SetFeed replaces the feed, keeping the selection in range
func (v *FeedView) SetFeed(f posts.Feed) {
	v.feed = f
	if v.selected >= len(f.Posts) {
		v.selected = max(len(f.Posts)-1, 0)
	}
}

// Feed returns the feed being shown
func (v *FeedView) Feed() posts.Feed {
	return v.feed
}

// SetSize updates the component dimensions
func (v *FeedView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Up moves the selection up one card
func (v *FeedView) Up() {
	if v.selected > 0 {
		v.selected--
	}
}

// Down moves the selection down one card
func (v *FeedView) Down() {
	if v.selected < len(v.feed.Posts)-1 {
		v.selected++
	}
}

// ResetSelection selects the first card
func (v *FeedView) ResetSelection() {
	v.selected = 0
}

// Selected returns the index of the highlighted post, or -1 when empty
func (v *FeedView) Selected() int {
	if len(v.feed.Posts) == 0 {
		return -1
	}
	return v.selected
}

// View renders the feed
func (v *FeedView) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Post.String() + " Discover Amazing Stories"))
	sb.WriteString("\n")
	if v.feed.Search != "" {
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s Results for %q", icons.Search, v.feed.Search)))
		sb.WriteString("\n")
	}

	if msg := v.feed.ErrorText(); msg != "" {
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + msg))
		sb.WriteString("\n\n")
	}

	if len(v.feed.Posts) == 0 {
		if v.feed.Err == nil {
			sb.WriteString(styles.Subtitle.Render(v.feed.EmptyText()))
		}
		return v.frame(sb.String())
	}

	now := time.Now()
	cardWidth := max(v.width-2, 20)
	for i, p := range v.feed.Posts {
		var card strings.Builder
		card.WriteString(styles.ValueStyle.Render(posts.Title(p)))
		card.WriteString("\n")
		card.WriteString(posts.Excerpt(p))
		card.WriteString("\n")
		meta := icons.Author.String() + " " + posts.Author(p)
		if d := posts.Date(p.CreatedAt, now); d != "" {
			meta += "  " + icons.Date.String() + " " + d
		}
		card.WriteString(styles.Meta.Render(meta))

		style := styles.Panel
		if i == v.selected {
			style = styles.ActivePanel
		}
		sb.WriteString(style.Width(cardWidth).Render(card.String()))
		sb.WriteString("\n")
	}

	if v.feed.TotalPages > 1 {
		sb.WriteString(styles.Subtitle.Render(v.feed.PageInfo()))
	}

	return v.frame(sb.String())
}

func (v *FeedView) frame(s string) string {
	return lipgloss.NewStyle().
		Width(v.width).
		MaxHeight(max(v.height, 1)).
		Render(s)
}
