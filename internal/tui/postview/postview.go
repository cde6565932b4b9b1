// ABOUTME: Single post detail view with owner actions
// ABOUTME: Renders the full body and a delete confirmation prompt

package postview

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/tui/icons"
	"github.com/samarblogs/blogcli/internal/tui/styles"
	"github.com/samarblogs/blogcli/internal/tui/widgets"
)

// View shows one post
type View struct {
	post       *client.Post
	owner      bool
	confirming bool
	status     string
	err        string
	width      int
	height     int
	offset     int
}

// New creates an empty detail view
func New(width, height int) *View {
	return &View{width: width, height: height}
}

// SetPost shows p. owner enables the edit and delete hints.
func (v *View) SetPost(p *client.Post, owner bool) {
	v.post = p
	v.owner = owner
	v.confirming = false
	v.err = ""
	v.status = ""
	v.offset = 0
}

// Post returns the post being shown
func (v *View) Post() *client.Post {
	return v.post
}

// Owner reports whether the current user wrote the post
func (v *View) Owner() bool {
	return v.owner
}

// SetSize updates the component dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// SetError shows an error line
func (v *View) SetError(msg string) {
	v.err = msg
	v.status = ""
}

// SetStatus shows a progress line such as "Deleting..."
func (v *View) SetStatus(msg string) {
	v.status = msg
	v.err = ""
}

// Confirming reports whether the delete prompt is open
func (v *View) Confirming() bool {
	return v.confirming
}

// AskDelete opens the delete prompt
func (v *View) AskDelete() {
	v.confirming = true
}

// CancelDelete closes the delete prompt
func (v *View) CancelDelete() {
	v.confirming = false
}

// ScrollDown moves the body down one line
func (v *View) ScrollDown() {
	v.offset++
}

// ScrollUp moves the body up one line
func (v *View) ScrollUp() {
	if v.offset > 0 {
		v.offset--
	}
}

// View renders the post
func (v *View) View() string {
	if v.post == nil {
		return styles.Subtitle.Render(icons.Loading.String() + " Loading post...")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(posts.Title(*v.post)))
	sb.WriteString("\n")

	meta := icons.Author.String() + " " + posts.Author(*v.post)
	if d := posts.Date(v.post.CreatedAt, time.Now()); d != "" {
		meta += "  " + icons.Date.String() + " " + d
	}
	sb.WriteString(styles.Meta.Render(meta))
	sb.WriteString("\n\n")

	if v.err != "" {
		sb.WriteString(widgets.StatusText(v.err, widgets.StatusCritical))
		sb.WriteString("\n\n")
	}
	if v.status != "" {
		sb.WriteString(styles.Subtitle.Render(icons.Loading.String() + " " + v.status))
		sb.WriteString("\n")
	}

	if v.confirming {
		sb.WriteString(styles.StatusWarning.Render(icons.Warning.String() +
			" Are you sure you want to delete this post? This action cannot be undone. (y/n)"))
		sb.WriteString("\n\n")
	} else if v.owner {
		sb.WriteString(ownerActions())
		sb.WriteString("\n\n")
	}

	body := posts.Body(*v.post)
	if body == "" {
		body = "No content available"
	}
	bodyWidth := max(v.width-6, 20)
	rendered := styles.Panel.Width(bodyWidth).Render(body)
	sb.WriteString(v.scroll(rendered, max(v.height-lipgloss.Height(sb.String()), 3)))

	return sb.String()
}

// ownerActions renders the edit and delete shortcuts shown to the author
func ownerActions() string {
	edit := icons.Edit.String() + " " + styles.KeyStyle.Render("e") + " Edit"
	del := icons.Delete.String() + " " + styles.KeyStyle.Render("d") + " Delete"
	return styles.Meta.Render(edit + "    " + del)
}

// scroll clips rendered to height lines starting at the current offset
func (v *View) scroll(rendered string, height int) string {
	lines := strings.Split(rendered, "\n")
	if v.offset > len(lines)-height {
		v.offset = max(len(lines)-height, 0)
	}
	end := min(v.offset+height, len(lines))
	return strings.Join(lines[v.offset:end], "\n")
}
