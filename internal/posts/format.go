// ABOUTME: Display helpers for posts: titles, excerpts, authors and dates
// ABOUTME: Post bodies are stripped of markup before they reach the terminal

package posts

import (
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"

	"github.com/samarblogs/blogcli/internal/client"
)

// ExcerptLength is how many characters of a body the feed shows
const ExcerptLength = 200

const dateLayout = "January 2, 2006 03:04 PM"

var strict = bluemonday.StrictPolicy()

// Title returns the post title or a placeholder
func Title(p client.Post) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "Untitled Post"
}

// Body returns the post body as plain text
func Body(p client.Post) string {
	return plain(p.Body)
}

// Excerpt returns the first ExcerptLength characters of the body
func Excerpt(p client.Post) string {
	body := plain(p.Body)
	if body == "" {
		return "No content available"
	}
	runes := []rune(body)
	if len(runes) > ExcerptLength {
		return string(runes[:ExcerptLength]) + "..."
	}
	return body
}

// Author names who wrote the post, falling back to the user id
func Author(p client.Post) string {
	if p.Author != nil && strings.TrimSpace(p.Author.Name) != "" {
		return p.Author.Name
	}
	if !p.UserID.IsZero() {
		return p.UserID.String()
	}
	return "Anonymous"
}

// Date formats a backend timestamp as an absolute date plus how long ago
// it was. Unparseable values are returned as is.
func Date(raw string, now time.Time) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format(dateLayout) + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

// plain strips markup and decodes entities
func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
