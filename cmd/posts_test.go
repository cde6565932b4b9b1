// ABOUTME: Tests for the post commands
// ABOUTME: Runs list, show, create, edit and delete against the fake backend

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/posts"
)

const longBody = "This body is comfortably longer than twenty characters."

// resetPostFlags clears post flags after a test
func resetPostFlags(t *testing.T) {
	t.Cleanup(func() {
		listPage, listLimit, listSearch = 1, client.DefaultPageSize, ""
		postTitle, postBody, postBodyIn = "", "", ""
		deleteForce = false
		stdin = os.Stdin
	})
}

func TestPostsList_RequiresSession(t *testing.T) {
	setupBackend(t)
	resetPostFlags(t)

	var buf bytes.Buffer
	exitCode := runPostsList(context.Background(), &buf)

	if exitCode != exitUnauthenticated {
		t.Errorf("expected exit code %d, got %d: %s", exitUnauthenticated, exitCode, buf.String())
	}
}

func TestPostsList_Pages(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	for i := 1; i <= 7; i++ {
		server.AddPost("Post number "+strconv.Itoa(i), longBody, uid)
	}

	listPage = 2
	var buf bytes.Buffer
	exitCode := runPostsList(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	output := buf.String()
	if !strings.Contains(output, "Page 2 of 2 (7 posts)") {
		t.Errorf("expected page info, got:\n%s", output)
	}
	if !strings.Contains(output, "by Test User") && !strings.Contains(output, "by "+strconv.Itoa(uid)) {
		t.Errorf("expected author line, got:\n%s", output)
	}
}

func TestPostsList_SearchEmpty(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	signIn(t, server)

	listSearch = "zig"
	var buf bytes.Buffer
	if code := runPostsList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), `No posts match "zig"`) {
		t.Errorf("expected empty search message, got %q", buf.String())
	}
	if got := server.LastRequest().Query.Get("search"); got != "zig" {
		t.Errorf("expected search param zig, got %q", got)
	}
}

func TestPostsList_JSON(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	server.AddPost("Hello world", longBody, uid)
	jsonOutput = true

	var buf bytes.Buffer
	if code := runPostsList(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	var parsed client.PostList
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed.Posts) != 1 || parsed.Posts[0].Title != "Hello world" {
		t.Errorf("unexpected posts %+v", parsed.Posts)
	}
}

func TestPostsList_InvalidPage(t *testing.T) {
	setupBackend(t)
	resetPostFlags(t)
	listPage = 0

	var buf bytes.Buffer
	if code := runPostsList(context.Background(), &buf); code != exitUsage {
		t.Errorf("expected exit code %d, got %d", exitUsage, code)
	}
}

func TestPostsList_PagePastEnd(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	for i := 1; i <= 7; i++ {
		server.AddPost("Post number "+strconv.Itoa(i), longBody, uid)
	}

	listPage = 10
	var buf bytes.Buffer
	if code := runPostsList(context.Background(), &buf); code != exitUsage {
		t.Fatalf("expected exit code %d, got %d: %s", exitUsage, code, buf.String())
	}
	output := buf.String()
	if !strings.Contains(output, "--page 10 is past the last page (2)") {
		t.Errorf("expected out of range message, got %q", output)
	}
	if strings.Contains(output, "Page 2 of 2") {
		t.Errorf("expected no page caption for an out of range page, got %q", output)
	}
}

func TestPostsShow(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	id := server.AddPost("Travel notes", "<p>Went to Lisbon &amp; Porto last spring</p>", uid)

	var buf bytes.Buffer
	if code := runPostsShow(context.Background(), &buf, strconv.Itoa(id)); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Went to Lisbon & Porto") {
		t.Errorf("expected plain body, got %q", buf.String())
	}

	buf.Reset()
	if code := runPostsShow(context.Background(), &buf, "999"); code != exitUsage {
		t.Errorf("expected exit code %d for missing post, got %d", exitUsage, code)
	}
	if !strings.Contains(buf.String(), "post 999 not found") {
		t.Errorf("expected not found message, got %q", buf.String())
	}
}

func TestPostsCreate(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	signIn(t, server)

	postTitle = "My first post"
	postBody = longBody
	var buf bytes.Buffer
	if code := runPostsCreate(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Post published: My first post") {
		t.Errorf("expected confirmation, got %q", buf.String())
	}
	last := server.LastRequest()
	if last.Method != "POST" || last.Path != "/posts" {
		t.Errorf("expected POST /posts, got %s %s", last.Method, last.Path)
	}
}

func TestPostsCreate_ValidationBeforeRequest(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)

	postTitle = "Hey"
	postBody = longBody
	var buf bytes.Buffer
	if code := runPostsCreate(context.Background(), &buf); code != exitUsage {
		t.Errorf("expected exit code %d, got %d", exitUsage, code)
	}
	if !strings.Contains(buf.String(), "Title should be at least 5 characters") {
		t.Errorf("expected validation message, got %q", buf.String())
	}
	if len(server.Requests()) != 0 {
		t.Error("expected no requests for invalid input")
	}
}

func TestPostsCreate_BodyFromFile(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	signIn(t, server)

	path := filepath.Join(t.TempDir(), "body.md")
	if err := os.WriteFile(path, []byte(longBody+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	postTitle = "From a file"
	postBodyIn = path

	var buf bytes.Buffer
	if code := runPostsCreate(context.Background(), &buf); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
}

func TestPostsCreate_NotSignedIn(t *testing.T) {
	setupBackend(t)
	resetPostFlags(t)

	postTitle = "My first post"
	postBody = longBody
	var buf bytes.Buffer
	if code := runPostsCreate(context.Background(), &buf); code != exitUnauthenticated {
		t.Errorf("expected exit code %d, got %d", exitUnauthenticated, code)
	}
}

func TestPostsEdit_KeepsUnchangedFields(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	id := server.AddPost("Original title", longBody, uid)

	postTitle = "Better title"
	var buf bytes.Buffer
	if code := runPostsEdit(context.Background(), &buf, strconv.Itoa(id)); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Post updated: Better title") {
		t.Errorf("expected confirmation, got %q", buf.String())
	}

	var sent client.PostInput
	if err := json.Unmarshal([]byte(server.LastRequest().Body), &sent); err != nil {
		t.Fatalf("unexpected request body: %v", err)
	}
	if sent.Body != longBody {
		t.Errorf("expected body to be kept, got %q", sent.Body)
	}
}

func TestPostsEdit_NotOwner(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	signIn(t, server)
	other := server.AddUser("Someone Else", "else@example.com", "password")
	id := server.AddPost("Not yours", longBody, other)

	postTitle = "Hijacked title"
	var buf bytes.Buffer
	if code := runPostsEdit(context.Background(), &buf, strconv.Itoa(id)); code != exitUsage {
		t.Errorf("expected exit code %d, got %d", exitUsage, code)
	}
	if !strings.Contains(buf.String(), posts.ErrNotOwner.Error()) {
		t.Errorf("expected permission message, got %q", buf.String())
	}
	if server.LastRequest().Method == "PUT" {
		t.Error("expected no update request")
	}
}

func TestPostsDelete(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	id := server.AddPost("Short lived", longBody, uid)

	deleteForce = true
	var buf bytes.Buffer
	if code := runPostsDelete(context.Background(), &buf, strconv.Itoa(id)); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Post deleted") {
		t.Errorf("expected delete message, got %q", buf.String())
	}
}

func TestPostsDelete_DeclinedPrompt(t *testing.T) {
	server := setupBackend(t)
	resetPostFlags(t)
	uid := signIn(t, server)
	id := server.AddPost("Keep me around", longBody, uid)

	stdin = strings.NewReader("n\n")
	var buf bytes.Buffer
	if code := runPostsDelete(context.Background(), &buf, strconv.Itoa(id)); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "Cancelled.") {
		t.Errorf("expected cancel message, got %q", buf.String())
	}
	for _, r := range server.Requests() {
		if r.Method == "DELETE" {
			t.Error("expected no delete request")
		}
	}
}

func TestFormatListHuman(t *testing.T) {
	feed := posts.NewFeed()
	feed.Apply(&client.PostList{
		Posts: []client.Post{{
			ID:        "3",
			Title:     "",
			Body:      longBody,
			CreatedAt: "2024-03-08T12:00:00Z",
			Author:    &client.PostAuthor{Name: "Samar"},
		}},
		TotalPosts: 1,
		TotalPages: 1,
	}, nil)

	output := formatListHuman(feed, time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	for _, expected := range []string{"[3] Untitled Post", "by Samar on", "(2 days ago)", "Page 1 of 1 (1 posts)"} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected %q in output:\n%s", expected, output)
		}
	}
}
