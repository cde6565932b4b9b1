// ABOUTME: Tests for the post detail view
// ABOUTME: Validates body rendering, delete prompt and scrolling

package postview

import (
	"strings"
	"testing"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/tui/icons"
)

func TestViewLoading(t *testing.T) {
	v := New(80, 24)
	if !strings.Contains(v.View(), "Loading post") {
		t.Error("expected loading text before a post is set")
	}
}

func TestViewRendersPost(t *testing.T) {
	v := New(100, 40)
	v.SetPost(&client.Post{
		ID:        "4",
		Title:     "Travel notes",
		Body:      "<p>Went to Lisbon &amp; Porto</p>",
		CreatedAt: "2024-03-08T12:00:00Z",
		Author:    &client.PostAuthor{Name: "Samar"},
	}, true)

	view := v.View()
	for _, expected := range []string{"Travel notes", "Lisbon & Porto", "Samar", "2024"} {
		if !strings.Contains(view, expected) {
			t.Errorf("expected view to contain %q\nView:\n%s", expected, view)
		}
	}
	if !v.Owner() {
		t.Error("expected owner flag to be kept")
	}
}

func TestViewOwnerActions(t *testing.T) {
	v := New(100, 40)
	v.SetPost(&client.Post{ID: "1", Title: "Hello world", Body: "body"}, true)

	view := v.View()
	for _, expected := range []string{icons.Edit.String(), "Edit", icons.Delete.String(), "Delete"} {
		if !strings.Contains(view, expected) {
			t.Errorf("expected owner view to contain %q\nView:\n%s", expected, view)
		}
	}

	v.AskDelete()
	if strings.Contains(v.View(), icons.Edit.String()) {
		t.Error("expected actions hidden while confirming")
	}

	v.SetPost(&client.Post{ID: "2", Title: "Someone else", Body: "body"}, false)
	if strings.Contains(v.View(), icons.Delete.String()) {
		t.Error("expected no actions for a post the user does not own")
	}
}

func TestViewDeletePrompt(t *testing.T) {
	v := New(100, 40)
	v.SetPost(&client.Post{ID: "1", Title: "Hello world", Body: "body"}, true)

	v.AskDelete()
	if !v.Confirming() || !strings.Contains(v.View(), "cannot be undone") {
		t.Error("expected delete confirmation prompt")
	}
	v.CancelDelete()
	if v.Confirming() {
		t.Error("expected prompt to close")
	}

	v.AskDelete()
	v.SetPost(&client.Post{ID: "2", Title: "Other"}, false)
	if v.Confirming() {
		t.Error("expected a new post to reset the prompt")
	}
}

func TestViewErrorAndStatus(t *testing.T) {
	v := New(100, 40)
	v.SetPost(&client.Post{ID: "1", Title: "Hello world", Body: "body"}, true)

	v.SetStatus("Deleting...")
	if !strings.Contains(v.View(), "Deleting...") {
		t.Error("expected status line")
	}
	v.SetError("Failed to delete post")
	view := v.View()
	if !strings.Contains(view, "Failed to delete post") || strings.Contains(view, "Deleting...") {
		t.Errorf("expected error to replace status\nView:\n%s", view)
	}
}

func TestViewScrollClamps(t *testing.T) {
	v := New(80, 10)
	v.SetPost(&client.Post{ID: "1", Title: "Hello world", Body: strings.Repeat("line of text ", 200)}, false)

	v.ScrollUp()
	if v.offset != 0 {
		t.Errorf("expected offset 0, got %d", v.offset)
	}
	for i := 0; i < 1000; i++ {
		v.ScrollDown()
	}
	_ = v.View()
	if v.offset >= 1000 {
		t.Errorf("expected offset clamped by render, got %d", v.offset)
	}
}
