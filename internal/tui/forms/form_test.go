// ABOUTME: Tests for the TUI forms
// ABOUTME: Validates defaults, cancellation and error display

package forms

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samarblogs/blogcli/internal/client"
)

func TestNewPost_EditPrefills(t *testing.T) {
	f := NewPost(&client.Post{ID: "4", Title: "Hello world", Body: "An existing body of text"})

	if f.Kind() != KindEditPost {
		t.Errorf("expected edit form, got %s", f.Kind())
	}
	if f.Values().Title != "Hello world" {
		t.Errorf("expected title prefilled, got %q", f.Values().Title)
	}
	if f.postID != "4" {
		t.Errorf("expected post id 4, got %s", f.postID)
	}
}

func TestNewPost_Create(t *testing.T) {
	f := NewPost(nil)
	if f.Kind() != KindCreatePost {
		t.Errorf("expected create form, got %s", f.Kind())
	}
	if !strings.Contains(f.View(), "Create New Post") {
		t.Error("expected create title in view")
	}
	if !strings.Contains(f.View(), "0/100") {
		t.Error("expected title counter in view")
	}
}

func TestNewLogin_KeepsEmail(t *testing.T) {
	f := NewLogin("test@example.com")
	if f.Values().Email != "test@example.com" {
		t.Errorf("expected email kept, got %q", f.Values().Email)
	}
}

func TestEscCancels(t *testing.T) {
	f := NewRegister()
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(CancelledMsg)
	if !ok || msg.Kind != KindRegister {
		t.Errorf("expected CancelledMsg for register, got %#v", msg)
	}
}

func TestFail_ShowsErrorAndClearsSecrets(t *testing.T) {
	f := NewLogin("test@example.com")
	f.values.Password = "wrong"
	f.busy = true

	f.Fail("Invalid credentials")

	if f.Busy() {
		t.Error("expected form to accept input again")
	}
	if f.Values().Password != "" {
		t.Error("expected password to be cleared")
	}
	if f.Values().Email != "test@example.com" {
		t.Error("expected email to be kept")
	}
	if !strings.Contains(f.View(), "Invalid credentials") {
		t.Error("expected error in view")
	}
}

func TestBusyView(t *testing.T) {
	f := NewLogin("")
	f.busy = true
	if !strings.Contains(f.View(), "Signing In...") {
		t.Error("expected busy text while submitting")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindLogin, "Welcome Back"},
		{KindRegister, "Join Samar Blogs"},
		{KindCreatePost, "Create New Post"},
		{KindEditPost, "Edit Post"},
		{Kind(99), "Form"},
	}
	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
