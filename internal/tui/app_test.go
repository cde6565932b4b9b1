// ABOUTME: Integration tests for TUI app
// ABOUTME: Tests guard wiring, session transitions and post screen state

package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samarblogs/blogcli/internal/apitest"
	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/session"
	"github.com/samarblogs/blogcli/internal/tui/forms"
	"github.com/samarblogs/blogcli/internal/tui/icons"
	"github.com/samarblogs/blogcli/internal/tui/menu"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	server := apitest.New()
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app := New(c, session.New(c), nil)
	t.Cleanup(func() { app.quit() })

	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(*App)
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var signedIn = session.State{User: &client.User{ID: "1", Name: "Test User", Email: "test@example.com"}}

func TestAppInitialState(t *testing.T) {
	app := newTestApp(t)

	if app.screen != ScreenPosts {
		t.Errorf("expected initial screen to be ScreenPosts, got %d", app.screen)
	}
	if app.state.Phase() != session.PhaseUnknown {
		t.Errorf("expected unknown phase before the first check, got %s", app.state.Phase())
	}
	if !strings.Contains(app.View(), "Checking authentication...") {
		t.Error("expected loading placeholder while the session is unknown")
	}
}

func TestAppRedirectsAnonymousToMenu(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.Update(sessionMsg{state: session.State{}, ok: true})
	app = model.(*App)
	if app.screen != ScreenMenu {
		t.Fatalf("expected redirect to ScreenMenu, got %d", app.screen)
	}

	// A repeated anonymous update while signed out must not navigate again
	app.screen = ScreenLogin
	model, _ = app.Update(sessionMsg{state: session.State{}, ok: true})
	app = model.(*App)
	if app.screen != ScreenLogin {
		t.Errorf("expected to stay on ScreenLogin, got %d", app.screen)
	}
}

func TestAppAuthenticatedOpensFeed(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: session.State{}, ok: true})

	model, _ := app.Update(sessionMsg{state: signedIn, ok: true})
	app = model.(*App)
	if app.screen != ScreenPosts {
		t.Fatalf("expected ScreenPosts after sign-in, got %d", app.screen)
	}
	if !app.loading {
		t.Error("expected the feed to start loading")
	}
	if !strings.Contains(app.View(), "Test User") {
		t.Error("expected header to show the signed-in user")
	}
}

func TestAppLogoutRedirectsOnce(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	model, _ := app.Update(sessionMsg{state: session.State{}, ok: true})
	app = model.(*App)
	if app.screen != ScreenMenu {
		t.Fatalf("expected redirect after logout, got %d", app.screen)
	}

	// Signing in again re-arms the guard
	app.Update(sessionMsg{state: signedIn, ok: true})
	model, _ = app.Update(sessionMsg{state: session.State{}, ok: true})
	app = model.(*App)
	if app.screen != ScreenMenu {
		t.Errorf("expected second logout to redirect, got %d", app.screen)
	}
}

func TestAppLogoutKeyShowsSignedOutNotice(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	model, cmd := app.Update(keyPress("L"))
	app = model.(*App)
	if cmd == nil {
		t.Fatal("expected a logout command")
	}

	model, _ = app.Update(sessionMsg{state: session.State{}, ok: true})
	app = model.(*App)
	if app.screen != ScreenMenu {
		t.Fatalf("expected ScreenMenu after logout, got %d", app.screen)
	}
	view := app.View()
	if !strings.Contains(view, icons.Logout.String()+" You have been signed out.") {
		t.Errorf("expected signed out notice\nView:\n%s", view)
	}
}

func TestAppFeedLoaded(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	q := app.feedView.Feed().Query()
	list := &client.PostList{
		Posts:      []client.Post{{ID: "1", Title: "First post", Body: "Hello from the feed", UserID: "1"}},
		TotalPosts: 1,
		TotalPages: 1,
	}
	model, _ := app.Update(feedLoadedMsg{query: q, list: list})
	app = model.(*App)

	if app.loading {
		t.Error("expected loading to finish")
	}
	view := app.View()
	if !strings.Contains(view, "First post") {
		t.Errorf("expected post title in view\nView:\n%s", view)
	}
	if app.lastUpdate.IsZero() {
		t.Error("expected last update time to be set")
	}
}

func TestAppFeedLoadedIgnoresStaleQuery(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	stale := app.feedView.Feed().Query()
	stale.Search = "old"
	list := &client.PostList{Posts: []client.Post{{ID: "9", Title: "Stale result"}}, TotalPages: 1}
	model, _ := app.Update(feedLoadedMsg{query: stale, list: list})
	app = model.(*App)

	if !app.loading {
		t.Error("expected a stale page not to end loading")
	}
	if len(app.feedView.Feed().Posts) != 0 {
		t.Error("expected stale posts to be dropped")
	}
}

func TestAppFeedPastEndReloadsLastPage(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	f := app.feedView.Feed()
	f.Page = 3
	app.feedView.SetFeed(f)

	q := app.feedView.Feed().Query()
	list := &client.PostList{Posts: []client.Post{}, TotalPosts: 6, TotalPages: 2}
	model, cmd := app.Update(feedLoadedMsg{query: q, list: list})
	app = model.(*App)

	if got := app.feedView.Feed().Page; got != 2 {
		t.Errorf("expected feed moved to last page 2, got %d", got)
	}
	if !app.loading || cmd == nil {
		t.Error("expected the last page to be fetched")
	}
}

func TestAppPostOwnership(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	app.openPost(client.Post{ID: "5", Title: "Someone else", Body: "Not mine at all", UserID: "2"})
	if app.screen != ScreenPost {
		t.Fatalf("expected ScreenPost, got %d", app.screen)
	}

	model, _ := app.Update(keyPress("e"))
	app = model.(*App)
	if app.screen != ScreenPost {
		t.Errorf("expected to stay on ScreenPost, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "You don't have permission to edit this post") {
		t.Error("expected permission error for another user's post")
	}

	model, _ = app.Update(keyPress("d"))
	app = model.(*App)
	if app.postView.Confirming() {
		t.Error("expected no delete prompt for another user's post")
	}
}

func TestAppOwnerCanEdit(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})

	app.openPost(client.Post{ID: "5", Title: "My own post", Body: "Written by me for testing", UserID: "1"})
	model, _ := app.Update(keyPress("e"))
	app = model.(*App)

	if app.screen != ScreenEditor {
		t.Fatalf("expected ScreenEditor, got %d", app.screen)
	}
	if app.form == nil || app.form.Kind() != forms.KindEditPost {
		t.Fatal("expected edit form")
	}
	if app.form.Values().Title != "My own post" {
		t.Errorf("expected form prefilled, got %q", app.form.Values().Title)
	}

	model, _ = app.Update(forms.CancelledMsg{Kind: forms.KindEditPost})
	app = model.(*App)
	if app.screen != ScreenPost {
		t.Errorf("expected cancel to return to ScreenPost, got %d", app.screen)
	}
}

func TestAppLoginFailureShowsError(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: session.State{}, ok: true})
	app.Update(menu.SelectedMsg{Choice: menu.ChoiceLogin})
	if app.screen != ScreenLogin {
		t.Fatalf("expected ScreenLogin, got %d", app.screen)
	}

	err := &session.AuthError{Op: "login", Err: &client.APIError{Status: 401, Message: "Invalid credentials"}}
	model, _ := app.Update(authResultMsg{kind: forms.KindLogin, err: err})
	app = model.(*App)

	if app.screen != ScreenLogin {
		t.Errorf("expected to stay on ScreenLogin, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "Invalid credentials") {
		t.Error("expected server message on the login form")
	}
}

func TestAppGoogleUnavailable(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: session.State{}, ok: true})

	model, _ := app.Update(menu.SelectedMsg{Choice: menu.ChoiceGoogle})
	app = model.(*App)
	if app.screen != ScreenMenu {
		t.Errorf("expected to stay on ScreenMenu, got %d", app.screen)
	}
	if !strings.Contains(app.View(), "Google sign-in is not available.") {
		t.Error("expected notice about Google sign-in")
	}
}

func TestAppPostDeleted(t *testing.T) {
	app := newTestApp(t)
	app.Update(sessionMsg{state: signedIn, ok: true})
	app.openPost(client.Post{ID: "5", Title: "My own post", UserID: "1"})

	model, _ := app.Update(postDeletedMsg{id: "5", err: errors.New("boom")})
	app = model.(*App)
	if app.screen != ScreenPost || !strings.Contains(app.View(), "Failed to delete post") {
		t.Error("expected delete failure to stay on the post with an error")
	}

	model, _ = app.Update(postDeletedMsg{id: "5"})
	app = model.(*App)
	if app.screen != ScreenPosts {
		t.Errorf("expected ScreenPosts after delete, got %d", app.screen)
	}
	if app.notice != "Post deleted." {
		t.Errorf("expected delete notice, got %q", app.notice)
	}
}

func TestFormatTimeSince(t *testing.T) {
	if got := formatTimeSince(timeAgo(2)); got != "just now" {
		t.Errorf("expected just now, got %q", got)
	}
	if got := formatTimeSince(timeAgo(90)); got != "1m ago" {
		t.Errorf("expected 1m ago, got %q", got)
	}
	if got := formatTimeSince(timeAgo(7200)); got != "2h ago" {
		t.Errorf("expected 2h ago, got %q", got)
	}
}
