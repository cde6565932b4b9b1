// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state, session updates and routes input to child components

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/guard"
	"github.com/samarblogs/blogcli/internal/logger"
	"github.com/samarblogs/blogcli/internal/oauth"
	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/session"
	"github.com/samarblogs/blogcli/internal/tui/feedview"
	"github.com/samarblogs/blogcli/internal/tui/forms"
	"github.com/samarblogs/blogcli/internal/tui/icons"
	"github.com/samarblogs/blogcli/internal/tui/menu"
	"github.com/samarblogs/blogcli/internal/tui/postview"
	"github.com/samarblogs/blogcli/internal/tui/styles"
	"github.com/samarblogs/blogcli/internal/tui/widgets"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenGoogle
	ScreenPosts
	ScreenPost
	ScreenEditor
)

// protected reports whether the screen needs a signed-in user
func (s Screen) protected() bool {
	return s == ScreenPosts || s == ScreenPost || s == ScreenEditor
}

// Layout constants
const (
	minTerminalWidth = 80 // Minimum frame width
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// PostAPI is the part of the API client the post screens use
type PostAPI interface {
	ListPosts(ctx context.Context, params client.ListPostsParams) (*client.PostList, error)
	GetPost(ctx context.Context, id client.ID) (*client.Post, error)
	CreatePost(ctx context.Context, input client.PostInput) (*client.Post, error)
	UpdatePost(ctx context.Context, id client.ID, input client.PostInput) (*client.Post, error)
	DeletePost(ctx context.Context, id client.ID) (string, error)
}

// GoogleSignIn starts a browser sign-in
type GoogleSignIn interface {
	Start(ctx context.Context) (*oauth.Pending, error)
}

// sessionMsg carries a session change from the store subscription
type sessionMsg struct {
	state session.State
	ok    bool
}

// authResultMsg is sent when a login or register call returns
type authResultMsg struct {
	kind forms.Kind
	err  error
}

// feedLoadedMsg is sent when a page of posts arrives
type feedLoadedMsg struct {
	query client.ListPostsParams
	list  *client.PostList
	err   error
}

// postLoadedMsg is sent when a single post arrives
type postLoadedMsg struct {
	id   client.ID
	post *client.Post
	err  error
}

// postSavedMsg is sent when a create or update call returns
type postSavedMsg struct {
	kind forms.Kind
	post *client.Post
	err  error
}

// postDeletedMsg is sent when a delete call returns
type postDeletedMsg struct {
	id  client.ID
	err error
}

// googleStartedMsg is sent once the callback listener is up
type googleStartedMsg struct {
	pending *oauth.Pending
	err     error
}

// googleDoneMsg is sent when the browser sign-in finishes
type googleDoneMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	api     PostAPI
	session *session.Store
	google  GoogleSignIn
	guard   *guard.Guard

	ctx         context.Context
	cancel      context.CancelFunc
	updates     <-chan session.State
	unsubscribe func()

	screen     Screen
	returnTo   Screen
	width      int
	height     int
	state      session.State
	notice     string
	lastUpdate time.Time

	// Child models
	menu     *menu.Menu
	form     *forms.Form
	feedView *feedview.FeedView
	postView *postview.View
	search   textinput.Model
	spinner  spinner.Model
	loading  bool

	googleURL    string
	googleCancel context.CancelFunc
}

// New creates a new TUI application. google may be nil to hide browser sign-in.
func New(api PostAPI, sess *session.Store, google GoogleSignIn) *App {
	ctx, cancel := context.WithCancel(context.Background())
	updates, unsubscribe := sess.Subscribe()

	search := textinput.New()
	search.Placeholder = "Search posts..."
	search.Prompt = icons.Search.String() + " "
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	a := &App{
		api:         api,
		session:     sess,
		google:      google,
		ctx:         ctx,
		cancel:      cancel,
		updates:     updates,
		unsubscribe: unsubscribe,
		screen:      ScreenPosts,
		state:       sess.State(),
		menu:        menu.New(),
		feedView:    feedview.New(minTerminalWidth-panelPadding, 20),
		postView:    postview.New(minTerminalWidth-panelPadding, 20),
		search:      search,
		spinner:     sp,
	}
	a.guard = guard.New(a)
	return a
}

// ToLogin implements guard.Navigator
func (a *App) ToLogin() {
	slog.Debug("Redirecting to sign-in", "from", a.screen)
	a.screen = ScreenMenu
	a.form = nil
	a.loading = false
	a.menu = menu.New()
	a.menu.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitForSession(),
		a.startSession(),
		a.spinner.Tick,
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.feedView.SetSize(a.contentWidth(), a.contentHeight())
		a.postView.SetSize(a.contentWidth(), a.contentHeight())
		a.search.Width = max(a.contentWidth()-4, 10)
		a.menu.Update(msg)
		if a.form != nil {
			a.form.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}

		// Route to current screen
		switch a.screen {
		case ScreenMenu:
			return a.updateMenu(msg)
		case ScreenLogin, ScreenRegister, ScreenEditor:
			return a.updateForm(msg)
		case ScreenGoogle:
			return a.updateGoogle(msg)
		case ScreenPosts:
			return a.updatePosts(msg)
		case ScreenPost:
			return a.updatePost(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loading && a.state.Phase() != session.PhaseUnknown && a.screen != ScreenGoogle {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionMsg:
		return a.handleSession(msg)

	case menu.SelectedMsg:
		return a.handleMenuChoice(msg)

	case forms.SubmittedMsg:
		return a.handleSubmitted(msg)

	case forms.CancelledMsg:
		return a.handleCancelled(msg)

	case authResultMsg:
		return a.handleAuthResult(msg)

	case googleStartedMsg:
		return a.handleGoogleStarted(msg)

	case googleDoneMsg:
		return a.handleGoogleDone(msg)

	case feedLoadedMsg:
		return a.handleFeedLoaded(msg)

	case postLoadedMsg:
		return a.handlePostLoaded(msg)

	case postSavedMsg:
		return a.handlePostSaved(msg)

	case postDeletedMsg:
		return a.handlePostDeleted(msg)

	default:
		// Forward unknown messages to the active huh form (needed for its internals)
		switch a.screen {
		case ScreenMenu:
			model, cmd := a.menu.Update(msg)
			a.menu = model.(*menu.Menu)
			return a, cmd
		case ScreenLogin, ScreenRegister, ScreenEditor:
			if a.form != nil {
				model, cmd := a.form.Update(msg)
				a.form = model.(*forms.Form)
				return a, cmd
			}
		case ScreenPosts:
			if a.search.Focused() {
				var cmd tea.Cmd
				a.search, cmd = a.search.Update(msg)
				return a, cmd
			}
		}
	}

	return a, nil
}

// handleSession applies a session change and re-checks access
func (a *App) handleSession(msg sessionMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return a, nil
	}
	a.state = msg.state
	cmds := []tea.Cmd{a.waitForSession()}

	if a.state.Phase() == session.PhaseAuthenticated && !a.screen.protected() && a.screen != ScreenGoogle {
		cmds = append(cmds, a.openFeed())
	}
	cmds = append(cmds, a.checkAccess())
	return a, tea.Batch(cmds...)
}

// checkAccess runs the guard while a protected screen is shown
func (a *App) checkAccess() tea.Cmd {
	if !a.screen.protected() {
		return nil
	}
	before := a.screen
	a.guard.Evaluate(a.state)
	if a.screen != before {
		return a.menu.Init()
	}
	return nil
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	model, cmd := a.menu.Update(msg)
	a.menu = model.(*menu.Menu)
	return a, cmd
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.form == nil {
		return a, nil
	}
	model, cmd := a.form.Update(msg)
	a.form = model.(*forms.Form)
	return a, cmd
}

func (a *App) updateGoogle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b":
		a.cancelGoogle()
		a.notice = ""
		return a, a.showMenu()
	case "q":
		return a, a.quit()
	}
	return a, nil
}

func (a *App) updatePosts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if guard.Decide(a.state) != guard.Render {
		if msg.String() == "q" {
			return a, a.quit()
		}
		return a, nil
	}

	if a.search.Focused() {
		switch msg.String() {
		case "esc":
			a.search.Blur()
			a.search.SetValue(a.feedView.Feed().Search)
			return a, nil
		case "enter":
			a.search.Blur()
			f := a.feedView.Feed()
			f.SetSearch(strings.TrimSpace(a.search.Value()))
			a.feedView.SetFeed(f)
			a.feedView.ResetSelection()
			return a, a.loadFeed()
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "/":
		a.search.SetValue(a.feedView.Feed().Search)
		a.search.CursorEnd()
		return a, a.search.Focus()
	case "esc":
		if a.feedView.Feed().Search != "" {
			f := a.feedView.Feed()
			f.SetSearch("")
			a.feedView.SetFeed(f)
			a.search.SetValue("")
			return a, a.loadFeed()
		}
	case "right", "n":
		f := a.feedView.Feed()
		if f.Next() {
			a.feedView.SetFeed(f)
			a.feedView.ResetSelection()
			return a, a.loadFeed()
		}
	case "left", "p":
		f := a.feedView.Feed()
		if f.Prev() {
			a.feedView.SetFeed(f)
			a.feedView.ResetSelection()
			return a, a.loadFeed()
		}
	case "up", "k":
		a.feedView.Up()
	case "down", "j":
		a.feedView.Down()
	case "enter":
		if i := a.feedView.Selected(); i >= 0 {
			p := a.feedView.Feed().Posts[i]
			return a, a.openPost(p)
		}
	case "c":
		return a, a.openEditor(nil)
	case "r":
		a.notice = ""
		return a, a.loadFeed()
	case "L":
		a.notice = signedOutNotice
		return a, a.logout()
	}
	return a, nil
}

func (a *App) updatePost(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if guard.Decide(a.state) != guard.Render {
		if msg.String() == "q" {
			return a, a.quit()
		}
		return a, nil
	}

	p := a.postView.Post()
	if a.postView.Confirming() {
		switch msg.String() {
		case "y":
			a.postView.CancelDelete()
			a.postView.SetStatus("Deleting...")
			return a, a.deletePost(p.ID)
		case "n", "esc":
			a.postView.CancelDelete()
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a, a.quit()
	case "b", "esc":
		a.screen = ScreenPosts
		return a, nil
	case "up", "k":
		a.postView.ScrollUp()
	case "down", "j":
		a.postView.ScrollDown()
	case "e":
		if p == nil {
			return a, nil
		}
		if err := posts.CheckOwner(*p, a.state.User); err != nil {
			a.postView.SetError(err.Error())
			return a, nil
		}
		return a, a.openEditor(p)
	case "d":
		if p == nil {
			return a, nil
		}
		if err := posts.CheckOwner(*p, a.state.User); err != nil {
			a.postView.SetError("You don't have permission to delete this post")
			return a, nil
		}
		a.postView.AskDelete()
	}
	return a, nil
}

func (a *App) handleMenuChoice(msg menu.SelectedMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	switch msg.Choice {
	case menu.ChoiceLogin:
		return a, a.showForm(ScreenLogin, forms.NewLogin(""))
	case menu.ChoiceRegister:
		return a, a.showForm(ScreenRegister, forms.NewRegister())
	case menu.ChoiceGoogle:
		if a.google == nil {
			a.notice = "Google sign-in is not available."
			return a, nil
		}
		return a, a.startGoogle()
	case menu.ChoiceQuit:
		return a, a.quit()
	}
	return a, nil
}

func (a *App) handleSubmitted(msg forms.SubmittedMsg) (tea.Model, tea.Cmd) {
	v := msg.Values
	switch msg.Kind {
	case forms.KindLogin:
		return a, func() tea.Msg {
			_, err := a.session.Login(a.ctx, strings.TrimSpace(v.Email), v.Password)
			return authResultMsg{kind: forms.KindLogin, err: err}
		}
	case forms.KindRegister:
		return a, func() tea.Msg {
			_, err := a.session.Register(a.ctx, strings.TrimSpace(v.Name), strings.TrimSpace(v.Email), v.Password)
			return authResultMsg{kind: forms.KindRegister, err: err}
		}
	case forms.KindCreatePost:
		input := client.PostInput{Title: strings.TrimSpace(v.Title), Body: strings.TrimSpace(v.Body)}
		return a, func() tea.Msg {
			p, err := a.api.CreatePost(a.ctx, input)
			return postSavedMsg{kind: forms.KindCreatePost, post: p, err: err}
		}
	case forms.KindEditPost:
		id := msg.PostID
		input := client.PostInput{Title: strings.TrimSpace(v.Title), Body: strings.TrimSpace(v.Body)}
		return a, func() tea.Msg {
			p, err := a.api.UpdatePost(a.ctx, id, input)
			return postSavedMsg{kind: forms.KindEditPost, post: p, err: err}
		}
	}
	return a, nil
}

func (a *App) handleCancelled(msg forms.CancelledMsg) (tea.Model, tea.Cmd) {
	switch msg.Kind {
	case forms.KindLogin, forms.KindRegister:
		return a, a.showMenu()
	default:
		a.form = nil
		a.screen = a.returnTo
		return a, a.checkAccess()
	}
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if a.form == nil || a.form.Kind() != msg.kind {
		return a, nil
	}
	if msg.err != nil {
		return a, a.form.Fail(msg.err.Error())
	}

	a.state = a.session.State()
	if a.state.Phase() != session.PhaseAuthenticated {
		text := "Login failed"
		if msg.kind == forms.KindRegister {
			text = "Registration failed"
		}
		return a, a.form.Fail(text)
	}
	return a, a.openFeed()
}

func (a *App) handleGoogleStarted(msg googleStartedMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenGoogle {
		return a, nil
	}
	if msg.err != nil {
		a.cancelGoogle()
		a.notice = msg.err.Error()
		return a, a.showMenu()
	}
	a.googleURL = msg.pending.URL
	pending := msg.pending
	return a, func() tea.Msg {
		_, err := pending.Wait()
		return googleDoneMsg{err: err}
	}
}

func (a *App) handleGoogleDone(msg googleDoneMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenGoogle {
		return a, nil
	}
	a.cancelGoogle()
	if msg.err != nil {
		a.notice = googleErrorText(msg.err)
		return a, a.showMenu()
	}
	a.state = a.session.State()
	return a, a.openFeed()
}

func googleErrorText(err error) string {
	var cbErr *oauth.CallbackError
	switch {
	case errors.As(err, &cbErr):
		return cbErr.Error()
	case errors.Is(err, oauth.ErrOAuthFailed):
		return "Google sign-in failed. Please try again."
	default:
		return client.ErrorMessage(err)
	}
}

func (a *App) handleFeedLoaded(msg feedLoadedMsg) (tea.Model, tea.Cmd) {
	f := a.feedView.Feed()
	if msg.query != f.Query() {
		// A newer page or search was requested meanwhile
		return a, nil
	}
	f.Apply(msg.list, msg.err)
	if msg.err == nil && f.PastEnd() {
		// Posts were removed since the page was chosen
		f.Page = f.TotalPages
		a.feedView.SetFeed(f)
		return a, a.loadFeed()
	}
	a.loading = false
	a.feedView.SetFeed(f)
	if msg.err == nil {
		a.lastUpdate = time.Now()
	}
	return a, a.refreshIfUnauthorized(msg.err)
}

func (a *App) handlePostLoaded(msg postLoadedMsg) (tea.Model, tea.Cmd) {
	current := a.postView.Post()
	if a.screen != ScreenPost || current == nil || current.ID != msg.id {
		return a, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, client.ErrPostNotFound) {
			a.postView.SetError("Post not found")
		} else {
			a.postView.SetError(client.ErrorMessage(msg.err))
		}
		return a, a.refreshIfUnauthorized(msg.err)
	}
	a.postView.SetPost(msg.post, posts.CheckOwner(*msg.post, a.state.User) == nil)
	return a, nil
}

func (a *App) handlePostSaved(msg postSavedMsg) (tea.Model, tea.Cmd) {
	if a.screen != ScreenEditor || a.form == nil {
		return a, nil
	}
	if msg.err != nil {
		text := "Failed to create post"
		if msg.kind == forms.KindEditPost {
			text = "Failed to update post"
		}
		if m := client.ErrorMessage(msg.err); m != "" {
			text = m
		}
		return a, tea.Batch(a.form.Fail(text), a.refreshIfUnauthorized(msg.err))
	}

	a.form = nil
	if msg.kind == forms.KindEditPost && msg.post != nil {
		a.screen = ScreenPost
		a.postView.SetPost(msg.post, true)
		a.postView.SetStatus("Post updated")
		return a, a.loadFeed()
	}

	a.screen = ScreenPosts
	a.notice = "Post published."
	f := a.feedView.Feed()
	f.Page = 1
	a.feedView.SetFeed(f)
	a.feedView.ResetSelection()
	return a, a.loadFeed()
}

func (a *App) handlePostDeleted(msg postDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if a.screen == ScreenPost {
			a.postView.SetError("Failed to delete post: " + client.ErrorMessage(msg.err))
		}
		return a, a.refreshIfUnauthorized(msg.err)
	}
	if a.screen == ScreenPost {
		a.screen = ScreenPosts
	}
	a.notice = "Post deleted."
	return a, a.loadFeed()
}

// refreshIfUnauthorized re-checks the session after a 401 so the guard can act
func (a *App) refreshIfUnauthorized(err error) tea.Cmd {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
		return nil
	}
	return func() tea.Msg {
		a.session.Refresh(a.ctx)
		return nil
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenMenu:
		content = a.viewMenu()
	case ScreenLogin, ScreenRegister:
		content = a.viewForm()
	case ScreenGoogle:
		content = a.viewGoogle()
	case ScreenPosts, ScreenPost, ScreenEditor:
		content = a.viewProtected()
	default:
		content = a.viewMenu()
	}

	return a.wrapWithFrame(content)
}

const signedOutNotice = "You have been signed out."

// viewMenu renders the sign-in menu with any notice above it
func (a *App) viewMenu() string {
	var sb strings.Builder
	switch a.notice {
	case "":
	case signedOutNotice:
		sb.WriteString(styles.Subtitle.Render(icons.Logout.String() + " " + a.notice))
		sb.WriteString("\n\n")
	default:
		sb.WriteString(widgets.StatusText(a.notice, widgets.StatusWarning))
		sb.WriteString("\n\n")
	}
	sb.WriteString(a.menu.View())
	return sb.String()
}

func (a *App) viewForm() string {
	if a.form == nil {
		return ""
	}
	return a.form.View()
}

func (a *App) viewGoogle() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Google.String() + " Continue with Google"))
	sb.WriteString("\n")
	if a.googleURL == "" {
		sb.WriteString(a.spinner.View() + " Starting sign-in...")
		return sb.String()
	}
	sb.WriteString("Open this address in your browser to sign in:\n\n")
	sb.WriteString(styles.Panel.Render(a.googleURL))
	sb.WriteString("\n\n")
	sb.WriteString(styles.Subtitle.Render(a.spinner.View() + " Waiting for the browser to finish..."))
	return sb.String()
}

// viewProtected renders a protected screen through the guard decision
func (a *App) viewProtected() string {
	switch d := guard.Decide(a.state); d {
	case guard.Loading:
		return styles.Subtitle.Render(a.spinner.View() + " " + d.Placeholder())
	case guard.Redirect:
		return styles.Subtitle.Render(icons.Login.String() + " " + d.Placeholder())
	}

	switch a.screen {
	case ScreenPosts:
		return a.viewPosts()
	case ScreenPost:
		return styles.ActivePanel.Width(a.contentWidth()).Render(a.postView.View())
	default:
		return a.viewForm()
	}
}

// viewPosts renders the search bar, notices and the feed
func (a *App) viewPosts() string {
	var sb strings.Builder

	if a.search.Focused() || a.feedView.Feed().Search != "" {
		sb.WriteString(a.search.View())
		sb.WriteString("\n")
	}
	if a.notice != "" {
		sb.WriteString(widgets.StatusText(a.notice, widgets.StatusOK))
		sb.WriteString("\n")
	}
	if a.loading {
		sb.WriteString(styles.Subtitle.Render(a.spinner.View() + " Loading posts..."))
		sb.WriteString("\n")
	}
	sb.WriteString(a.feedView.View())

	return sb.String()
}

// contentWidth calculates the width available inside the frame
func (a *App) contentWidth() int {
	if a.width < minTerminalWidth {
		return minTerminalWidth - panelPadding
	}
	return a.width - panelPadding
}

// contentHeight calculates the height available for screen content
func (a *App) contentHeight() int {
	// Header, footer, the newlines around content and the panel border
	return max(a.height-6, 5)
}

// frameWidth is the header and footer width. One less than the terminal
// to avoid wrapping on some terminals, never below minTerminalWidth.
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// renderHeader creates the header bar with app branding and session state
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	icon := icons.App.String()
	title := "Samar Blogs"

	// Build left content
	leftText := fmt.Sprintf(" %s %s ", icon, titleStyle.Render(title))

	// Build right content: who is signed in
	rightText := " " + widgets.SessionBadge(a.state.Phase()) + " "
	if u := a.state.User; u != nil && !a.state.Loading {
		named := " " + contextStyle.Render(u.Name) + rightText
		if lipgloss.Width(leftText)+lipgloss.Width(named) <= width-4 {
			rightText = named
		}
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := max(width-4-leftWidth-rightWidth, 0) // -4 for ╭─ and ─╮

	fill := strings.Repeat("─", fillWidth)

	return borderStyle.Render("╭─") + leftText + borderStyle.Render(fill) + rightText + borderStyle.Render("─╮")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	// Right side status (last feed update)
	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && (a.screen == ScreenPosts || a.screen == ScreenPost) {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = "Updated " + elapsed + " "
	}

	// Drop trailing shortcuts, then the status, until the line fits
	shortcuts := a.shortcuts()
	fits := func() bool {
		return lipgloss.Width(" "+strings.Join(shortcuts, "  "))+lipgloss.Width(rightPlainText) <= width-4
	}
	for len(shortcuts) > 1 && !fits() {
		shortcuts = shortcuts[:len(shortcuts)-1]
	}
	if !fits() {
		rightText, rightPlainText = "", ""
	}

	// Build styled shortcuts
	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := max(width-4-leftWidth-rightWidth, 0) // -4 for ╰─ and ─╯

	fill := strings.Repeat("─", fillWidth)

	return borderStyle.Render("╰─") + leftText + borderStyle.Render(fill) + rightText + borderStyle.Render("─╯")
}

// shortcuts lists the keys shown in the footer for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenLogin, ScreenRegister:
		return []string{"Tab Next", "Enter Submit", "Esc Back"}
	case ScreenGoogle:
		return []string{"Esc Cancel", "q Quit"}
	case ScreenPosts:
		if a.search.Focused() {
			return []string{"Enter Search", "Esc Cancel"}
		}
		return []string{"↑↓ Select", "Enter Open", "←→ Page", "/ Search", "c New", "r Refresh", "L Logout", "q Quit"}
	case ScreenPost:
		if a.postView.Confirming() {
			return []string{"y Delete", "n Keep"}
		}
		if a.postView.Owner() {
			return []string{"↑↓ Scroll", "e Edit", "d Delete", "b Back", "q Quit"}
		}
		return []string{"↑↓ Scroll", "b Back", "q Quit"}
	case ScreenEditor:
		return []string{"Tab Next", "Enter Save", "Esc Cancel"}
	}
	return nil
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}

	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// waitForSession delivers the next session change as a sessionMsg
func (a *App) waitForSession() tea.Cmd {
	updates := a.updates
	return func() tea.Msg {
		st, ok := <-updates
		return sessionMsg{state: st, ok: ok}
	}
}

// startSession runs the initial identity check
func (a *App) startSession() tea.Cmd {
	return func() tea.Msg {
		a.session.Start(a.ctx)
		return nil
	}
}

// showMenu returns to the sign-in menu
func (a *App) showMenu() tea.Cmd {
	a.ToLogin()
	return a.menu.Init()
}

// showForm switches to a form screen
func (a *App) showForm(screen Screen, f *forms.Form) tea.Cmd {
	a.form = f
	a.form.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	a.screen = screen
	return a.form.Init()
}

// openFeed switches to the post feed and loads the current page
func (a *App) openFeed() tea.Cmd {
	a.screen = ScreenPosts
	a.form = nil
	a.notice = ""
	return tea.Batch(a.loadFeed(), a.checkAccess())
}

// loadFeed fetches the page the feed currently points at
func (a *App) loadFeed() tea.Cmd {
	a.loading = true
	q := a.feedView.Feed().Query()
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		list, err := a.api.ListPosts(a.ctx, q)
		return feedLoadedMsg{query: q, list: list, err: err}
	})
}

// openPost shows p straight away and fetches the full post behind it
func (a *App) openPost(p client.Post) tea.Cmd {
	a.screen = ScreenPost
	a.notice = ""
	a.postView.SetPost(&p, posts.CheckOwner(p, a.state.User) == nil)
	id := p.ID
	return func() tea.Msg {
		full, err := a.api.GetPost(a.ctx, id)
		return postLoadedMsg{id: id, post: full, err: err}
	}
}

// openEditor switches to the post form. A nil post creates a new one.
func (a *App) openEditor(p *client.Post) tea.Cmd {
	a.returnTo = a.screen
	a.notice = ""
	return a.showForm(ScreenEditor, forms.NewPost(p))
}

func (a *App) deletePost(id client.ID) tea.Cmd {
	return func() tea.Msg {
		_, err := a.api.DeletePost(a.ctx, id)
		return postDeletedMsg{id: id, err: err}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		a.session.Logout(a.ctx)
		return nil
	}
}

// startGoogle opens the waiting screen and starts the callback listener
func (a *App) startGoogle() tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.googleCancel = cancel
	a.googleURL = ""
	a.screen = ScreenGoogle
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		pending, err := a.google.Start(ctx)
		return googleStartedMsg{pending: pending, err: err}
	})
}

func (a *App) cancelGoogle() {
	if a.googleCancel != nil {
		a.googleCancel()
		a.googleCancel = nil
	}
	a.googleURL = ""
}

// quit stops background work and exits
func (a *App) quit() tea.Cmd {
	a.cancelGoogle()
	a.cancel()
	a.unsubscribe()
	return tea.Quit
}

// Run starts the TUI. Logs go to debug.log in configDir so they do not
// corrupt the screen.
func Run(api PostAPI, sess *session.Store, google GoogleSignIn, configDir string) error {
	if err := logger.InitFile(configDir); err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	defer logger.Close()

	app := New(api, sess, google)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
