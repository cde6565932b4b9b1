// ABOUTME: Login, register and post editor forms as bubbletea models
// ABOUTME: Wraps huh forms with a header box and a server error line

package forms

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/posts"
	"github.com/samarblogs/blogcli/internal/tui/icons"
	"github.com/samarblogs/blogcli/internal/tui/styles"
)

// Kind identifies which form is shown
type Kind int

const (
	KindLogin Kind = iota
	KindRegister
	KindCreatePost
	KindEditPost
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "Welcome Back"
	case KindRegister:
		return "Join Samar Blogs"
	case KindCreatePost:
		return "Create New Post"
	case KindEditPost:
		return "Edit Post"
	default:
		return "Form"
	}
}

// Values holds everything a form collects
type Values struct {
	Name     string
	Email    string
	Password string
	Confirm  string
	Title    string
	Body     string
}

// SubmittedMsg is sent when the user completes a form
type SubmittedMsg struct {
	Kind   Kind
	PostID client.ID
	Values Values
}

// CancelledMsg is sent when the user leaves a form with esc
type CancelledMsg struct {
	Kind Kind
}

// Form is a single screen form
type Form struct {
	kind   Kind
	postID client.ID
	values *Values
	form   *huh.Form
	width  int
	err    string
	busy   bool
}

// NewLogin creates the email and password form
func NewLogin(email string) *Form {
	return newForm(KindLogin, "", &Values{Email: email})
}

// NewRegister creates the sign-up form
func NewRegister() *Form {
	return newForm(KindRegister, "", &Values{})
}

// NewPost creates the editor. A nil post starts a new one.
func NewPost(p *client.Post) *Form {
	if p == nil {
		return newForm(KindCreatePost, "", &Values{})
	}
	return newForm(KindEditPost, p.ID, &Values{Title: p.Title, Body: p.Body})
}

func newForm(kind Kind, postID client.ID, v *Values) *Form {
	f := &Form{kind: kind, postID: postID, values: v}
	f.form = f.build()
	return f
}

func (f *Form) build() *huh.Form {
	var group *huh.Group
	switch f.kind {
	case KindLogin:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Email Address").
				Placeholder("Enter your email address").
				Value(&f.values.Email).
				Validate(posts.ValidateEmail),
			huh.NewInput().
				Title("Password").
				Placeholder("Enter your password").
				EchoMode(huh.EchoModePassword).
				Value(&f.values.Password).
				Validate(requirePassword),
		).Title(f.kind.String()).
			Description("Sign in to your account to continue sharing your stories")

	case KindRegister:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Full Name").
				Placeholder("Enter your full name").
				CharLimit(posts.NameMax).
				Value(&f.values.Name).
				Validate(posts.ValidateName),
			huh.NewInput().
				Title("Email Address").
				Placeholder("Enter your email address").
				Value(&f.values.Email).
				Validate(posts.ValidateEmail),
			huh.NewInput().
				Title("Password").
				Placeholder("Create a password (min 6 characters)").
				EchoMode(huh.EchoModePassword).
				CharLimit(posts.PasswordMax).
				Value(&f.values.Password).
				Validate(posts.ValidatePassword),
			huh.NewInput().
				Title("Confirm Password").
				Placeholder("Confirm your password").
				EchoMode(huh.EchoModePassword).
				Value(&f.values.Confirm).
				Validate(func(s string) error {
					return posts.ValidateConfirmation(f.values.Password, s)
				}),
		).Title(f.kind.String()).
			Description("Create your account and start sharing your stories")

	default:
		group = huh.NewGroup(
			huh.NewInput().
				Title("Post Title").
				Placeholder("Enter an engaging title for your post...").
				CharLimit(posts.TitleMax).
				Value(&f.values.Title).
				Validate(posts.ValidateTitle),
			huh.NewText().
				Title("Post Content").
				Placeholder("Share your thoughts, experiences, or insights...").
				CharLimit(posts.BodyMax).
				Lines(10).
				Value(&f.values.Body).
				Validate(posts.ValidateBody),
		).Title(f.kind.String())
	}

	return huh.NewForm(group).WithTheme(Theme()).WithShowHelp(true)
}

func requirePassword(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("Please enter your password")
	}
	return nil
}

// Kind returns which form this is
func (f *Form) Kind() Kind {
	return f.kind
}

// Values returns what has been entered so far
func (f *Form) Values() Values {
	return *f.values
}

// Fail shows a server error and reopens the form with the entered values
func (f *Form) Fail(msg string) tea.Cmd {
	f.err = msg
	f.busy = false
	f.values.Password = ""
	f.values.Confirm = ""
	f.form = f.build()
	return f.form.Init()
}

// Busy reports whether a submission is in flight
func (f *Form) Busy() bool {
	return f.busy
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" && !f.busy {
			kind := f.kind
			return f, func() tea.Msg { return CancelledMsg{Kind: kind} }
		}
	}

	if f.busy {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		f.busy = true
		f.err = ""
		submitted := SubmittedMsg{Kind: f.kind, PostID: f.postID, Values: *f.values}
		return f, func() tea.Msg { return submitted }
	}

	return f, cmd
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder

	sb.WriteString(f.renderHeader())
	sb.WriteString("\n\n")

	if f.err != "" {
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + f.err))
		sb.WriteString("\n\n")
	}

	if f.busy {
		sb.WriteString(styles.Subtitle.Render(f.busyText()))
		return sb.String()
	}

	sb.WriteString(f.form.View())
	return sb.String()
}

func (f *Form) busyText() string {
	switch f.kind {
	case KindLogin:
		return "Signing In..."
	case KindRegister:
		return "Creating Account..."
	case KindCreatePost:
		return "Publishing..."
	default:
		return "Updating..."
	}
}

// renderHeader renders the boxed title with character counters for posts
func (f *Form) renderHeader() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	title := f.kind.String()
	styledTitle := titleStyle.Render(title)
	titleWidth := lipgloss.Width(title)

	// Top border: "┌─ " + title + " " + fill + "┐"
	topFillWidth := max(0, width-5-titleWidth)
	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", topFillWidth) + "┐"

	line := f.statusLine()
	linePadding := max(0, width-4-lipgloss.Width(line))
	middle := "│ " + line + strings.Repeat(" ", linePadding) + " │"

	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{topBorder, middle, bottomBorder}, "\n"))
}

func (f *Form) statusLine() string {
	switch f.kind {
	case KindCreatePost, KindEditPost:
		return counter("Title", f.values.Title, posts.TitleMax, 80) + "    " +
			counter("Body", f.values.Body, posts.BodyMax, 4500)
	case KindRegister:
		return "Already have an account? Press esc to sign in"
	default:
		return "New here? Press esc and choose Create account"
	}
}

// counter renders "label n/limit", highlighted once n passes warnAt
func counter(label, s string, limit, warnAt int) string {
	n := utf8.RuneCountInString(s)
	style := lipgloss.NewStyle().Foreground(styles.Muted)
	if n > warnAt {
		style = lipgloss.NewStyle().Foreground(styles.Danger)
	}
	return fmt.Sprintf("%s %s", label, style.Render(fmt.Sprintf("%d/%d", n, limit)))
}
