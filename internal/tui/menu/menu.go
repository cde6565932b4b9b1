// ABOUTME: Sign-in menu shown when nobody is logged in
// ABOUTME: Lets the user choose email login, registration or Google sign-in

package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/samarblogs/blogcli/internal/tui/forms"
)

// Choice is a sign-in method
type Choice int

const (
	ChoiceLogin Choice = iota
	ChoiceRegister
	ChoiceGoogle
	ChoiceQuit
)

// SelectedMsg is sent when the user picks an option
type SelectedMsg struct {
	Choice Choice
}

type option struct {
	label string
	value Choice
}

// Menu is the sign-in menu
type Menu struct {
	options  []option
	selected Choice
	form     *huh.Form
}

// New creates the sign-in menu
func New() *Menu {
	m := &Menu{
		options: []option{
			{label: "Sign in with email", value: ChoiceLogin},
			{label: "Create an account", value: ChoiceRegister},
			{label: "Continue with Google", value: ChoiceGoogle},
			{label: "Quit", value: ChoiceQuit},
		},
		selected: ChoiceLogin,
	}
	m.form = m.build()
	return m
}

func (m *Menu) build() *huh.Form {
	var options []huh.Option[Choice]
	for _, opt := range m.options {
		options = append(options, huh.NewOption(opt.label, opt.value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title("Welcome to Samar Blogs").
				Description("Discover amazing stories, share your thoughts, and connect with writers").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(forms.Theme())
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "q" {
		return m, func() tea.Msg { return SelectedMsg{Choice: ChoiceQuit} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		choice := m.selected
		// Rebuild so the menu is usable again when the user comes back
		m.form = m.build()
		return m, tea.Batch(m.form.Init(), func() tea.Msg { return SelectedMsg{Choice: choice} })
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// String returns the string representation of a Choice
func (c Choice) String() string {
	switch c {
	case ChoiceLogin:
		return "login"
	case ChoiceRegister:
		return "register"
	case ChoiceGoogle:
		return "google"
	case ChoiceQuit:
		return "quit"
	default:
		return "unknown"
	}
}
