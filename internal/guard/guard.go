// ABOUTME: Access guard deciding whether protected content may be shown
// ABOUTME: Redirects to login once per transition into the logged-out state

package guard

import (
	"log/slog"
	"sync"

	"github.com/samarblogs/blogcli/internal/session"
)

// Decision is what a protected screen should show
type Decision int

const (
	// Loading means authentication is still being checked
	Loading Decision = iota
	// Redirect means nobody is logged in and the user goes to login
	Redirect
	// Render means the protected content may be shown
	Render
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "invalid"
	}
}

// Placeholder returns the text shown instead of protected content, or
// "" when the content renders.
func (d Decision) Placeholder() string {
	switch d {
	case Loading:
		return "Checking authentication..."
	case Redirect:
		return "Redirecting to login..."
	default:
		return ""
	}
}

// Decide maps a session state to a decision. Loading wins over whatever
// user is cached.
func Decide(st session.State) Decision {
	switch st.Phase() {
	case session.PhaseAuthenticated:
		return Render
	case session.PhaseAnonymous:
		return Redirect
	default:
		return Loading
	}
}

// Navigator moves the user to the login screen
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// Guard wraps Decide with navigation. It calls the navigator once when
// the state first becomes anonymous and again only after the user has
// been authenticated or loading in between.
type Guard struct {
	nav Navigator

	mu         sync.Mutex
	redirected bool
}

// New creates a guard that redirects through nav
func New(nav Navigator) *Guard {
	return &Guard{nav: nav}
}

// Evaluate decides for st and navigates on a fresh transition to anonymous
func (g *Guard) Evaluate(st session.State) Decision {
	d := Decide(st)

	g.mu.Lock()
	fire := false
	if d == Redirect {
		fire = !g.redirected
		g.redirected = true
	} else {
		g.redirected = false
	}
	g.mu.Unlock()

	if fire {
		slog.Debug("Redirecting unauthenticated user to login")
		g.nav.ToLogin()
	}
	return d
}
