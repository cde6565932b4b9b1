// ABOUTME: Tests for the access guard
// ABOUTME: Covers the pure decision table and once-per-transition navigation

package guard

import (
	"testing"

	"github.com/samarblogs/blogcli/internal/client"
	"github.com/samarblogs/blogcli/internal/session"
)

var user = &client.User{ID: "1", Name: "Test User"}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		expected Decision
	}{
		{"loading without user", session.State{Loading: true}, Loading},
		{"loading with cached user", session.State{User: user, Loading: true}, Loading},
		{"anonymous", session.State{}, Redirect},
		{"authenticated", session.State{User: user}, Render},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.state); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	if got := Loading.Placeholder(); got != "Checking authentication..." {
		t.Errorf("unexpected loading placeholder %q", got)
	}
	if got := Redirect.Placeholder(); got != "Redirecting to login..." {
		t.Errorf("unexpected redirect placeholder %q", got)
	}
	if got := Render.Placeholder(); got != "" {
		t.Errorf("expected no placeholder when rendering, got %q", got)
	}
}

func TestEvaluate_NavigatesOncePerTransition(t *testing.T) {
	calls := 0
	g := New(NavigatorFunc(func() { calls++ }))

	g.Evaluate(session.State{Loading: true})
	if calls != 0 {
		t.Fatalf("expected no navigation while loading, got %d", calls)
	}

	g.Evaluate(session.State{})
	g.Evaluate(session.State{})
	g.Evaluate(session.State{})
	if calls != 1 {
		t.Errorf("expected one navigation for repeated anonymous state, got %d", calls)
	}

	g.Evaluate(session.State{User: user})
	g.Evaluate(session.State{})
	if calls != 2 {
		t.Errorf("expected navigation after logging out again, got %d", calls)
	}

	g.Evaluate(session.State{Loading: true})
	g.Evaluate(session.State{})
	if calls != 3 {
		t.Errorf("expected navigation after a new check, got %d", calls)
	}
}

func TestEvaluate_ReturnsDecision(t *testing.T) {
	g := New(NavigatorFunc(func() {}))
	if d := g.Evaluate(session.State{User: user}); d != Render {
		t.Errorf("expected render, got %s", d)
	}
}
