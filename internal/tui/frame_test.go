// ABOUTME: Test to verify header/footer width alignment
// ABOUTME: Ensures frame renders at correct terminal width

package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samarblogs/blogcli/internal/session"
)

func timeAgo(secs int) time.Time {
	return time.Now().Add(-time.Duration(secs) * time.Second)
}

func TestFrameAlignment(t *testing.T) {
	widths := []int{60, 80, 100, 120}
	states := map[string]session.State{
		"loading":   {Loading: true},
		"anonymous": {},
		"signed-in": signedIn,
	}

	for _, targetWidth := range widths {
		for name, st := range states {
			t.Run(fmt.Sprintf("%d/%s", targetWidth, name), func(t *testing.T) {
				app := newTestApp(t)

				model, _ := app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 30})
				app = model.(*App)
				model, _ = app.Update(sessionMsg{state: st, ok: true})
				app = model.(*App)
				app.lastUpdate = timeAgo(30)

				view := app.View()
				lines := strings.Split(view, "\n")
				header := lines[0]
				footer := lines[len(lines)-1]

				// Frame uses width-1 to prevent wrapping on some terminals,
				// but clamps to minimum of 80 for usability
				expectedWidth := max(targetWidth-1, 80)

				if !strings.HasPrefix(header, "╭─") {
					t.Fatalf("Header not found in output: %q", header)
				}
				if w := lipgloss.Width(header); w != expectedWidth {
					t.Errorf("Header width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
					t.Logf("Header line: %q", header)
				}

				if !strings.HasPrefix(footer, "╰─") {
					t.Fatalf("Footer not found in output: %q", footer)
				}
				if w := lipgloss.Width(footer); w != expectedWidth {
					t.Errorf("Footer width mismatch at width %d: expected %d, got %d", targetWidth, expectedWidth, w)
					t.Logf("Footer line: %q", footer)
				}
			})
		}
	}
}
