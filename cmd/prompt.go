// ABOUTME: Terminal prompts for passwords and confirmations
// ABOUTME: Hides typed passwords on a terminal and reads plain lines otherwise

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// stdin is where prompts read from. Tests replace it.
var stdin io.Reader = os.Stdin

var (
	lineSource io.Reader
	lines      *bufio.Reader
)

// readPassword prompts on stderr and reads a password without echo when
// stdin is a terminal. Tests replace it.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return readLine()
}

// readLine reads one line from stdin without the trailing newline
func readLine() (string, error) {
	if lines == nil || lineSource != stdin {
		lineSource = stdin
		lines = bufio.NewReader(stdin)
	}
	line, err := lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question and defaults to no
func confirm(w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	answer, err := readLine()
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
