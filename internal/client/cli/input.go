package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads one line from reader,
// trimmed. A final line without a newline is still returned.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetChoice asks until the answer is one of options (case-insensitive).
// An empty answer selects def.
func GetChoice(reader *bufio.Reader, prompt string, w io.Writer, options []string, def string) (string, error) {
	full := fmt.Sprintf("%s [%s] (default %s)", prompt, strings.Join(options, "/"), def)
	for {
		answer, err := GetSimpleText(reader, full, w)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		if answer == "" {
			return def, nil
		}
		if slices.Contains(options, answer) {
			return answer, nil
		}
		fmt.Fprintf(w, "Please answer one of: %s\n", strings.Join(options, ", "))
	}
}

// GetPassword prints a prompt to w and reads a password from the terminal
// without echo. The caller wipes the returned slice.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
