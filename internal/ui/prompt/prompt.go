// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the user before destructive operations
type Prompter interface {
	// Requires the user to type expectedValue back; anything else declines
	Confirm(message string, expectedValue string) (bool, error)
}

// StandardPrompter reads answers line by line from in and writes prompts to out
type StandardPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

func NewStandardPrompter(in io.Reader, out io.Writer) *StandardPrompter {
	return &StandardPrompter{
		reader: bufio.NewReader(in),
		writer: out,
	}
}

func (p *StandardPrompter) Confirm(message string, expectedValue string) (bool, error) {
	if expectedValue == "" {
		return false, fmt.Errorf("expected confirmation value cannot be empty")
	}

	fmt.Fprintln(p.writer, message)
	fmt.Fprintf(p.writer, "To confirm, please type '%s': ", expectedValue)

	input, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("error reading user input: %w", err)
	}

	return strings.TrimSpace(input) == expectedValue, nil
}

// Skips the prompt when force is set
func ConfirmUnlessForced(p Prompter, force bool, message, expectedValue string) (bool, error) {
	if force {
		return true, nil
	}
	return p.Confirm(message, expectedValue)
}
