package rollback

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TerminalConfirmer asks for confirmation on an interactive terminal. Only an
// explicit "y" or "yes" counts as confirmation; EOF and read errors are
// treated as denial.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

var _ Confirmer = (*TerminalConfirmer)(nil)

func (c *TerminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
