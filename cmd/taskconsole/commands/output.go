package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

// render writes v to the command's output in the format chosen by --output.
func render(cmd *cli.Command, v any) error {
	w := cmd.Root().Writer

	switch outputFormat(cmd.String("output")) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", cmd.String("output"))
	}
}

// prompter asks for values on the terminal. One prompter serves a whole
// command run so that piped input is consumed line by line.
type prompter struct {
	raw io.Reader
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cli.Command) *prompter {
	root := cmd.Root()
	return &prompter{raw: root.Reader, in: bufio.NewReader(root.Reader), out: root.ErrWriter}
}

// prompt reads one value. Secret values typed on a terminal are not echoed.
func (p *prompter) prompt(label string, secret bool) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)

	if f, ok := p.raw.(*os.File); ok && secret && term.IsTerminal(int(f.Fd())) {
		value, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", label, err)
		}
		return string(value), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
