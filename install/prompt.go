package install

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultAttempts = 3

type Question struct {
	Label    string
	Default  string
	Hidden   bool
	Attempts int
	Validate func(answer string) error
}

// Prompter asks questions on a line-oriented terminal. Hidden answers are read without
// echo when the input is a terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

func (p *Prompter) Ask(q Question) (string, error) {
	attempts := q.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	label := q.Label
	if q.Default != "" && !q.Hidden {
		label = fmt.Sprintf("%s (%s)", label, q.Default)
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		fmt.Fprintf(p.out, "%s: ", label)

		answer, err := p.read(q.Hidden)
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = q.Default
		}

		if q.Validate == nil {
			return answer, nil
		}
		if lastErr = q.Validate(answer); lastErr == nil {
			return answer, nil
		}
		fmt.Fprintf(p.out, "%v\n", lastErr)
	}

	return "", fmt.Errorf("%s: %w", q.Label, lastErr)
}

func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", label, hint)

	answer, err := p.read(false)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Prompter) read(hidden bool) (string, error) {
	if hidden && p.isTerm {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}
