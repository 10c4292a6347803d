package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/ItemKeeper/internal/models"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Prompter reads answers line by line from an input stream.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the descriptor behind in, or -1 when in is not a file.
	fd int
}

// NewPrompter returns a Prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// Line prints label and returns the trimmed answer. EOF after a partial line
// returns that line.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a secret without echo when the input is a terminal and
// falls back to a plain line otherwise.
func (p *Prompter) Password(label string) (string, error) {
	if p.fd < 0 || !isTerminal(p.fd) {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	pw, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// PromptForItem asks for every field of a new item.
func (p *Prompter) PromptForItem() (models.RecordInput, error) {
	var in models.RecordInput
	var err error

	if in.Name, err = p.Line("Name: "); err != nil {
		return in, err
	}
	if in.Description, err = p.Line("Description (optional): "); err != nil {
		return in, err
	}
	price, err := p.Line("Price: ")
	if err != nil {
		return in, err
	}
	if in.Price, err = strconv.ParseFloat(price, 64); err != nil {
		return in, fmt.Errorf("invalid price %q", price)
	}
	if in.Category, err = p.Line("Category: "); err != nil {
		return in, err
	}
	return in, nil
}

// PromptEditItem asks for replacement values. Blank answers leave the field
// unchanged.
func (p *Prompter) PromptEditItem() (models.RecordPatch, error) {
	var patch models.RecordPatch

	fields := []struct {
		label string
		set   func(string) error
	}{
		{"New name (blank to keep): ", func(v string) error { patch.Name = &v; return nil }},
		{"New description (blank to keep): ", func(v string) error { patch.Description = &v; return nil }},
		{"New price (blank to keep): ", func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", v)
			}
			patch.Price = &f
			return nil
		}},
		{"New category (blank to keep): ", func(v string) error { patch.Category = &v; return nil }},
	}

	for _, f := range fields {
		v, err := p.Line(f.label)
		if err != nil {
			return patch, err
		}
		if v == "" {
			continue
		}
		if err := f.set(v); err != nil {
			return patch, err
		}
	}
	return patch, nil
}
