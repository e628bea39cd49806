// Package command turns a message body into a typed command.
//
// Tokenization is POSIX shell-style word splitting. The grammar is a table of
// Specs tested in declaration order; the first spec whose name and raw
// argument count fit the tokens wins. Flags are parsed only after a spec has
// matched, and only for records that declare flags, so a caller can apply authorization before revealing anything
// about argument errors.
package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"
)

// Args is the typed argument record of one command.
type Args interface {
	// DeclareFlags registers the command's flags, with defaults, on fs.
	DeclareFlags(fs *pflag.FlagSet)
	// Bind validates and stores the positionals left after flag parsing.
	Bind(positional []string) error
}

// Arity constrains the number of tokens following the command name.
type Arity struct {
	N   int
	Min bool
}

// Exactly accepts n tokens.
func Exactly(n int) Arity { return Arity{N: n} }

// AtLeast accepts n or more tokens.
func AtLeast(n int) Arity { return Arity{N: n, Min: true} }

// Accepts reports whether count tokens fit.
func (a Arity) Accepts(count int) bool {
	if a.Min {
		return count >= a.N
	}
	return count == a.N
}

func (a Arity) String() string {
	if a.Min {
		return fmt.Sprintf(">=%d", a.N)
	}
	return fmt.Sprintf("=%d", a.N)
}

// Spec declares one command.
type Spec struct {
	Name    string
	Usage   string
	Summary string
	Arity   Arity
	// Admin restricts the command to the server's admin set.
	Admin bool
	// Ungated commands are answered regardless of channel enablement.
	Ungated bool
	// Slow commands call a collaborator and warrant a typing indicator.
	Slow bool
	New  func() Args
}

// Grammar is the ordered command table.
type Grammar struct {
	specs []Spec
	names map[string]bool
}

// NewGrammar returns an empty grammar.
func NewGrammar() *Grammar {
	return &Grammar{names: map[string]bool{}}
}

// Add appends a spec. A name may be declared more than once only with
// different arities.
func (g *Grammar) Add(spec Spec) error {
	if spec.Name == "" || spec.New == nil {
		return fmt.Errorf("command spec %q is incomplete", spec.Name)
	}
	key := spec.Name + " " + spec.Arity.String()
	if g.names[key] {
		return fmt.Errorf("command %q with arity %s declared twice", spec.Name, spec.Arity)
	}
	g.names[key] = true
	g.specs = append(g.specs, spec)
	return nil
}

// Specs returns the table in declaration order.
func (g *Grammar) Specs() []Spec {
	return append([]Spec(nil), g.specs...)
}

// Match finds the first spec whose name and arity fit tokens.
func (g *Grammar) Match(tokens []string) (Spec, bool) {
	if len(tokens) == 0 {
		return Spec{}, false
	}
	for _, s := range g.specs {
		if s.Name == tokens[0] && s.Arity.Accepts(len(tokens)-1) {
			return s, true
		}
	}
	return Spec{}, false
}

// Tokenize splits a body with shell quoting rules.
func Tokenize(body string) ([]string, error) {
	tokens, err := shellquote.Split(body)
	if err != nil {
		return nil, fmt.Errorf("splitting %q: %w", body, err)
	}
	return tokens, nil
}

// Bind parses the flags and positionals of tokens into a fresh argument
// record for spec. tokens[0] is the command name.
func Bind(spec Spec, tokens []string) (Args, error) {
	args := spec.New()

	fs := pflag.NewFlagSet(spec.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	args.DeclareFlags(fs)

	argErr := func(err error) error {
		return &ArgumentError{Command: spec.Name, Usage: spec.Usage, Err: err}
	}
	positional := tokens[1:]
	if fs.HasFlags() {
		var err error
		if positional, err = parseFlags(fs, positional); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return nil, argErr(errors.New("help requested"))
			}
			return nil, argErr(err)
		}
	}
	if err := args.Bind(positional); err != nil {
		return nil, argErr(err)
	}
	return args, nil
}

// parseFlags runs fs over tokens and returns the positionals. A token that
// starts with a dash but contains whitespace came from a quoted phrase and
// is never read as a flag.
func parseFlags(fs *pflag.FlagSet, tokens []string) ([]string, error) {
	held := map[string]string{}
	masked := make([]string, len(tokens))
	for i, tok := range tokens {
		if strings.HasPrefix(tok, "-") && strings.ContainsAny(tok, " \t\n") {
			key := fmt.Sprintf("\x00%d", i)
			held[key] = tok
			tok = key
		}
		masked[i] = tok
	}
	if err := fs.Parse(masked); err != nil {
		return nil, err
	}
	fs.Visit(func(f *pflag.Flag) {
		if tok, ok := held[f.Value.String()]; ok {
			_ = f.Value.Set(tok)
		}
	})
	positional := fs.Args()
	for i, p := range positional {
		if tok, ok := held[p]; ok {
			positional[i] = tok
		}
	}
	return positional, nil
}

// Parse tokenizes body, matches it and binds its arguments.
func (g *Grammar) Parse(body string) (Spec, Args, error) {
	tokens, err := Tokenize(body)
	if err != nil {
		return Spec{}, nil, err
	}
	spec, ok := g.Match(tokens)
	if !ok {
		return Spec{}, nil, &UnknownError{Input: strings.TrimSpace(body)}
	}
	args, err := Bind(spec, tokens)
	if err != nil {
		return spec, nil, err
	}
	return spec, args, nil
}
