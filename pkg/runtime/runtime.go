// Package runtime wires the lexer, parser, validator, and evaluator into
// a single embedding surface for hosts and the CLI.
package runtime

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matan45/intercpp/pkg/diagnostics"
	"github.com/matan45/intercpp/pkg/evaluator"
	"github.com/matan45/intercpp/pkg/lexer"
	"github.com/matan45/intercpp/pkg/parser"
	"github.com/matan45/intercpp/pkg/stdlib"
	"github.com/matan45/intercpp/pkg/validator"
)

// Runtime holds host configuration shared by every script it runs.
type Runtime struct {
	importer lexer.Importer
	stdout   io.Writer
	maxDepth int
	noStdlib bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithImporter sets the resolver for #import directives. Scripts that
// import without one fail with an import error.
func WithImporter(imp lexer.Importer) Option {
	return func(r *Runtime) { r.importer = imp }
}

// WithStdout redirects script output.
func WithStdout(w io.Writer) Option {
	return func(r *Runtime) { r.stdout = w }
}

// WithMaxDepth overrides the call-nesting limit.
func WithMaxDepth(n int) Option {
	return func(r *Runtime) { r.maxDepth = n }
}

// WithoutStdlib skips registering the default natives, leaving the host
// in full control of the native registry.
func WithoutStdlib() Option {
	return func(r *Runtime) { r.noStdlib = true }
}

// New creates a Runtime. By default scripts write to os.Stdout, have the
// standard natives, and cannot import.
func New(opts ...Option) *Runtime {
	r := &Runtime{stdout: os.Stdout, maxDepth: evaluator.DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewEnv creates a fresh environment configured per the runtime.
func (r *Runtime) NewEnv() (*evaluator.Environment, error) {
	env := evaluator.NewEnvironment()
	env.SetStdout(r.stdout)
	env.SetMaxDepth(r.maxDepth)
	if !r.noStdlib {
		if err := stdlib.Register(env); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Run parses and evaluates source in a fresh environment, returning the
// last top-level value.
func (r *Runtime) Run(source, filename string) (evaluator.Value, error) {
	env, err := r.NewEnv()
	if err != nil {
		return nil, err
	}
	return r.RunIn(env, source, filename)
}

// RunIn evaluates source against an existing environment, so a REPL can
// accumulate definitions across inputs.
func (r *Runtime) RunIn(env *evaluator.Environment, source, filename string) (evaluator.Value, error) {
	prog, err := parser.Parse(source, filename, r.importer)
	if err != nil {
		return nil, err
	}
	if diags := validator.Validate(prog, env.NativeNames()); len(diags) > 0 {
		return nil, &DiagnosticsError{Diags: diags}
	}
	return evaluator.Evaluate(prog, env)
}

// Check parses and validates source without evaluating it, returning
// every diagnostic found.
func (r *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	prog, err := parser.Parse(source, filename, r.importer)
	if err != nil {
		return []diagnostics.Diagnostic{ToDiagnostic(err)}
	}
	env, err := r.NewEnv()
	if err != nil {
		return []diagnostics.Diagnostic{ToDiagnostic(err)}
	}
	return validator.Validate(prog, env.NativeNames())
}

// DiagnosticsError carries validator findings through an error return.
type DiagnosticsError struct {
	Diags []diagnostics.Diagnostic
}

func (e *DiagnosticsError) Error() string {
	if len(e.Diags) == 1 {
		return e.Diags[0].Message
	}
	return fmt.Sprintf("%s (and %d more)", e.Diags[0].Message, len(e.Diags)-1)
}

// ToDiagnostic converts any error from Run or Check into a diagnostic,
// unwrapping lex, parse, and runtime errors to keep their position.
func ToDiagnostic(err error) diagnostics.Diagnostic {
	switch e := err.(type) {
	case *lexer.LexError:
		return e.Diag
	case *parser.ParseError:
		return e.Diag
	case *evaluator.RuntimeError:
		return e.Diag
	case *DiagnosticsError:
		return e.Diags[0]
	}
	return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
}

// ToDiagnostics is like ToDiagnostic but preserves multi-finding
// validator errors.
func ToDiagnostics(err error) []diagnostics.Diagnostic {
	if de, ok := err.(*DiagnosticsError); ok {
		return de.Diags
	}
	return []diagnostics.Diagnostic{ToDiagnostic(err)}
}

// DirImporter resolves #import paths against a base directory. Paths
// without an extension get Ext appended.
type DirImporter struct {
	Dir string
	Ext string // default ".isc"
}

// Resolve reads the imported file's contents.
func (d DirImporter) Resolve(path string) (string, error) {
	ext := d.Ext
	if ext == "" {
		ext = ".isc"
	}
	if filepath.Ext(path) == "" {
		path += ext
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
