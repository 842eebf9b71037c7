// Command intercpp runs, checks, and interactively evaluates scripts.
//
// Usage:
//
//	intercpp run [--pretty] <file>
//	intercpp check [--pretty] <file>
//	intercpp repl
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/matan45/intercpp/pkg/diagnostics"
	"github.com/matan45/intercpp/pkg/formatter"
	"github.com/matan45/intercpp/pkg/runtime"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	switch args[0] {
	case "run":
		return cmdRun(args[1:])
	case "check":
		return cmdCheck(args[1:])
	case "repl":
		return cmdRepl()
	case "help", "-h", "--help":
		usage()
		return 0
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
	usage()
	return 2
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: intercpp <command> [flags]

commands:
  run [--pretty] <file>    run a script
  check [--pretty] <file>  parse and validate a script without running it
  repl                     start an interactive session
`)
}

func newRuntime(scriptPath string) *runtime.Runtime {
	return runtime.New(
		runtime.WithImporter(runtime.DirImporter{Dir: filepath.Dir(scriptPath)}),
	)
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	pretty := fs.Bool("pretty", false, "human-readable diagnostics")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: intercpp run [--pretty] <file>")
		return 2
	}
	file := fs.Arg(0)
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if _, err := newRuntime(file).Run(string(data), file); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.ToDiagnostics(err), *pretty))
		return 1
	}
	return 0
}

func cmdCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	pretty := fs.Bool("pretty", false, "human-readable diagnostics")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: intercpp check [--pretty] <file>")
		return 2
	}
	file := fs.Arg(0)
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if diags := newRuntime(file).Check(string(data), file); len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, *pretty))
		return 1
	}
	return 0
}

func cmdRepl() int {
	rt := runtime.New(runtime.WithImporter(runtime.DirImporter{Dir: "."}))
	env, err := rt.NewEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".intercpp_history")
		if f, err := os.Open(historyPath); err == nil {
			rl.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.Create(historyPath); err == nil {
			rl.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("intercpp repl, ctrl-d to exit")
	var buf strings.Builder
	for {
		prompt := ">> "
		if buf.Len() > 0 {
			prompt = ".. "
		}
		line, err := rl.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		buf.WriteString(line)
		buf.WriteByte('\n')
		// Keep reading while brackets are unbalanced, so multi-line
		// function and class bodies can be typed naturally.
		if openBrackets(buf.String()) > 0 {
			continue
		}

		input := buf.String()
		buf.Reset()
		if strings.TrimSpace(input) == "" {
			continue
		}
		rl.AppendHistory(strings.TrimSpace(input))

		value, err := rt.RunIn(env, input, "<repl>")
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(runtime.ToDiagnostics(err), true))
			continue
		}
		if value != nil {
			fmt.Println(formatter.FormatValue(value))
		}
	}
}

// openBrackets counts unclosed (, [, and { outside strings and comments.
func openBrackets(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}
