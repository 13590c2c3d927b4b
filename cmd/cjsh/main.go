// cjsh is a POSIX-compatible interactive command shell core built on
// top of [cjsh/interp].
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"cjsh/errs"
	"cjsh/histexp"
	"cjsh/interp"
	"cjsh/job"
	"cjsh/parser"
	"cjsh/printer"
	"cjsh/vars"
)

const version = "cjsh, version 0.1.0"

// flagSet mirrors the CLI surface's startup flags. Several correspond to
// subsystems (plugins, themes, AI suggestions, syntax highlighting,
// completions) that this core doesn't implement; they are still parsed
// and accepted so that a profile or caller invoking cjsh with the full
// flag surface doesn't fail on an unrecognized flag, but they are
// otherwise inert here.
type flagSet struct {
	login                bool
	interactive          bool
	debug                bool
	minimal              bool
	noPlugins            bool
	noThemes             bool
	noAI                 bool
	noColors             bool
	noTitleline          bool
	showStartupTime      bool
	noSource             bool
	noCompletions        bool
	noSyntaxHighlighting bool
	noSmartCD            bool
	disableCustomLS      bool
	startupTest          bool
	command              string
	readStdin            bool
	printVersion         bool
}

func parseFlags() *flagSet {
	fl := &flagSet{}
	bind := func(target *bool, long, short, usage string) {
		flag.BoolVar(target, long, false, usage)
		if short != "" {
			flag.BoolVar(target, short, false, usage)
		}
	}
	bind(&fl.login, "login", "l", "run as a login shell")
	bind(&fl.interactive, "interactive", "i", "run as an interactive shell")
	flag.BoolVar(&fl.debug, "debug", false, "enable debug diagnostics")
	flag.BoolVar(&fl.minimal, "minimal", false, "skip optional startup work")
	flag.BoolVar(&fl.noPlugins, "no-plugins", false, "disable plugin loading")
	flag.BoolVar(&fl.noThemes, "no-themes", false, "disable prompt theming")
	flag.BoolVar(&fl.noAI, "no-ai", false, "disable AI-assisted suggestions")
	flag.BoolVar(&fl.noColors, "no-colors", false, "disable colored output")
	flag.BoolVar(&fl.noTitleline, "no-titleline", false, "skip the terminal title line")
	flag.BoolVar(&fl.showStartupTime, "show-startup-time", false, "print startup timing on exit")
	flag.BoolVar(&fl.noSource, "no-source", false, "skip sourcing profile/RC files")
	flag.BoolVar(&fl.noCompletions, "no-completions", false, "disable tab completion")
	flag.BoolVar(&fl.noSyntaxHighlighting, "no-syntax-highlighting", false, "disable input highlighting")
	flag.BoolVar(&fl.noSmartCD, "no-smart-cd", false, "disable smart cd heuristics")
	flag.BoolVar(&fl.disableCustomLS, "disable-custom-ls", false, "disable ls customization")
	flag.BoolVar(&fl.startupTest, "startup-test", false, "exit immediately after startup checks")
	flag.StringVar(&fl.command, "c", "", "command to be executed")
	flag.BoolVar(&fl.readStdin, "s", false, "read commands from stdin")
	flag.BoolVar(&fl.printVersion, "version", false, "print version and exit")
	flag.Parse()
	return fl
}

func main() {
	fl := parseFlags()
	if fl.printVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	os.Exit(runAll(fl))
}

func runAll(fl *flagSet) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scope := vars.NewRoot(os.Environ())

	interactive := fl.interactive
	if !interactive && fl.command == "" && !fl.readStdin && flag.NArg() == 0 {
		interactive = term.IsTerminal(int(os.Stdin.Fd()))
	}

	var jobs *job.Manager
	if interactive {
		m, err := job.NewManager(int(os.Stdin.Fd()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "cjsh: warning: job control unavailable: %v\n", err)
		} else {
			jobs = m
		}
	}

	r, err := interp.New(scope, jobs, interp.StdIO(os.Stdin, os.Stdout, os.Stderr))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cjsh:", err)
		return 1
	}

	if !fl.noSource {
		if fl.login {
			sourceIfExists(ctx, r, "/etc/cjsh_profile")
			sourceIfExists(ctx, r, filepath.Join(scope.Get("HOME").String(), ".cjsh_profile"))
		}
		if interactive {
			sourceIfExists(ctx, r, filepath.Join(scope.Get("HOME").String(), ".cjshrc"))
		}
	}

	if fl.startupTest {
		return 0
	}

	switch {
	case fl.command != "":
		if flag.NArg() > 0 {
			scope.SetScriptName(flag.Args()[0])
			scope.SetPositional(flag.Args()[1:])
		}
		return runSource(ctx, r, []byte(fl.command), "")
	case flag.NArg() > 0:
		path := flag.Args()[0]
		scope.SetScriptName(path)
		scope.SetPositional(flag.Args()[1:])
		return runPath(ctx, r, path)
	case interactive:
		return runInteractive(ctx, r, os.Stdin, os.Stdout, os.Stderr)
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cjsh:", err)
			return 1
		}
		return runSource(ctx, r, data, "")
	}
}

// runSource parses and runs src under name, translating a parse failure
// into exit status 2 (syntax/usage) per the CLI's exit-code policy and a
// fatal runtime error into 1.
func runSource(ctx context.Context, r *interp.Runner, src []byte, name string) int {
	file, err := parser.Parse(src, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	status := r.Run(ctx, file)
	if err := r.Exited(); err != nil {
		fmt.Fprintln(os.Stderr, "cjsh:", err)
		return 1
	}
	return status
}

func runPath(ctx context.Context, r *interp.Runner, path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cjsh:", err)
		return 1
	}
	return runSource(ctx, r, data, path)
}

// sourceIfExists sources path if it exists, silently doing nothing when
// it doesn't (a missing profile/RC file is not an error), and reporting
// but not aborting on a genuine read or parse failure.
func sourceIfExists(ctx context.Context, r *interp.Runner, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	file, err := parser.Parse(data, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cjsh: %s: %v\n", path, err)
		return
	}
	r.Run(ctx, file)
}

// incompleteCodes are the parser's "ran off the end of the buffer inside
// an unterminated construct" diagnostics: an unclosed `(`/`{`/backquote
// or quote. An interactive front end reads these as "needs another line",
// rather than as a real syntax error to report and discard.
var incompleteCodes = map[string]bool{
	"PAR004": true, // ( without )
	"PAR005": true, // { without }
	"PAR006": true, // ' without '
	"PAR007": true, // " without "
	"PAR008": true, // ` without `
}

func isIncomplete(err error) bool {
	report, ok := err.(*errs.Report)
	return ok && incompleteCodes[report.Code]
}

// runInteractive drives the read-eval-print loop: accumulate lines until
// the buffer parses (or fails with a hard syntax error), run it, expand
// and append completed commands to the history file, and loop until
// stdin closes or the exit builtin runs.
func runInteractive(ctx context.Context, r *interp.Runner, in io.Reader, out, errOut io.Writer) int {
	stdin := bufio.NewReader(in)
	var buf strings.Builder
	var history []string
	histPath, _ := histexp.DefaultFilePath()
	if histPath != "" {
		if entries, err := histexp.ReadEntries(histPath); err == nil {
			history = entries
		}
	}

	status := 0
	fmt.Fprint(out, "$ ")
	for {
		line, readErr := stdin.ReadString('\n')
		buf.WriteString(line)
		if buf.Len() == 0 {
			break
		}

		file, perr := parser.Parse([]byte(buf.String()), "")
		if perr != nil {
			if isIncomplete(perr) && readErr == nil {
				fmt.Fprint(out, "> ")
				continue
			}
			fmt.Fprintln(errOut, perr)
			buf.Reset()
			status = 2
			if readErr != nil {
				break
			}
			fmt.Fprint(out, "$ ")
			continue
		}

		text := strings.TrimRight(buf.String(), "\n")
		buf.Reset()
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			exp := histexp.Expand(trimmed, history)
			if exp.Err != nil {
				fmt.Fprintln(errOut, "cjsh:", exp.Err)
				status = 1
				if readErr != nil {
					break
				}
				fmt.Fprint(out, "$ ")
				continue
			}
			if exp.Expanded {
				if exp.Echo {
					fmt.Fprintln(out, exp.Command)
				}
				reparsed, rerr := parser.Parse([]byte(exp.Command), "")
				if rerr != nil {
					fmt.Fprintln(errOut, rerr)
					status = 2
					if readErr != nil {
						break
					}
					fmt.Fprint(out, "$ ")
					continue
				}
				file = reparsed
				trimmed = exp.Command
			}
			histLine := printer.HistoryLine(trimmed)
			history = append(history, histLine)
			if histPath != "" {
				_ = histexp.AppendEntry(histPath, histLine)
			}
		}

		status = r.Run(ctx, file)
		if fatalErr := r.Exited(); fatalErr != nil {
			fmt.Fprintln(errOut, "cjsh:", fatalErr)
			return 1
		}
		if r.ExitRequested() {
			return status
		}
		if readErr != nil {
			break
		}
		fmt.Fprint(out, "$ ")
	}
	return status
}
