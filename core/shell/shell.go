// Package shell implements the restricted command loop: tokenizing input,
// classifying command names against the fixed vocabulary, building argument
// vectors, and dispatching to in-process builtins or external programs.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"

	"github.com/fxops/tradeshell/core/config"
	"github.com/fxops/tradeshell/core/logger"
	"github.com/fxops/tradeshell/core/proc"
)

var healthHeader = color.New(color.FgCyan, color.Bold)

// Shell is the interactive restricted shell. It holds no per-line state:
// tokens and argument vectors live only while their line is dispatched.
type Shell struct {
	cfg   *config.Configuration
	vocab *Vocabulary
	audit *logger.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New creates a shell over the given configuration. elevate is the result
// of the one-time startup elevation probe.
func New(cfg *config.Configuration, elevate bool, audit *logger.Logger) *Shell {
	return &Shell{
		cfg:    cfg,
		vocab:  &Vocabulary{Tools: cfg.Tools, Elevate: elevate},
		audit:  audit,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Run drives the read-dispatch loop until exit or end of input. End of
// input is an implicit exit, not an error.
func (s *Shell) Run() error {
	cfg := &readline.Config{
		Prompt:      s.cfg.Prompt,
		HistoryFile: s.cfg.HistoryFile,
		Stdin:       readline.NewCancelableStdin(os.Stdin),
		Stdout:      s.stdout,
		Stderr:      s.stderr,
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	sudoState := "off"
	if s.vocab.Elevate {
		sudoState = "on"
	}
	fmt.Fprintf(s.stdout, "AutoTrade Shell (trade)  sudo=%s  type 'help'\n", sudoState)

	for {
		line, err := rl.Readline()
		switch {
		case err == io.EOF:
			return nil
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			return err
		}

		if !s.dispatch(line) {
			return nil
		}
	}
}

// dispatch processes one input line and reports whether the loop should
// continue. Every failure is local to the line: a diagnostic goes to
// stderr and the prompt comes back.
func (s *Shell) dispatch(line string) bool {
	tokens, err := Tokenize(line)
	if err != nil {
		fmt.Fprintf(s.stderr, "trade: %v\n", err)
		s.audit.ParseError(line, err)
		return true
	}
	if len(tokens) == 0 {
		return true
	}

	stages := SplitPipeline(tokens)
	if len(stages) == 1 {
		return s.runSimple(line, stages[0])
	}

	s.runPipeline(line, stages)
	return true
}

func (s *Shell) runSimple(line string, invocation []string) bool {
	if b, ok := LookupBuiltin(invocation[0]); ok {
		return s.runBuiltin(b, invocation)
	}

	argv, err := s.vocab.Build(invocation)
	if err != nil {
		fmt.Fprintf(s.stderr, "trade: unknown command: %s (type 'help')\n", invocation[0])
		s.audit.Unknown(line, invocation[0])
		return true
	}

	rc := proc.Run(argv, s.stdio())
	if rc != 0 {
		fmt.Fprintf(s.stderr, "trade: %s failed (rc=%d)\n", invocation[0], rc)
	}
	s.audit.Invocation(line, argv, rc)
	return true
}

// runPipeline validates every stage before anything is spawned: a pipeline
// with an unknown or parent-only stage is rejected wholesale.
func (s *Shell) runPipeline(line string, stages [][]string) {
	argvs := make([][]string, 0, len(stages))
	for _, stage := range stages {
		if len(stage) == 0 {
			fmt.Fprintln(s.stderr, "trade: syntax error near '|'")
			return
		}

		switch Classify(stage[0]) {
		case ClassBuiltin:
			fmt.Fprintf(s.stderr, "trade: %s: cannot be used in a pipeline\n", stage[0])
			s.audit.Rejected(line, stage[0], "builtin in pipeline")
			return
		case ClassUnknown:
			fmt.Fprintf(s.stderr, "trade: unknown command: %s (type 'help')\n", stage[0])
			s.audit.Rejected(line, stage[0], "unknown command")
			return
		}

		argv, err := s.vocab.Build(stage)
		if err != nil {
			fmt.Fprintf(s.stderr, "trade: %s: %v\n", stage[0], err)
			return
		}
		argvs = append(argvs, argv)
	}

	rc := proc.RunPipeline(argvs, s.stdio())
	if rc != 0 {
		last := stages[len(stages)-1][0]
		fmt.Fprintf(s.stderr, "trade: %s failed (rc=%d)\n", last, rc)
	}
	s.audit.Pipeline(line, argvs, rc)
}

func (s *Shell) runBuiltin(b Builtin, args []string) bool {
	switch b {
	case BuiltinHelp:
		fmt.Fprint(s.stdout, Usage(s.cfg))
	case BuiltinExit:
		return false
	case BuiltinCd:
		s.cd(args)
	case BuiltinPwd:
		if wd, err := os.Getwd(); err != nil {
			fmt.Fprintf(s.stderr, "trade: pwd: %v\n", err)
		} else {
			fmt.Fprintln(s.stdout, wd)
		}
	case BuiltinStart:
		s.serviceCtl("start", "started.")
	case BuiltinStop:
		s.serviceCtl("stop", "stopped.")
	case BuiltinRestart:
		s.serviceCtl("restart", "restarted.")
	case BuiltinStatus:
		s.serviceStatus()
	case BuiltinHealth:
		s.health()
	}
	return true
}

// cd changes the working directory. With no argument it goes to $HOME,
// falling back to / when HOME is unset. Failure never terminates the loop.
func (s *Shell) cd(args []string) {
	var dir string
	switch len(args) {
	case 1:
		dir = os.Getenv("HOME")
		if dir == "" {
			dir = "/"
		}
	case 2:
		dir = args[1]
	default:
		fmt.Fprintln(s.stderr, "trade: cd: too many arguments")
		return
	}

	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			dir = home + strings.TrimPrefix(dir, "~")
		}
	}

	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(s.stderr, "trade: cd: %v\n", err)
	}
}

func (s *Shell) serviceCtl(verb, okMsg string) {
	argv := s.vocab.ServiceArgv(verb, s.cfg.ServiceName)
	rc := proc.Run(argv, s.stdio())
	if rc == 0 {
		fmt.Fprintf(s.stdout, "trade: %s\n", okMsg)
	} else {
		fmt.Fprintf(s.stderr, "trade: %s failed (rc=%d)\n", verb, rc)
	}
	s.audit.Invocation(verb, argv, rc)
}

func (s *Shell) serviceStatus() {
	argv := s.vocab.ServiceArgv("status", s.cfg.ServiceName)
	rc := proc.Run(argv, s.stdio())
	if rc != 0 {
		fmt.Fprintf(s.stderr, "trade: status returned rc=%d\n", rc)
	}
	s.audit.Invocation("status", argv, rc)
}

// health sequences five independent probes for operator visibility. Each
// runs unconditionally; a failing step is reported and the next one runs.
func (s *Shell) health() {
	healthHeader.Fprintln(s.stdout, "=== HEALTH CHECK ===")

	steps := []struct {
		title string
		argv  []string
	}{
		{"service status", s.vocab.ServiceArgv("status", s.cfg.ServiceName)},
		{"bot logs", []string{s.cfg.Tools.Python, s.cfg.Tools.Log}},
		{"disk (df -h /)", []string{"df", "-h", "/"}},
		{"memory (free -h)", []string{"free", "-h"}},
		{"time (date)", []string{"date"}},
	}

	for i, step := range steps {
		if i > 0 {
			fmt.Fprintln(s.stdout)
		}
		healthHeader.Fprintf(s.stdout, "[%d/%d] %s\n", i+1, len(steps), step.title)
		if rc := proc.Run(step.argv, s.stdio()); rc != 0 {
			fmt.Fprintf(s.stderr, "trade: %s returned rc=%d\n", step.argv[0], rc)
		}
	}

	fmt.Fprintln(s.stdout)
	healthHeader.Fprintln(s.stdout, "=== END HEALTH ===")
}

func (s *Shell) stdio() proc.Stdio {
	return proc.Stdio{In: s.stdin, Out: s.stdout, Err: s.stderr}
}

// Usage renders the fixed help text with the configured paths inlined, the
// same shape an operator would see in the install docs.
func Usage(cfg *config.Configuration) string {
	t := cfg.Tools
	var b strings.Builder

	row := func(left, right string) {
		fmt.Fprintf(&b, "  %-22s%s\n", left, right)
	}

	fmt.Fprintln(&b, "AutoTrade Shell")
	fmt.Fprintln(&b, "Commands:")
	row("start", fmt.Sprintf("[%s] %s start %s", t.Elevate, t.ServiceManager, cfg.ServiceName))
	row("stop", fmt.Sprintf("[%s] %s stop %s", t.Elevate, t.ServiceManager, cfg.ServiceName))
	row("restart", fmt.Sprintf("[%s] %s restart %s", t.Elevate, t.ServiceManager, cfg.ServiceName))
	row("status", fmt.Sprintf("[%s] %s status %s", t.Elevate, t.ServiceManager, cfg.ServiceName))
	row("health", "bundle check: service + log + disk + mem + time")
	row("log [ARGS...]", fmt.Sprintf("%s %s [ARGS...]", t.Python, t.Log))
	row("config [ARGS...]", fmt.Sprintf("%s %s [ARGS...]", t.Python, t.Config))
	row("backup [ARGS...]", fmt.Sprintf("%s %s [ARGS...]", t.Python, t.Backup))
	row("restore [ARGS...]", fmt.Sprintf("%s %s [ARGS...]", t.Python, t.Restore))
	row("update [ARGS...]", fmt.Sprintf("[%s] %s %s [ARGS...]", t.Elevate, t.Shell, t.Update))
	row("nano [ARGS...]", fmt.Sprintf("%s [ARGS...]", t.Editor))
	row("ls [ARGS...]", "ls [ARGS...]")
	row("cat [ARGS...]", "cat [ARGS...]")
	row("sucat [ARGS...]", fmt.Sprintf("%s cat [ARGS...]", t.Elevate))
	row("grep [ARGS...]", "grep [ARGS...]")
	row("cd [DIR]", "change directory (no DIR: go home)")
	row("pwd", "print working directory")
	row("help", "show this help")
	row("exit", "quit")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Notes:")
	fmt.Fprintln(&b, "  - Quotes and backslash escapes are supported; '|' builds a pipeline.")
	fmt.Fprintln(&b, "  - Only the passthrough commands may appear in a pipeline.")
	fmt.Fprintf(&b, "  - %s is auto-detected. If '%s -n true' works, privileged commands use it.\n", t.Elevate, t.Elevate)

	return b.String()
}
