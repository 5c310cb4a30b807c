package shell

import (
	"fmt"

	"github.com/fxops/tradeshell/core/config"
)

// Builtin identifies a command that runs inside the shell process itself.
// Builtins never appear as a pipeline stage; keeping them a closed enum is
// what makes that rule checkable before anything is spawned.
type Builtin int

const (
	BuiltinHelp Builtin = iota
	BuiltinExit
	BuiltinCd
	BuiltinPwd
	BuiltinStart
	BuiltinStop
	BuiltinRestart
	BuiltinStatus
	BuiltinHealth
)

var builtinNames = map[string]Builtin{
	"help":    BuiltinHelp,
	"exit":    BuiltinExit,
	"cd":      BuiltinCd,
	"pwd":     BuiltinPwd,
	"start":   BuiltinStart,
	"stop":    BuiltinStop,
	"restart": BuiltinRestart,
	"status":  BuiltinStatus,
	"health":  BuiltinHealth,
}

// LookupBuiltin resolves a command name to its builtin, if it is one.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

// execNames is the fixed whitelist of pipeline-eligible commands.
var execNames = map[string]bool{
	"log":     true,
	"config":  true,
	"backup":  true,
	"restore": true,
	"update":  true,
	"nano":    true,
	"ls":      true,
	"cat":     true,
	"sucat":   true,
	"grep":    true,
}

// Class is the two-tier classification of a leading command token.
type Class int

const (
	ClassUnknown Class = iota
	ClassBuiltin
	ClassExec
)

// Classify matches a command name against the two fixed vocabularies.
// Matching is exact and case sensitive.
func Classify(name string) Class {
	if _, ok := builtinNames[name]; ok {
		return ClassBuiltin
	}
	if execNames[name] {
		return ClassExec
	}
	return ClassUnknown
}

// Vocabulary builds concrete argument vectors for the exec-style commands.
// Elevate is decided once at startup and never revisited.
type Vocabulary struct {
	Tools   config.Tools
	Elevate bool
}

// Build maps one invocation (command name plus verbatim user arguments) to
// the argument vector to execute. Arguments pass through untouched: they
// reach exec as discrete array elements, never as a shell string, so no
// metacharacter interpretation happens on them.
func (v *Vocabulary) Build(invocation []string) ([]string, error) {
	name, rest := invocation[0], invocation[1:]

	var prefix []string
	switch name {
	case "log":
		prefix = []string{v.Tools.Python, v.Tools.Log}
	case "config":
		prefix = []string{v.Tools.Python, v.Tools.Config}
	case "backup":
		prefix = []string{v.Tools.Python, v.Tools.Backup}
	case "restore":
		prefix = []string{v.Tools.Python, v.Tools.Restore}
	case "update":
		prefix = []string{v.Tools.Shell, v.Tools.Update}
		if v.Elevate {
			prefix = append([]string{v.Tools.Elevate}, prefix...)
		}
	case "nano":
		prefix = []string{v.Tools.Editor}
	case "ls":
		prefix = []string{"ls"}
	case "cat":
		prefix = []string{"cat"}
	case "sucat":
		// Always elevated, independent of the probe.
		prefix = []string{v.Tools.Elevate, "cat"}
	case "grep":
		prefix = []string{"grep"}
	default:
		return nil, fmt.Errorf("%s is not an allowed command", name)
	}

	argv := make([]string, 0, len(prefix)+len(rest))
	argv = append(argv, prefix...)
	argv = append(argv, rest...)
	return argv, nil
}

// ServiceArgv builds the service-manager invocation for one lifecycle verb,
// elevated when the startup probe said elevation is available.
func (v *Vocabulary) ServiceArgv(verb, service string) []string {
	argv := []string{v.Tools.ServiceManager, verb, service}
	if v.Elevate {
		argv = append([]string{v.Tools.Elevate}, argv...)
	}
	return argv
}

// CommandInfo describes one vocabulary entry for listings.
type CommandInfo struct {
	Name string
	// Pipeline reports whether the command may appear as a pipeline stage.
	Pipeline bool
	Summary  string
}

// Commands returns the full fixed vocabulary in help order.
func Commands() []CommandInfo {
	return []CommandInfo{
		{"start", false, "start the managed service"},
		{"stop", false, "stop the managed service"},
		{"restart", false, "restart the managed service"},
		{"status", false, "show the managed service status"},
		{"health", false, "bundle check: service + log + disk + mem + time"},
		{"log", true, "retrieve service logs"},
		{"config", true, "edit the service configuration"},
		{"backup", true, "back up the service state"},
		{"restore", true, "restore the service state"},
		{"update", true, "run the maintenance script"},
		{"nano", true, "edit a file"},
		{"ls", true, "list a directory"},
		{"cat", true, "print a file"},
		{"sucat", true, "print a protected file (always elevated)"},
		{"grep", true, "search text"},
		{"cd", false, "change the working directory"},
		{"pwd", false, "print the working directory"},
		{"help", false, "show usage"},
		{"exit", false, "quit the shell"},
	}
}
