// Package logger records what operators run through the shell as
// newline-delimited JSON, one object per dispatched line.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Event kinds.
const (
	KindInvocation = "invocation"
	KindPipeline   = "pipeline"
	KindParseError = "parse_error"
	KindUnknown    = "unknown_command"
	KindRejected   = "rejected_pipeline"
)

// Event is one audit record.
type Event struct {
	TimestampMicros int64      `json:"timestamp_micros"`
	Kind            string     `json:"kind"`
	Line            string     `json:"line,omitempty"`
	Command         string     `json:"command,omitempty"`
	Argv            []string   `json:"argv,omitempty"`
	Stages          [][]string `json:"stages,omitempty"`
	Status          int        `json:"status"`
	Error           string     `json:"error,omitempty"`
}

// Logger appends events to a writer. A nil *Logger discards everything, so
// callers never need to branch on whether auditing is enabled.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLines creates a Logger that exports events in newline delimited
// JSON object format.
func NewJSONLines(w io.Writer) *Logger {
	return &Logger{w: w}
}

func (l *Logger) record(e *Event) {
	if l == nil {
		return
	}
	e.TimestampMicros = time.Now().UnixMicro()

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintln(l.w, string(entry))
}

// Invocation records one executed command and its exit status.
func (l *Logger) Invocation(line string, argv []string, status int) {
	l.record(&Event{Kind: KindInvocation, Line: line, Command: argv[0], Argv: argv, Status: status})
}

// Pipeline records one executed pipeline and its terminal exit status.
func (l *Logger) Pipeline(line string, stages [][]string, status int) {
	l.record(&Event{Kind: KindPipeline, Line: line, Stages: stages, Status: status})
}

// ParseError records a line that failed tokenization.
func (l *Logger) ParseError(line string, err error) {
	l.record(&Event{Kind: KindParseError, Line: line, Error: err.Error()})
}

// Unknown records a command name outside the vocabulary.
func (l *Logger) Unknown(line, name string) {
	l.record(&Event{Kind: KindUnknown, Line: line, Command: name})
}

// Rejected records a pipeline refused before any process was spawned.
func (l *Logger) Rejected(line, name, reason string) {
	l.record(&Event{Kind: KindRejected, Line: line, Command: name, Error: reason})
}
