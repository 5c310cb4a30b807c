// Package proc runs whitelisted argument vectors on the host, alone or
// connected into pipelines. It is the only package that touches OS process
// and pipe primitives.
package proc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

const (
	// StatusExecFailure is reported for a stage whose program could not
	// be started, mirroring the sh convention.
	StatusExecFailure = 127

	// StatusSignalBase is added to the signal number when a child is
	// terminated by a signal.
	StatusSignalBase = 128
)

// Stdio carries the outer endpoints of an invocation. Inner pipeline
// endpoints are never exposed to callers.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes a single argument vector and returns its exit status.
// A start failure is diagnosed on stderr and reported as 127.
func Run(argv []string, stdio Stdio) int {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(stdio.Err, "trade: %s: %v\n", argv[0], err)
		return StatusExecFailure
	}
	return wait(cmd, stdio)
}

// RunPipeline executes the stages concurrently with each stage's stdout
// feeding the next stage's stdin through an OS pipe.
//
// The parent is a pure topology setter-upper: it opens every pipe up
// front, starts the children, closes all of its own pipe ends, and waits.
// Closing the parent's copies is what lets each reader see EOF once its
// writer exits; a leaked write end would block a downstream stage forever.
//
// The returned status is that of the final stage alone. Earlier stages
// that fail are diagnosed on stderr but do not change the result. A stage
// that cannot be started counts as exited with 127; its neighbors still
// run and see EOF on the dead stage's pipe.
func RunPipeline(stages [][]string, stdio Stdio) int {
	if len(stages) == 1 {
		return Run(stages[0], stdio)
	}

	pipes, err := openPipes(len(stages) - 1)
	if err != nil {
		fmt.Fprintf(stdio.Err, "trade: pipe: %v\n", err)
		return 1
	}

	cmds := make([]*exec.Cmd, len(stages))
	for i, argv := range stages {
		cmd := exec.Command(argv[0], argv[1:]...)
		if i == 0 {
			cmd.Stdin = stdio.In
		} else {
			cmd.Stdin = pipes[i-1].r
		}
		if i == len(stages)-1 {
			cmd.Stdout = stdio.Out
		} else {
			cmd.Stdout = pipes[i].w
		}
		cmd.Stderr = stdio.Err

		if err := cmd.Start(); err != nil {
			fmt.Fprintf(stdio.Err, "trade: %s: %v\n", argv[0], err)
			continue
		}
		cmds[i] = cmd
	}

	closePipes(pipes)

	status := StatusExecFailure
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		rc := wait(cmd, stdio)
		if i == len(cmds)-1 {
			status = rc
		} else if rc != 0 {
			fmt.Fprintf(stdio.Err, "trade: %s exited with rc=%d\n", stages[i][0], rc)
		}
	}
	return status
}

func wait(cmd *exec.Cmd, stdio Stdio) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitStatus(exitErr.ProcessState)
	}
	fmt.Fprintf(stdio.Err, "trade: wait: %v\n", err)
	return 1
}

func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return StatusSignalBase + int(ws.Signal())
	}
	return state.ExitCode()
}

type pipePair struct {
	r, w *os.File
}

func openPipes(n int) ([]pipePair, error) {
	pipes := make([]pipePair, 0, n)
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closePipes(pipes)
			return nil, err
		}
		pipes = append(pipes, pipePair{r: r, w: w})
	}
	return pipes, nil
}

func closePipes(pipes []pipePair) {
	for _, p := range pipes {
		p.r.Close()
		p.w.Close()
	}
}
