package proc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testStdio(input string) (Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Stdio{
		In:  strings.NewReader(input),
		Out: &out,
		Err: &errOut,
	}, &out, &errOut
}

func TestRun(t *testing.T) {
	t.Run("zero exit", func(t *testing.T) {
		stdio, _, _ := testStdio("")
		assert.Equal(t, 0, Run([]string{"true"}, stdio))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		stdio, _, _ := testStdio("")
		assert.Equal(t, 3, Run([]string{"sh", "-c", "exit 3"}, stdio))
	})

	t.Run("captures output", func(t *testing.T) {
		stdio, out, _ := testStdio("")
		assert.Equal(t, 0, Run([]string{"echo", "hi"}, stdio))
		assert.Equal(t, "hi\n", out.String())
	})

	t.Run("start failure reports 127", func(t *testing.T) {
		stdio, _, errOut := testStdio("")
		assert.Equal(t, StatusExecFailure, Run([]string{"/does/not/exist"}, stdio))
		assert.Contains(t, errOut.String(), "/does/not/exist")
	})

	t.Run("signal termination maps to 128+signal", func(t *testing.T) {
		stdio, _, _ := testStdio("")
		// SIGTERM is 15.
		assert.Equal(t, 143, Run([]string{"sh", "-c", "kill -TERM $$"}, stdio))
	})
}

func TestRunPipeline(t *testing.T) {
	t.Run("single stage", func(t *testing.T) {
		stdio, out, _ := testStdio("")
		assert.Equal(t, 0, RunPipeline([][]string{{"echo", "hi"}}, stdio))
		assert.Equal(t, "hi\n", out.String())
	})

	t.Run("two stages share one pipe", func(t *testing.T) {
		stdio, out, _ := testStdio("foo x\nbar\n")
		rc := RunPipeline([][]string{{"cat"}, {"grep", "x"}}, stdio)
		assert.Equal(t, 0, rc)
		assert.Equal(t, "foo x\n", out.String())
	})

	// Each cat only exits once every write end of its stdin pipe is
	// closed, so this completing at all proves the parent leaked no
	// descriptors.
	t.Run("three stages terminate", func(t *testing.T) {
		stdio, out, _ := testStdio("payload\n")
		rc := RunPipeline([][]string{{"cat"}, {"cat"}, {"cat"}}, stdio)
		assert.Equal(t, 0, rc)
		assert.Equal(t, "payload\n", out.String())
	})

	t.Run("result is the last stage's status", func(t *testing.T) {
		stdio, _, _ := testStdio("")
		rc := RunPipeline([][]string{{"sh", "-c", "exit 0"}, {"sh", "-c", "exit 5"}}, stdio)
		assert.Equal(t, 5, rc)
	})

	t.Run("earlier failures are diagnosed but not surfaced", func(t *testing.T) {
		stdio, _, errOut := testStdio("")
		rc := RunPipeline([][]string{{"sh", "-c", "exit 4"}, {"cat"}}, stdio)
		assert.Equal(t, 0, rc)
		assert.Contains(t, errOut.String(), "rc=4")
	})

	t.Run("last stage start failure reports 127", func(t *testing.T) {
		stdio, _, errOut := testStdio("")
		rc := RunPipeline([][]string{{"echo", "hi"}, {"/does/not/exist"}}, stdio)
		assert.Equal(t, StatusExecFailure, rc)
		assert.Contains(t, errOut.String(), "/does/not/exist")
	})

	t.Run("dead first stage still feeds EOF downstream", func(t *testing.T) {
		stdio, out, errOut := testStdio("")
		rc := RunPipeline([][]string{{"/does/not/exist"}, {"cat"}}, stdio)
		assert.Equal(t, 0, rc)
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "/does/not/exist")
	})
}
