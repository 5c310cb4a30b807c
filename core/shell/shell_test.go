package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxops/tradeshell/core/config"
)

func newTestShell(input string, elevate bool) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	cfg := config.Default()
	var out, errOut bytes.Buffer

	s := &Shell{
		cfg:    cfg,
		vocab:  &Vocabulary{Tools: cfg.Tools, Elevate: elevate},
		stdin:  strings.NewReader(input),
		stdout: &out,
		stderr: &errOut,
	}
	return s, &out, &errOut
}

func TestDispatchEmptyLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", " \t\r"} {
		s, out, errOut := newTestShell("", false)
		assert.True(t, s.dispatch(line))
		assert.Empty(t, out.String())
		assert.Empty(t, errOut.String())
	}
}

func TestDispatchParseError(t *testing.T) {
	s, _, errOut := newTestShell("", false)
	assert.True(t, s.dispatch(`cat "never closed`))
	assert.Contains(t, errOut.String(), "unclosed quote")
}

func TestDispatchExit(t *testing.T) {
	s, _, _ := newTestShell("", false)
	assert.False(t, s.dispatch("exit"))
}

func TestDispatchUnknownCommand(t *testing.T) {
	s, _, errOut := newTestShell("", false)
	assert.True(t, s.dispatch("rm -rf /"))
	assert.Contains(t, errOut.String(), "unknown command: rm")
}

func TestDispatchHelp(t *testing.T) {
	s, out, _ := newTestShell("", false)
	assert.True(t, s.dispatch("help"))
	assert.Equal(t, Usage(s.cfg), out.String())
}

func TestDispatchPwd(t *testing.T) {
	s, out, _ := newTestShell("", false)
	assert.True(t, s.dispatch("pwd"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd+"\n", out.String())
}

func TestPipelineRejectsBuiltinStage(t *testing.T) {
	cases := []string{
		"status | cat",
		"cat /etc/hosts | status",
		"cat | health | grep x",
	}

	for _, line := range cases {
		t.Run(line, func(t *testing.T) {
			s, out, errOut := newTestShell("", false)
			assert.True(t, s.dispatch(line))
			assert.Contains(t, errOut.String(), "cannot be used in a pipeline")
			assert.Empty(t, out.String(), "nothing may run in a rejected pipeline")
		})
	}
}

func TestPipelineRejectsUnknownStage(t *testing.T) {
	s, out, errOut := newTestShell("", false)
	assert.True(t, s.dispatch("cat /etc/hosts | rm"))
	assert.Contains(t, errOut.String(), "unknown command: rm")
	assert.Empty(t, out.String())
}

func TestPipelineRejectsEmptyStage(t *testing.T) {
	for _, line := range []string{"cat |", "| cat", "cat | | grep x"} {
		t.Run(line, func(t *testing.T) {
			s, _, errOut := newTestShell("", false)
			assert.True(t, s.dispatch(line))
			assert.Contains(t, errOut.String(), "syntax error near '|'")
		})
	}
}

func TestPipelineRuns(t *testing.T) {
	s, out, errOut := newTestShell("foo x\nbar\n", false)
	assert.True(t, s.dispatch("cat | grep x"))
	assert.Equal(t, "foo x\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestPipelineQuotedArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a b.txt")
	require.NoError(t, os.WriteFile(path, []byte("needle here\nhay\n"), 0600))

	s, out, _ := newTestShell("", false)
	assert.True(t, s.dispatch(`cat "`+path+`" | grep needle`))
	assert.Equal(t, "needle here\n", out.String())
}

func TestCd(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(orig) })

	resolve := func(t *testing.T, dir string) string {
		resolved, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		return resolved
	}

	t.Run("no argument goes home", func(t *testing.T) {
		t.Cleanup(func() { _ = os.Chdir(orig) })
		home := t.TempDir()
		t.Setenv("HOME", home)

		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd"})
		assert.Empty(t, errOut.String())

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, resolve(t, home), resolve(t, wd))
	})

	t.Run("no argument without HOME falls back to root", func(t *testing.T) {
		t.Setenv("HOME", "")

		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd"})
		assert.Empty(t, errOut.String())

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, "/", wd)
	})

	t.Run("explicit path", func(t *testing.T) {
		t.Cleanup(func() { _ = os.Chdir(orig) })
		dir := t.TempDir()

		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd", dir})
		assert.Empty(t, errOut.String())

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, resolve(t, dir), resolve(t, wd))
	})

	t.Run("home relative path", func(t *testing.T) {
		t.Cleanup(func() { _ = os.Chdir(orig) })
		home := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(home, "sub"), 0700))
		t.Setenv("HOME", home)

		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd", "~/sub"})
		assert.Empty(t, errOut.String())

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, resolve(t, filepath.Join(home, "sub")), resolve(t, wd))
	})

	t.Run("nonexistent path leaves wd unchanged", func(t *testing.T) {
		before, err := os.Getwd()
		require.NoError(t, err)

		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd", "/does/not/exist"})
		assert.Contains(t, errOut.String(), "cd:")

		after, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("too many arguments", func(t *testing.T) {
		s, _, errOut := newTestShell("", false)
		s.cd([]string{"cd", "a", "b"})
		assert.Contains(t, errOut.String(), "too many arguments")
	})
}

func TestUsageGolden(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "help", []byte(Usage(config.Default())))
}

func TestUsageListsEveryCommand(t *testing.T) {
	usage := Usage(config.Default())
	for _, info := range Commands() {
		assert.Contains(t, usage, info.Name)
	}
}
