package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRunsEchoSession(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "hello\nexit\n", "--backend", "echo", "--no-color", "--log-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Backend: echo (echo)")
	assert.Contains(t, out, "Assistant: hello\n")
	assert.Contains(t, out, "Assistant: Bye!")

	_, statErr := os.Stat(filepath.Join(dir, "minichat.log"))
	assert.NoError(t, statErr)
}

func TestRootEnvironmentSelectsBackend(t *testing.T) {
	t.Setenv("MINICHAT_BACKEND", "echo")
	t.Setenv("MINICHAT_NO_COLOR", "true")

	out, err := execute(t, "quit\n", "--log-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Backend: echo")
}

func TestRootRejectsUnknownBackend(t *testing.T) {
	_, err := execute(t, "", "--backend", "bard", "--log-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestRootRequiresCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := execute(t, "", "--backend", "openai", "--log-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY not set")
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, "", "hello")
	require.Error(t, err)
}

func TestRootTimeoutIsOptIn(t *testing.T) {
	flag := newRootCmd().Flags().Lookup("timeout")
	require.NotNil(t, flag)
	assert.Equal(t, "0s", flag.DefValue)
}
