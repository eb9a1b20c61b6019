package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportgen/internal/account"
	"reportgen/internal/domain"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("ranker:\n  workers: 2\nreport:\n  timezone: UTC\nexport:\n  format: txt\n  dir: %s\nstorage:\n  data_dir: %s\narchive:\n  path: %s\nlog:\n  level: error\n",
		filepath.Join(dir, "out"), filepath.Join(dir, "accounts"), filepath.Join(dir, "reports.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, dir
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"reportgen"}, args...))
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)
	doc := filepath.Join(dir, "pets.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Cats purr. Dogs bark. Cats nap."), 0o644))

	out, err := runApp(t, "--config", cfgPath, "generate", "--file", doc, "--prompt", "cats", "--export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "=== AI-Generated Report ===\n\nPrompt: cats\n\nExtracted Information:\nCats purr.\nCats nap.\n\nGenerated on: "), out)
	assert.Contains(t, out, "saved "+filepath.Join(dir, "out", "AI_Report_"))

	matches, err := filepath.Glob(filepath.Join(dir, "out", "AI_Report_*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestGenerateCommand_RequiresFlags(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	_, err := runApp(t, "--config", cfgPath, "generate", "--prompt", "cats")
	assert.Error(t, err)
}

func TestAccountCommands(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)

	out, err := runApp(t, "--config", cfgPath, "signup", "--name", "Ada", "--email", "ada@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Sign up successful!")

	_, err = runApp(t, "--config", cfgPath, "login", "--email", "ada@example.com", "--password", "nope")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password.", domain.UserMessage(err))

	out, err = runApp(t, "--config", cfgPath, "login", "--email", "ada@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada")

	out, err = runApp(t, "--config", cfgPath, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Ada <ada@example.com>\n", out)

	doc := filepath.Join(dir, "pets.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Cats purr."), 0o644))
	_, err = runApp(t, "--config", cfgPath, "generate", "-f", doc, "-p", "cats")
	require.NoError(t, err)

	out, err = runApp(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "pets.txt")
	assert.Contains(t, out, `"cats"`)

	_, err = runApp(t, "--config", cfgPath, "logout")
	require.NoError(t, err)
	_, err = runApp(t, "--config", cfgPath, "whoami")
	assert.Error(t, err)
}
