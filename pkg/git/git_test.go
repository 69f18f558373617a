package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireGit skips the test if no git binary is reachable on PATH, since these tests exercise
// the real executable rather than a fake.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	c := NewClient("", dir)
	_, err := c.exec(context.Background(), "init")
	require.NoError(t, err)
	_, err = c.exec(context.Background(), "config", "user.email", "xvc@example.com")
	require.NoError(t, err)
	_, err = c.exec(context.Background(), "config", "user.name", "xvc")
	require.NoError(t, err)
	_, err = c.exec(context.Background(), "commit", "--allow-empty", "-m", "initial")
	require.NoError(t, err)
	return dir
}

func TestNewClientDefaultsCommand(t *testing.T) {
	c := NewClient("", "/tmp")
	assert.Equal(t, "git", c.Command)
}

func TestInsideGitRepoFindsAncestor(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, ok := InsideGitRepo(nested)
	require.True(t, ok)
	assert.Equal(t, dir, root)
}

func TestInsideGitRepoNoRepo(t *testing.T) {
	dir := t.TempDir()
	_, ok := InsideGitRepo(dir)
	assert.False(t, ok)
}

func TestTrackedFiles(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	_, err := c.exec(context.Background(), "add", "a.txt")
	require.NoError(t, err)

	files, err := c.TrackedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, files, "a.txt")
}

func TestStashAndUnstashStagedFiles(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("y"), 0o644))
	_, err := c.exec(context.Background(), "add", "b.txt")
	require.NoError(t, err)

	staged, err := c.StashStagedFiles(context.Background())
	require.NoError(t, err)
	assert.Contains(t, staged, "b.txt")

	files, err := c.TrackedFiles(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, files, "b.txt")

	require.NoError(t, c.UnstashStagedFiles(context.Background()))
	out, err := c.exec(context.Background(), "diff", "--name-only", "--cached")
	require.NoError(t, err)
	assert.Contains(t, out, "b.txt")
}

func TestAutoCommitCommitsXvcDir(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)

	xvcDir := filepath.Join(dir, ".xvc")
	require.NoError(t, os.MkdirAll(xvcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xvcDir, "store.json"), []byte("{}"), 0o644))

	err := c.AutoCommit(context.Background(), ".xvc", "file track", "")
	require.NoError(t, err)

	out, err := c.exec(context.Background(), "log", "--oneline", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "xvc auto-commit after 'file track'")
}

func TestAutoCommitNoChangesDoesNotCommit(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)

	before, err := c.exec(context.Background(), "rev-parse", "HEAD")
	require.NoError(t, err)

	require.NoError(t, c.AutoCommit(context.Background(), ".xvc", "file track", ""))

	after, err := c.exec(context.Background(), "rev-parse", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHandleAutomationNoOpWhenDisabled(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)

	err := c.HandleAutomation(context.Background(), AutomationOptions{UseGit: false})
	assert.NoError(t, err)
}

func TestCheckIgnored(t *testing.T) {
	requireGit(t)
	dir := initRepo(t)
	c := NewClient("", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.txt\n"), 0o644))

	ignored, err := c.CheckIgnored(context.Background(), "ignored.txt")
	require.NoError(t, err)
	assert.True(t, ignored)

	ignored, err = c.CheckIgnored(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, ignored)
}
