// Package git is a thin wrapper around invoking the `git` executable as a child process.
// It exists only to support the automation spec.md section 6 describes around operations that
// modify `.xvc/`: stashing/unstashing the user's staged changes, checking out a ref before a run,
// auto-committing or auto-staging `.xvc/` afterward, and answering `check-ignore` queries. It is
// not a Git implementation: every operation here shells out to the real `git` binary.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xvc-dev/xvc/internal/xlog"
	"github.com/xvc-dev/xvc/internal/xvcerr"
)

// GitDir is the directory name Git repositories are rooted at, used by InsideGitRepo to walk
// up from a path looking for an enclosing repository.
const GitDir = ".git"

// Client runs git commands against one repository directory using one git binary.
type Client struct {
	// Command is the git executable to invoke: a bare name resolved via PATH, or an absolute
	// path. Defaults to "git" if empty.
	Command string
	// Dir is the directory git is invoked with `-C`, normally the xvc repository root.
	Dir string
}

// NewClient creates a Client for dir using command, defaulting command to "git" when empty.
func NewClient(command, dir string) *Client {
	if command == "" {
		command = "git"
	}
	return &Client{Command: command, Dir: dir}
}

// InsideGitRepo reports whether path (or one of its ancestors) contains a .git directory,
// returning the closest such ancestor.
func InsideGitRepo(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	dir := abs
	for {
		if info, err := os.Stat(filepath.Join(dir, GitDir)); err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// exec runs `git -C c.Dir args...`, returning captured stdout on a zero exit and a
// xvcerr.ChildProcess-kind error (carrying captured stdout/stderr) on a nonzero one.
func (c *Client) exec(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", c.Dir}, args...)
	cmd := exec.CommandContext(ctx, c.Command, fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := xlog.WithComponent("git")
	logger.Debug().Strs("args", args).Msg("running git command")

	if err := cmd.Run(); err != nil {
		wrapped := fmt.Errorf("git %s: %w (stderr: %s)", strings.Join(args, " "), err, stderr.String())
		return "", xvcerr.New(xvcerr.ChildProcess, "git."+firstArg(args), c.Dir, wrapped)
	}
	return stdout.String(), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return "git"
	}
	return args[0]
}

// TrackedFiles returns the paths git currently tracks in c.Dir, as reported by
// `git ls-files --full-name`. core.quotepath is forced off so UTF-8 paths aren't octal-escaped.
func (c *Client) TrackedFiles(ctx context.Context) ([]string, error) {
	out, err := c.exec(ctx, "-c", "core.quotepath=off", "ls-files", "--full-name")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

// StashStagedFiles stashes whatever the user currently has staged (via `git stash push
// --staged`), returning the names of the files that were staged (empty if nothing was).
// Callers use this before xvc stages and commits its own changes, so the user's in-progress
// staged work isn't swept into xvc's auto-commit.
func (c *Client) StashStagedFiles(ctx context.Context) (string, error) {
	staged, err := c.exec(ctx, "diff", "--name-only", "--cached")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(staged) == "" {
		return staged, nil
	}
	if _, err := c.exec(ctx, "stash", "push", "--staged"); err != nil {
		return "", err
	}
	return staged, nil
}

// UnstashStagedFiles restores files stashed by StashStagedFiles via `git stash pop --index`.
func (c *Client) UnstashStagedFiles(ctx context.Context) error {
	_, err := c.exec(ctx, "stash", "pop", "--index")
	return err
}

// CheckoutRef stashes the user's staged files, checks out ref, then restores the stash.
// This implements the `--from-ref` global flag's behavior.
func (c *Client) CheckoutRef(ctx context.Context, ref string) error {
	staged, err := c.StashStagedFiles(ctx)
	if err != nil {
		return err
	}
	if _, err := c.exec(ctx, "checkout", ref); err != nil {
		return err
	}
	if strings.TrimSpace(staged) != "" {
		return c.UnstashStagedFiles(ctx)
	}
	return nil
}

// AutoStage runs `git add <xvcDir> *.gitignore *.xvcignore`, staging xvc's own state and any
// ignore files it manages without committing.
func (c *Client) AutoStage(ctx context.Context, xvcDir string) error {
	_, err := c.exec(ctx, "add", xvcDir, "*.gitignore", "*.xvcignore")
	return err
}

// AutoCommit stashes the user's staged changes, optionally checks out toBranch, stages and
// commits xvcDir plus any ignore files xvc manages, then restores the user's stash. The commit
// message names cmdName, the xvc command that produced the changes being committed. If nothing
// changed under xvcDir, no commit is made.
func (c *Client) AutoCommit(ctx context.Context, xvcDir, cmdName string, toBranch string) error {
	staged, err := c.StashStagedFiles(ctx)
	if err != nil {
		return err
	}

	if toBranch != "" {
		if _, err := c.exec(ctx, "checkout", "-b", toBranch); err != nil {
			return err
		}
	}

	// git add fails outright on a pathspec that matches nothing, so pass only those that match.
	addArgs := []string{"add", "--verbose"}
	for _, spec := range []string{xvcDir, "*.gitignore", "*.xvcignore"} {
		matched, err := c.exec(ctx, "ls-files", "--cached", "--others", "--exclude-standard", "--", spec)
		if err != nil {
			return err
		}
		if strings.TrimSpace(matched) != "" {
			addArgs = append(addArgs, spec)
		}
	}
	added := ""
	if len(addArgs) > 2 {
		if added, err = c.exec(ctx, addArgs...); err != nil {
			return err
		}
	}
	if strings.TrimSpace(added) != "" {
		if _, err := c.exec(ctx, "commit", "-m", fmt.Sprintf("xvc auto-commit after '%s'", cmdName)); err != nil {
			return err
		}
	}

	if strings.TrimSpace(staged) != "" {
		return c.UnstashStagedFiles(ctx)
	}
	return nil
}

// AutomationOptions controls HandleAutomation's behavior, populated from internal/config.GitConfig.
type AutomationOptions struct {
	UseGit     bool
	AutoCommit bool
	AutoStage  bool
	XvcDir     string
	CmdName    string
	ToBranch   string
}

// HandleAutomation runs the configured git automation (auto-commit, or auto-stage, or neither)
// after an xvc command that modified xvcDir, matching spec.md section 6's `git.*` config keys.
func (c *Client) HandleAutomation(ctx context.Context, opts AutomationOptions) error {
	if !opts.UseGit {
		return nil
	}
	if opts.AutoCommit {
		return c.AutoCommit(ctx, opts.XvcDir, opts.CmdName, opts.ToBranch)
	}
	if opts.AutoStage {
		return c.AutoStage(ctx, opts.XvcDir)
	}
	return nil
}

// CheckIgnored runs `git check-ignore <path>`, reporting whether git would ignore path.
func (c *Client) CheckIgnored(ctx context.Context, path string) (bool, error) {
	out, err := c.exec(ctx, "check-ignore", path)
	if err != nil {
		// git check-ignore exits 1 both for "not ignored" and isn't otherwise distinguishable
		// from a real failure except by exit code, so unwrap down to the *exec.ExitError.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
