// Package vcs isolates the version-control capability behind a narrow
// interface so the patch emitter never parses or reinterprets git output.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Differ captures a repository's current diff against its checked-out HEAD.
type Differ interface {
	DiffAgainstHead(root string) (string, error)
}

// Git shells out to the git binary.
type Git struct{}

// DiffAgainstHead returns `git diff HEAD` output verbatim. Standard
// patch-apply tooling depends on byte-for-byte fidelity, so the output is
// never reformatted. A nonzero exit or empty output means "no changes to
// report", not a failure: a fully-failed apply pass legitimately produces an
// empty diff.
func (Git) DiffAgainstHead(root string) (string, error) {
	cmd := exec.Command("git", "diff", "HEAD")
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", nil
	}
	return out.String(), nil
}

// IsRepo reports whether root is inside a git working tree.
func IsRepo(root string) bool {
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = root
	return cmd.Run() == nil
}

// Clone performs a shallow clone of owner/repo into baseDir and returns the
// clone path.
func Clone(ctx context.Context, repo, baseDir string) (string, error) {
	name := strings.ReplaceAll(repo, "/", "_")
	clonePath := filepath.Join(baseDir, name+"_clone")
	url := fmt.Sprintf("https://github.com/%s.git", repo)

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, clonePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git clone %s: %s: %w", repo, strings.TrimSpace(stderr.String()), err)
	}
	return clonePath, nil
}
