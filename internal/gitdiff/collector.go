// Package gitdiff builds the check payload from a repository working tree.
// Changed files are listed with their sizes and flattened into a single
// diff-style text that the policy and review units consume.
package gitdiff

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/softwarewrighter/guardian/internal/logger"
	"github.com/softwarewrighter/guardian/internal/policy"
)

// Collector reads pending changes out of a git working tree.
type Collector struct {
	log *logger.Logger
}

// NewCollector creates a payload collector.
func NewCollector(log *logger.Logger) *Collector {
	return &Collector{log: log.WithComponent("gitdiff")}
}

// Collect gathers every staged or unstaged change under root into a
// payload. Untracked files are included; deletions contribute a header
// only. File paths are repository-relative and emitted in sorted order so
// the payload is deterministic for a fixed tree state.
func (c *Collector) Collect(root string) (policy.Payload, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return policy.Payload{}, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return policy.Payload{}, fmt.Errorf("reading worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return policy.Payload{}, fmt.Errorf("reading worktree status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	wtRoot := worktree.Filesystem.Root()

	payload := policy.Payload{}
	var diff strings.Builder
	for _, path := range paths {
		st := status.File(path)
		if st.Staging == git.Deleted || st.Worktree == git.Deleted {
			fmt.Fprintf(&diff, "--- a/%s\n", path)
			continue
		}

		abs := filepath.Join(wtRoot, path)
		info, err := os.Stat(abs)
		if err != nil {
			c.log.WithFields(map[string]any{"path": path}).Warn("changed file unreadable, skipping")
			continue
		}
		payload.Files = append(payload.Files, policy.File{Path: path, Size: info.Size()})

		fmt.Fprintf(&diff, "+++ b/%s\n", path)
		content, err := os.ReadFile(abs)
		if err != nil {
			c.log.WithFields(map[string]any{"path": path}).Warn("changed file unreadable, skipping content")
			continue
		}
		if isBinary(content) {
			fmt.Fprintf(&diff, "+[binary, %d bytes]\n", info.Size())
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(string(content), "\n"), "\n") {
			diff.WriteString("+")
			diff.WriteString(line)
			diff.WriteString("\n")
		}
	}

	payload.Diff = diff.String()
	c.log.WithFields(map[string]any{
		"files": len(payload.Files),
		"bytes": len(payload.Diff),
	}).Debug("payload collected")
	return payload, nil
}

// isBinary applies the same NUL-byte heuristic git uses on the first 8000
// bytes of content.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
