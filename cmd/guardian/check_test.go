package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/softwarewrighter/guardian/internal/model"
)

func initRepoWithChange(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))
	_, err = worktree.Add(".")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runGuardian(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCheckFailingScriptBlocks(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n\nfunc main() {}\n")
	cfgPath := writeConfig(t, "version: \"1\"\nscripts:\n  commands:\n    - exit 1\n")

	out, err := runGuardian(t, "check", "--json", "--plain",
		"--config", cfgPath, "--path", repoDir)

	require.Error(t, err)
	var blocked *blockedError
	require.ErrorAs(t, err, &blocked)

	var verdict model.CheckVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	require.Equal(t, model.OverallBlocked, verdict.Overall)
	require.Len(t, verdict.Units, 1)
	require.Equal(t, model.UnitFailed, verdict.Units[0].Status)
}

func TestCheckPolicyWarningDoesNotBlock(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n\n// TODO finish\nfunc main() {}\n")
	cfgPath := writeConfig(t, `version: "1"
policy:
  rules:
    - id: no-todo
      type: forbidden_pattern
      pattern: TODO
      severity: medium
`)

	out, err := runGuardian(t, "check", "--json", "--plain",
		"--config", cfgPath, "--path", repoDir)

	require.NoError(t, err)
	var verdict model.CheckVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	require.Equal(t, model.OverallWarning, verdict.Overall)
	require.NotEmpty(t, verdict.Units[0].Violations)
}

func TestCheckCleanTreePasses(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n\nfunc main() {}\n")
	cfgPath := writeConfig(t, "version: \"1\"\nscripts:\n  commands:\n    - \"true\"\n")

	out, err := runGuardian(t, "check", "--plain",
		"--config", cfgPath, "--path", repoDir)

	require.NoError(t, err)
	require.Contains(t, out, "PASSED")
}

func TestCheckOnlyRestrictsUnits(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n\n// TODO finish\nfunc main() {}\n")
	cfgPath := writeConfig(t, `version: "1"
scripts:
  commands:
    - exit 1
policy:
  rules:
    - id: no-todo
      type: forbidden_pattern
      pattern: TODO
`)

	out, err := runGuardian(t, "check", "--json", "--plain", "--only", "policy",
		"--config", cfgPath, "--path", repoDir)

	// The failing script is excluded, so only the policy warning remains.
	require.NoError(t, err)
	var verdict model.CheckVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	require.Equal(t, model.OverallWarning, verdict.Overall)
	require.Len(t, verdict.Units, 1)
	require.Equal(t, model.UnitPolicy, verdict.Units[0].Kind)
}

func TestCheckOnlyRejectsUnknownKind(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n")
	cfgPath := writeConfig(t, "version: \"1\"\n")

	_, err := runGuardian(t, "check", "--plain", "--only", "everything",
		"--config", cfgPath, "--path", repoDir)
	require.Error(t, err)
}

func TestCheckExplicitMissingConfigFails(t *testing.T) {
	repoDir := initRepoWithChange(t, "package main\n")

	_, err := runGuardian(t, "check", "--plain",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--path", repoDir)

	require.Error(t, err)
}
