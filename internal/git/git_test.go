package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
}

func mustGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(context.Background(), dir, args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return out
}

// newOrigin creates a bare repository with one commit on main and returns
// its path.
func newOrigin(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	origin := filepath.Join(root, "origin.git")
	seed := filepath.Join(root, "seed")

	mustGit(t, root, "init", "--bare", origin)
	mustGit(t, root, "init", seed)
	if err := os.WriteFile(filepath.Join(seed, "README.md"), []byte("seed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	mustGit(t, seed, "add", ".")
	mustGit(t, seed, "commit", "-m", "initial")
	mustGit(t, seed, "branch", "-M", "main")
	mustGit(t, seed, "remote", "add", "origin", origin)
	mustGit(t, seed, "push", "origin", "main")
	mustGit(t, origin, "symbolic-ref", "HEAD", "refs/heads/main")
	return origin
}

func TestNewGitOperations(t *testing.T) {
	g := NewGitOperations("/test/path")
	if g.projectPath != "/test/path" {
		t.Errorf("projectPath = %q, want /test/path", g.projectPath)
	}
}

func TestCommandError(t *testing.T) {
	base := errors.New("exit status 128")
	err := &CommandError{
		Args:   []string{"push", "-u", "origin", "dev-abc-1"},
		Stderr: "fatal: could not read from remote repository\n",
		Err:    base,
	}

	if err.CommandLine() != "git push -u origin dev-abc-1" {
		t.Errorf("CommandLine() = %q", err.CommandLine())
	}
	want := "git push -u origin dev-abc-1: exit status 128: fatal: could not read from remote repository"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, base) {
		t.Error("CommandError should unwrap to the exec error")
	}

	wrapped := errors.Join(errors.New("context"), err)
	if got, ok := AsCommandError(wrapped); !ok || got != err {
		t.Error("AsCommandError should find the wrapped CommandError")
	}
}

func TestGitOperationsInTempRepo(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	origin := newOrigin(t)
	work := filepath.Join(t.TempDir(), "api")

	var cloner Cloner
	if err := cloner.Clone(ctx, origin, work); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if err := cloner.Fetch(ctx, work); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	g := NewGitOperations(work)

	t.Run("RemoteURL", func(t *testing.T) {
		url, err := g.RemoteURL(ctx)
		if err != nil {
			t.Fatalf("RemoteURL failed: %v", err)
		}
		if url != origin {
			t.Errorf("RemoteURL() = %q, want %q", url, origin)
		}
	})

	t.Run("CreateOrResetBranch new", func(t *testing.T) {
		if err := cloner.CreateOrResetBranch(ctx, work, "dev-abc-1-fix-login"); err != nil {
			t.Fatalf("CreateOrResetBranch failed: %v", err)
		}
		branch, err := g.GetCurrentBranch(ctx)
		if err != nil {
			t.Fatalf("GetCurrentBranch failed: %v", err)
		}
		if branch != "dev-abc-1-fix-login" {
			t.Errorf("branch = %q, want dev-abc-1-fix-login", branch)
		}
	})

	t.Run("StageCommitPush", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(work, "fix.go"), []byte("package fix\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(ctx); err != nil {
			t.Fatalf("StageAll failed: %v", err)
		}
		sha, err := g.Commit(ctx, "[ABC-1] Fix login\nhandle empty passwords")
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if len(sha) != 40 {
			t.Errorf("sha = %q, want 40 hex chars", sha)
		}
		if err := g.Push(ctx, "dev-abc-1-fix-login"); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
		if !g.RemoteBranchExists(ctx, "dev-abc-1-fix-login") {
			t.Error("pushed branch should exist on origin")
		}
	})

	t.Run("Commit with nothing staged", func(t *testing.T) {
		_, err := g.Commit(ctx, "empty")
		cmdErr, ok := AsCommandError(err)
		if !ok {
			t.Fatalf("Commit error = %v, want *CommandError", err)
		}
		if !strings.HasPrefix(cmdErr.CommandLine(), "git commit -m") {
			t.Errorf("CommandLine() = %q", cmdErr.CommandLine())
		}
	})

	t.Run("CreateOrResetBranch resumes from origin", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "api")
		if err := cloner.Clone(ctx, origin, other); err != nil {
			t.Fatalf("Clone failed: %v", err)
		}
		if err := cloner.CreateOrResetBranch(ctx, other, "dev-abc-1-fix-login"); err != nil {
			t.Fatalf("CreateOrResetBranch failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(other, "fix.go")); err != nil {
			t.Errorf("branch should start from origin and contain fix.go: %v", err)
		}
	})
}

func TestClone_Failure(t *testing.T) {
	requireGit(t)

	err := Cloner{}.Clone(context.Background(), filepath.Join(t.TempDir(), "missing.git"), filepath.Join(t.TempDir(), "dest"))
	cmdErr, ok := AsCommandError(err)
	if !ok {
		t.Fatalf("Clone error = %v, want *CommandError", err)
	}
	if cmdErr.Stderr == "" {
		t.Error("Stderr should carry git's message")
	}
}

func TestGetCurrentBranch_NotARepo(t *testing.T) {
	requireGit(t)

	_, err := NewGitOperations(t.TempDir()).GetCurrentBranch(context.Background())
	if err == nil {
		t.Fatal("expected error outside a repository")
	}
}
