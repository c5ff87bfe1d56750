// Package gitsource syncs the content directory from a remote git
// repository: clone on first use, pull on subsequent syncs.
package gitsource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Syncer keeps a local checkout of the content repository.
type Syncer struct {
	URL    string
	Branch string
	Dir    string
}

// Sync clones the repository into Dir on first use and pulls afterwards.
// Returns the checkout directory.
func (s *Syncer) Sync() (string, error) {
	if s.URL == "" {
		return "", fmt.Errorf("gitsource: repository URL is required")
	}

	if _, err := os.Stat(filepath.Join(s.Dir, ".git")); err == nil {
		return s.pull()
	}
	return s.clone()
}

func (s *Syncer) clone() (string, error) {
	slog.Debug("cloning content repository", "url", s.URL, "branch", s.Branch, "path", s.Dir)

	if err := os.RemoveAll(s.Dir); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{URL: s.URL}
	if s.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(s.Branch)
		cloneOptions.SingleBranch = true
	}

	repository, err := git.PlainClone(s.Dir, false, cloneOptions)
	if err != nil {
		return "", fmt.Errorf("failed to clone repository %s: %w", s.URL, err)
	}

	if ref, err := repository.Head(); err == nil {
		slog.Info("content repository cloned", "url", s.URL, "commit", shortHash(ref), "path", s.Dir)
	} else {
		slog.Info("content repository cloned", "url", s.URL, "path", s.Dir)
	}
	return s.Dir, nil
}

func (s *Syncer) pull() (string, error) {
	repository, err := git.PlainOpen(s.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return "", fmt.Errorf("failed to pull repository %s: %w", s.URL, err)
	}

	if err == git.NoErrAlreadyUpToDate {
		slog.Info("content repository already up to date", "url", s.URL)
	} else if ref, headErr := repository.Head(); headErr == nil {
		slog.Info("content repository updated", "url", s.URL, "commit", shortHash(ref))
	}
	return s.Dir, nil
}

func shortHash(ref *plumbing.Reference) string {
	h := ref.Hash().String()
	if len(h) > 8 {
		h = h[:8]
	}
	return h
}
