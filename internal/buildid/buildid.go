// Package buildid derives a short build identifier from local git
// state, for deployments that do not carry an explicit one.
package buildid

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// shortHashLen matches the abbreviated form of `git rev-parse --short`.
const shortHashLen = 7

// Generator reads the repository containing Dir. The zero value reads
// the current working directory.
type Generator struct {
	Dir string
}

// BuildID returns the abbreviated HEAD commit hash. Any failure
// (missing repository, unborn HEAD) is returned for the caller to
// record as a soft condition.
func (g *Generator) BuildID(_ context.Context) (string, error) {
	dir := g.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Hash().String()[:shortHashLen], nil
}
