// Package vcs reads the checkout state recorded alongside each attempt.
package vcs

import (
	"github.com/go-git/go-git/v5"
)

// Revision returns the abbreviated HEAD commit of the repository containing
// projectPath, with the branch name when HEAD is not detached
// ("main@4f2a9c1"). It returns an empty string when projectPath is not in a
// git repository or HEAD cannot be resolved (e.g. no commits yet).
func Revision(projectPath string) string {
	repo, err := git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}

	head, err := repo.Head()
	if err != nil {
		return ""
	}

	hash := head.Hash().String()
	if len(hash) > 7 {
		hash = hash[:7]
	}

	if head.Name().IsBranch() {
		return head.Name().Short() + "@" + hash
	}
	return hash
}
