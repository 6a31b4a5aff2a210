// Package vcs reads build metadata from the checked out repository.
package vcs

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrNoCommitter is returned when the author of HEAD can not be read.
var ErrNoCommitter = errors.New("unable to resolve the committer email")

// CommitterEmail returns the author email of the HEAD commit of the
// repository containing dir, like `git log -1 --format=%ae`.
func CommitterEmail(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.Wrapf(ErrNoCommitter, "open repository %s: %v", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", errors.Wrapf(ErrNoCommitter, "resolve HEAD: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", errors.Wrapf(ErrNoCommitter, "read commit %s: %v", head.Hash(), err)
	}
	email := strings.TrimSpace(commit.Author.Email)
	if email == "" {
		return "", errors.Wrapf(ErrNoCommitter, "commit %s has no author email", head.Hash())
	}
	log.Debugf("committer of %s resolved from %s: %s", head.Hash().String()[:8], dir, email)
	return email, nil
}

// ResolveCommitter returns email when set, otherwise the author of HEAD in
// dir. Resolution errors are logged and an empty address is returned.
func ResolveCommitter(email, dir string) string {
	if email = strings.TrimSpace(email); email != "" {
		return email
	}
	resolved, err := CommitterEmail(dir)
	if err != nil {
		log.WithError(err).Warn("no committer email, the email channel will be skipped")
		return ""
	}
	return resolved
}
