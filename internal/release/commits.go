package release

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/kmoran/notekit/internal/logging"
)

// Commit is a single entry from version-control history.
type Commit struct {
	Hash    string
	Subject string
	Body    string
}

// ConventionalCommit is the parsed form of a conventional-commit subject line,
// "type(scope)!: description".
type ConventionalCommit struct {
	Type        string
	Scope       string
	Description string
	Breaking    bool
}

var subjectRe = regexp.MustCompile(`^([A-Za-z]+)(?:\(([^)]*)\))?(!)?: +(.+)$`)

// ParseCommit interprets a commit as a conventional commit. The second return
// value is false when the subject does not follow the convention; such commits
// never influence version inference.
func ParseCommit(c Commit) (ConventionalCommit, bool) {
	m := subjectRe.FindStringSubmatch(strings.TrimSpace(c.Subject))
	if m == nil {
		return ConventionalCommit{}, false
	}

	cc := ConventionalCommit{
		Type:        strings.ToLower(m[1]),
		Scope:       m[2],
		Description: m[4],
		Breaking:    m[3] == "!",
	}
	if !cc.Breaking {
		cc.Breaking = hasBreakingFooter(c.Body)
	}
	return cc, true
}

func hasBreakingFooter(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "BREAKING CHANGE:") || strings.HasPrefix(line, "BREAKING-CHANGE:") {
			return true
		}
	}
	return false
}

// CommitSource yields the commit history a release is computed from. The git
// implementation shells out to the git binary; tests substitute fixed
// histories.
type CommitSource interface {
	// LastTag returns the most recent version tag reachable from HEAD, or ""
	// when the repository has no tags yet.
	LastTag(ctx context.Context) (string, error)
	// Commits returns the commits after since (a tag or revision), newest
	// first. An empty since means the full history.
	Commits(ctx context.Context, since string) ([]Commit, error)
}

// GitSource reads history by running the git command-line tool in Dir.
type GitSource struct {
	Dir string
}

// NewGitSource creates a CommitSource over the repository at dir.
func NewGitSource(dir string) *GitSource {
	return &GitSource{Dir: dir}
}

// Record separators for git log output. Unit separator between fields, record
// separator between commits, so multi-line bodies survive splitting.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// LastTag implements CommitSource. A repository without any tag is not an
// error; it yields "".
func (g *GitSource) LastTag(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		// git describe exits non-zero when no tag exists.
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Commits implements CommitSource.
func (g *GitSource) Commits(ctx context.Context, since string) ([]Commit, error) {
	spec := "HEAD"
	if since != "" {
		spec = since + "..HEAD"
	}

	out, err := g.git(ctx, "log", "--format=%H"+fieldSep+"%s"+fieldSep+"%b"+recordSep, spec)
	if err != nil {
		return nil, fmt.Errorf("reading commits for %s: %w", spec, err)
	}
	return parseLog(out), nil
}

func parseLog(out string) []Commit {
	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 3)
		if len(fields) != 3 {
			continue
		}
		commits = append(commits, Commit{
			Hash:    fields[0],
			Subject: fields[1],
			Body:    strings.TrimSpace(fields[2]),
		})
	}
	return commits
}

func (g *GitSource) git(ctx context.Context, args ...string) (string, error) {
	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).Strs("args", args).Str("dir", g.Dir).Msg("running git")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			log.Debug().Ctx(ctx).
				Int("exit_code", exitErr.ExitCode()).
				Str("stderr", strings.TrimSpace(stderr.String())).
				Msg("git exited non-zero")
			return "", exitErr
		}
		return "", fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
