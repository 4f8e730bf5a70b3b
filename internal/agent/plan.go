// Package agent implements the action-resolution and execution pipeline: it
// turns a free-text user instruction into a single GitHub operation, executes
// it, and renders the result as a user-facing message.
package agent

import (
	"regexp"
	"strings"
)

// issueNumberRe matches item-addressed issue/PR paths like /repos/{repo}/issues/42
var issueNumberRe = regexp.MustCompile(`/issues/\d+$`)

// Verb is the HTTP method of a resolved operation.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPut    Verb = "PUT"
	VerbDelete Verb = "DELETE"
)

// Kind tags a resolved plan for response formatting.
type Kind string

const (
	KindListIssues        Kind = "list_issues"
	KindCreateIssue       Kind = "create_issue"
	KindCloseIssue        Kind = "close_issue"
	KindReopenIssue       Kind = "reopen_issue"
	KindListPullRequests  Kind = "list_pull_requests"
	KindCreatePullRequest Kind = "create_pull_request"
	KindMergePullRequest  Kind = "merge_pull_request"
	KindListBranches      Kind = "list_branches"
	KindCreateBranch      Kind = "create_branch"
	KindDeleteBranch      Kind = "delete_branch"
	KindListCommits       Kind = "list_commits"
	KindSearchCode        Kind = "search_code"
	KindComment           Kind = "comment"
	KindClarify           Kind = "clarify"
	KindUnknown           Kind = "unknown"
)

// ActionPlan is the resolved, structured representation of a user's intent as
// one remote operation. PathTemplate contains a {repo} placeholder that the
// executor substitutes with the session's "owner/name" repository.
type ActionPlan struct {
	Verb         Verb
	PathTemplate string
	Payload      map[string]any // non-nil only for mutating verbs
	Description  string
	Kind         Kind

	// fromFallback marks a plan produced by the deterministic matcher after
	// the model path failed. Internal signal only; never user-visible.
	fromFallback bool
}

// inferKind classifies a verb/path pair into a plan kind. It is used for plans
// returned by the model, which provides a verb and path but no kind tag. The
// payload disambiguates same-shaped operations (close vs reopen issue).
func inferKind(verb Verb, path string, payload map[string]any) Kind {
	// Strip query parameters before matching path segments
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	switch {
	case strings.Contains(path, "/search/code"):
		return KindSearchCode
	case strings.Contains(path, "/comments"):
		if verb == VerbPost {
			return KindComment
		}
		return KindUnknown
	case strings.Contains(path, "/merge"):
		if verb == VerbPut {
			return KindMergePullRequest
		}
		return KindUnknown
	case strings.Contains(path, "/git/refs") || strings.Contains(path, "/branches"):
		switch verb {
		case VerbGet:
			return KindListBranches
		case VerbPost:
			return KindCreateBranch
		case VerbDelete:
			return KindDeleteBranch
		}
		return KindUnknown
	case strings.Contains(path, "/commits"):
		if verb == VerbGet {
			return KindListCommits
		}
		return KindUnknown
	case strings.Contains(path, "/pulls"):
		switch verb {
		case VerbGet:
			return KindListPullRequests
		case VerbPost:
			return KindCreatePullRequest
		}
		return KindUnknown
	case strings.Contains(path, "/issues"):
		switch verb {
		case VerbGet:
			return KindListIssues
		case VerbPost:
			// POST to /issues creates; POST to /issues/{n} updates state
			if issueNumberRe.MatchString(path) {
				if state, _ := payload["state"].(string); state == "open" {
					return KindReopenIssue
				}
				return KindCloseIssue
			}
			return KindCreateIssue
		}
		return KindUnknown
	}
	return KindUnknown
}
