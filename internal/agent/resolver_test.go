package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type completerStub struct {
	output string
	err    error
	calls  int
}

func (cs *completerStub) Complete(_ context.Context, _ string) (string, error) {
	cs.calls++
	return cs.output, cs.err
}

func TestKeywordMatcher_CreateIssue(t *testing.T) {
	// Any message containing both "create" and "issue", in either order and
	// any casing, must resolve to create_issue
	messages := []string{
		"please create an issue about the login bug",
		"CREATE a new ISSUE",
		"there is an issue I want you to create",
		"Create issue: the button is broken and we should list everything",
	}

	for _, message := range messages {
		plan := resolveByKeywords(message)
		require.Equal(t, KindCreateIssue, plan.Kind, "message: %q", message)
		require.Equal(t, VerbPost, plan.Verb)
		require.Equal(t, "/repos/{repo}/issues", plan.PathTemplate)
		require.NotEmpty(t, plan.Payload["title"])
	}
}

func TestKeywordMatcher_PullRequests(t *testing.T) {
	createPlan := resolveByKeywords("open a pull request for this change")
	require.Equal(t, KindCreatePullRequest, createPlan.Kind)
	require.Equal(t, VerbPost, createPlan.Verb)

	listPlan := resolveByKeywords("show me the open pull requests")
	require.Equal(t, KindListPullRequests, listPlan.Kind)
	require.Equal(t, VerbGet, listPlan.Verb)
	require.Nil(t, listPlan.Payload)
}

func TestKeywordMatcher_CreateBranch(t *testing.T) {
	tests := []struct {
		message string
		branch  string
	}{
		{"create a branch for the bug", "bug-fixes"},
		{"create a feature branch", "feature-branch"},
		{"create a hotfix branch", "hotfix"},
		{"create a branch", "bug-fixes"},
	}

	for _, tc := range tests {
		plan := resolveByKeywords(tc.message)
		require.Equal(t, KindCreateBranch, plan.Kind, "message: %q", tc.message)
		require.Equal(t, "refs/heads/"+tc.branch, plan.Payload["ref"])
	}
}

func TestKeywordMatcher_ListAndSearch(t *testing.T) {
	require.Equal(t, KindSearchCode, resolveByKeywords("find the auth middleware").Kind)
	require.Equal(t, KindSearchCode, resolveByKeywords("search for TODO comments").Kind)
	require.Equal(t, KindListIssues, resolveByKeywords("list open issues").Kind)
	require.Equal(t, KindListBranches, resolveByKeywords("show all branches").Kind)
}

func TestKeywordMatcher_PrecedenceFirstMatchWins(t *testing.T) {
	// Matches both (create, issue) and the pr mention; create_issue comes
	// first in the precedence order
	plan := resolveByKeywords("create an issue about the broken pr")
	require.Equal(t, KindCreateIssue, plan.Kind)
}

func TestKeywordMatcher_Clarify(t *testing.T) {
	for _, message := range []string{"asdfasdf random text", "", "   "} {
		plan := resolveByKeywords(message)
		require.Equal(t, KindClarify, plan.Kind, "message: %q", message)
		require.Nil(t, plan.Payload)
		require.NotEmpty(t, plan.Description)
	}
}

func TestResolve_NoCompleterUsesKeywords(t *testing.T) {
	resolver := NewResolver(nil)
	plan := resolver.Resolve(context.Background(), "list open issues", "acme/widgets")
	require.Equal(t, KindListIssues, plan.Kind)
}

func TestResolve_ModelPlanUsedWhenParseable(t *testing.T) {
	stub := &completerStub{
		output: `{"verb": "post", "path": "/repos/{repo}/issues", "payload": {"title": "Login broken"}, "description": "create issue"}`,
	}
	resolver := NewResolver(stub)

	plan := resolver.Resolve(context.Background(), "the login is broken, file it", "acme/widgets")
	require.Equal(t, 1, stub.calls)
	require.Equal(t, VerbPost, plan.Verb)
	require.Equal(t, "/repos/{repo}/issues", plan.PathTemplate)
	require.Equal(t, KindCreateIssue, plan.Kind)
	require.Equal(t, "Login broken", plan.Payload["title"])
}

func TestResolve_ModelPlanFencedJSON(t *testing.T) {
	stub := &completerStub{
		output: "```json\n{\"verb\": \"GET\", \"path\": \"/repos/{repo}/branches\", \"description\": \"list branches\"}\n```",
	}
	resolver := NewResolver(stub)

	plan := resolver.Resolve(context.Background(), "what branches exist?", "acme/widgets")
	require.Equal(t, KindListBranches, plan.Kind)
	require.Equal(t, VerbGet, plan.Verb)
}

func TestResolve_ModelInlinedRepositoryNormalized(t *testing.T) {
	stub := &completerStub{
		output: `{"verb": "GET", "path": "/repos/acme/widgets/issues?state=open", "description": "list issues"}`,
	}
	resolver := NewResolver(stub)

	plan := resolver.Resolve(context.Background(), "issues?", "acme/widgets")
	require.Equal(t, "/repos/{repo}/issues?state=open", plan.PathTemplate)
	require.Equal(t, KindListIssues, plan.Kind)
}

func TestResolve_GarbageModelOutputEqualsKeywordPath(t *testing.T) {
	// With garbage model output, resolution must match the
	// deterministic-only path exactly
	messages := []string{
		"please create an issue about the login bug",
		"list open issues",
		"asdfasdf random text",
	}

	garbageOutputs := []string{
		"I think you should create an issue! Here's why...",
		`{"verb": "TELEPORT", "path": "/repos/{repo}/issues"}`,
		`{"verb": "GET", "path": "/no/placeholder/here"}`,
		"",
	}

	for _, message := range messages {
		expected := NewResolver(nil).Resolve(context.Background(), message, "acme/widgets")
		for _, output := range garbageOutputs {
			got := NewResolver(&completerStub{output: output}).Resolve(context.Background(), message, "acme/widgets")
			got.fromFallback = false
			require.Equal(t, expected, got, "message %q, model output %q", message, output)
		}
	}
}

func TestResolve_ModelErrorFallsBack(t *testing.T) {
	stub := &completerStub{err: errors.New("quota exceeded")}
	resolver := NewResolver(stub)

	plan := resolver.Resolve(context.Background(), "list open issues", "acme/widgets")
	require.Equal(t, KindListIssues, plan.Kind)
	require.True(t, plan.fromFallback)
}

func TestParseModelPlan_StripsPayloadForReadVerbs(t *testing.T) {
	plan, err := parseModelPlan(`{"verb": "GET", "path": "/repos/{repo}/commits", "payload": {"junk": true}, "description": "list commits"}`, "acme/widgets")
	require.NoError(t, err)
	require.Nil(t, plan.Payload)
	require.Equal(t, KindListCommits, plan.Kind)
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		verb    Verb
		path    string
		payload map[string]any
		want    Kind
	}{
		{VerbGet, "/repos/{repo}/issues?state=open", nil, KindListIssues},
		{VerbPost, "/repos/{repo}/issues", nil, KindCreateIssue},
		{VerbPost, "/repos/{repo}/issues/7", map[string]any{"state": "closed"}, KindCloseIssue},
		{VerbPost, "/repos/{repo}/issues/7", map[string]any{"state": "open"}, KindReopenIssue},
		{VerbGet, "/repos/{repo}/pulls?state=open", nil, KindListPullRequests},
		{VerbPost, "/repos/{repo}/pulls", nil, KindCreatePullRequest},
		{VerbPut, "/repos/{repo}/pulls/3/merge", nil, KindMergePullRequest},
		{VerbGet, "/repos/{repo}/branches", nil, KindListBranches},
		{VerbPost, "/repos/{repo}/git/refs", nil, KindCreateBranch},
		{VerbDelete, "/repos/{repo}/git/refs/heads/old", nil, KindDeleteBranch},
		{VerbGet, "/repos/{repo}/commits", nil, KindListCommits},
		{VerbGet, "/search/code?q=foo+repo:{repo}", nil, KindSearchCode},
		{VerbPost, "/repos/{repo}/issues/7/comments", nil, KindComment},
		{VerbPut, "/repos/{repo}/branches", nil, KindUnknown},
		{VerbGet, "/repos/{repo}/stargazers", nil, KindUnknown},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s %s", tc.verb, tc.path), func(t *testing.T) {
			require.Equal(t, tc.want, inferKind(tc.verb, tc.path, tc.payload))
		})
	}
}
