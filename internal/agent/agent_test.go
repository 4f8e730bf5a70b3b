package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/techchamps/repoagent/internal/session"
)

func TestResolveAndExecute_CreateIssue(t *testing.T) {
	caller := &fakeCaller{resp: &RemoteResponse{
		Status: 201,
		Body:   []byte(`{"number": 42, "title": "Issue from natural language request", "html_url": "https://github.com/acme/widgets/issues/42"}`),
	}}
	ag := New(nil, caller)

	text := ag.ResolveAndExecute(context.Background(), "please create an issue about the login bug", testContext)

	require.Equal(t, 1, caller.calls)
	require.Equal(t, VerbPost, caller.lastVerb)
	require.Equal(t, "/repos/acme/widgets/issues", caller.lastPath)
	require.Contains(t, text, "#42")
	require.Contains(t, text, "https://github.com/acme/widgets/issues/42")
}

func TestResolveAndExecute_ListIssuesEmpty(t *testing.T) {
	caller := &fakeCaller{resp: &RemoteResponse{Status: 200, Body: []byte(`[]`)}}
	ag := New(nil, caller)

	text := ag.ResolveAndExecute(context.Background(), "list open issues", testContext)

	require.Equal(t, "📋 list open issues\n\nNo items found.", text)
}

func TestResolveAndExecute_UnresolvableMessageClarifies(t *testing.T) {
	caller := &fakeCaller{}
	ag := New(nil, caller)

	text := ag.ResolveAndExecute(context.Background(), "asdfasdf random text", testContext)

	require.Equal(t, 0, caller.calls, "clarify never reaches the remote service")
	require.True(t, strings.HasPrefix(text, "🤔"))
	require.NotContains(t, text, "❌")
	require.Contains(t, text, "Create an issue")
}

func TestResolveAndExecute_EmptyMessageClarifies(t *testing.T) {
	caller := &fakeCaller{}
	ag := New(nil, caller)

	text := ag.ResolveAndExecute(context.Background(), "   ", testContext)

	require.Equal(t, 0, caller.calls)
	require.True(t, strings.HasPrefix(text, "🤔"))
}

func TestResolveAndExecute_TransportFailure(t *testing.T) {
	caller := &fakeCaller{err: errors.New("dial tcp 140.82.1.1:443: connect: connection refused")}
	ag := New(nil, caller)

	text := ag.ResolveAndExecute(context.Background(), "list branches", testContext)

	require.True(t, strings.HasPrefix(text, "❌"))
	require.NotContains(t, text, "dial tcp", "no internal error text leaks to the user")
	require.NotContains(t, text, "connection refused")
}

func TestResolveAndExecute_MissingRepository(t *testing.T) {
	caller := &fakeCaller{}
	ag := New(nil, caller)

	sctx := session.Context{Credential: "ghp_testtoken"} // no repository selected
	text := ag.ResolveAndExecute(context.Background(), "create a branch for the bug", sctx)

	require.Equal(t, 0, caller.calls, "remote caller never invoked without a repository")
	require.True(t, strings.HasPrefix(text, "❌"))
	require.Contains(t, text, "repository")
}

func TestResolveAndExecute_ModelAssistedPlan(t *testing.T) {
	completer := &completerStub{
		output: `{"verb": "PUT", "path": "/repos/{repo}/pulls/7/merge", "description": "merge pull request"}`,
	}
	caller := &fakeCaller{resp: &RemoteResponse{
		Status: 200,
		Body:   []byte(`{"merged": true, "message": "Pull Request successfully merged"}`),
	}}
	ag := New(completer, caller)

	text := ag.ResolveAndExecute(context.Background(), "merge PR 7", testContext)

	require.Equal(t, 1, completer.calls)
	require.Equal(t, VerbPut, caller.lastVerb)
	require.Equal(t, "/repos/acme/widgets/pulls/7/merge", caller.lastPath)
	require.Contains(t, text, "✅")
}

func TestResolveAndExecute_GarbageModelOutputStillWorks(t *testing.T) {
	completer := &completerStub{output: "sure, I'll get right on that!"}
	caller := &fakeCaller{resp: &RemoteResponse{Status: 200, Body: []byte(`[]`)}}
	ag := New(completer, caller)

	text := ag.ResolveAndExecute(context.Background(), "list open issues", testContext)

	require.Equal(t, "📋 list open issues\n\nNo items found.", text)
}
