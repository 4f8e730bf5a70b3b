package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/techchamps/repoagent/internal/session"
)

// ErrorKind categorizes a failed Outcome.
type ErrorKind string

const (
	// ErrNeedsClarification is a soft failure: the message was too ambiguous
	// to resolve and the pipeline never touched the remote service.
	ErrNeedsClarification ErrorKind = "needs_clarification"
	// ErrMissingContext means the session lacked a repository or credential.
	ErrMissingContext ErrorKind = "missing_context"
	// ErrTransport means the remote call could not complete at all.
	ErrTransport ErrorKind = "transport_error"
	// ErrRemoteRejected means the remote service returned a non-2xx status.
	ErrRemoteRejected ErrorKind = "remote_rejected"
	// ErrMalformedResponse means a 2xx response body could not be interpreted.
	ErrMalformedResponse ErrorKind = "malformed_response"
)

// Outcome is the normalized result of executing an ActionPlan. Exactly one of
// the success fields (Record or Items) is set on success; ErrorKind and
// ErrorDetail are set only on failure. ErrorDetail is safe to surface.
type Outcome struct {
	Success bool

	Record map[string]any   // single-object responses
	Items  []map[string]any // list-shaped responses, order preserved

	ErrorKind   ErrorKind
	ErrorDetail string
}

func failure(kind ErrorKind, detail string) Outcome {
	return Outcome{ErrorKind: kind, ErrorDetail: detail}
}

// RemoteResponse is the raw result of a remote call that completed at the
// transport level, successfully or not.
type RemoteResponse struct {
	Status int
	Body   []byte
}

// RemoteCaller performs a single HTTP call against the hosting service. A
// returned error means the call did not complete (connection, timeout, DNS);
// non-2xx statuses are returned as a RemoteResponse, not an error. Retry
// policy, if any, belongs to the implementation, never to the executor.
type RemoteCaller interface {
	Call(ctx context.Context, verb Verb, path string, headers map[string]string, body any) (*RemoteResponse, error)
}

// Executor performs the one remote call described by an ActionPlan and
// normalizes every failure mode into an Outcome. It holds no per-request
// state and is safe for concurrent use.
type Executor struct {
	caller RemoteCaller
}

func NewExecutor(caller RemoteCaller) *Executor {
	return &Executor{caller: caller}
}

// Execute runs a plan against the remote service with the session's
// repository and credential. A clarify plan short-circuits before any
// precondition check or remote call.
func (e *Executor) Execute(ctx context.Context, plan ActionPlan, sctx session.Context) Outcome {
	if plan.Kind == KindClarify {
		return failure(ErrNeedsClarification, plan.Description)
	}

	if sctx.Repository == "" {
		return failure(ErrMissingContext, "no repository selected; please select a repository first")
	}
	if sctx.Credential == "" {
		return failure(ErrMissingContext, "not authenticated; please provide a GitHub token")
	}

	path := strings.ReplaceAll(plan.PathTemplate, "{repo}", sctx.Repository)
	headers := map[string]string{
		"Authorization": "Bearer " + sctx.Credential,
		"Accept":        "application/vnd.github+json",
	}

	var body any
	if (plan.Verb == VerbPost || plan.Verb == VerbPut) && len(plan.Payload) > 0 {
		body = plan.Payload
	}

	resp, err := e.caller.Call(ctx, plan.Verb, path, headers, body)
	if err != nil {
		return failure(ErrTransport, "could not reach GitHub; please try again later")
	}

	if resp.Status < 200 || resp.Status > 299 {
		return failure(ErrRemoteRejected, remoteErrorDetail(resp))
	}

	return parseSuccessBody(resp.Body)
}

// remoteErrorDetail surfaces the message field of a GitHub error body when it
// is parseable, falling back to a generic status-based message.
func remoteErrorDetail(resp *RemoteResponse) string {
	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &errBody); err == nil && errBody.Message != "" {
		return fmt.Sprintf("GitHub rejected the request (status %d): %s", resp.Status, errBody.Message)
	}
	return fmt.Sprintf("GitHub rejected the request (status %d)", resp.Status)
}

// parseSuccessBody interprets a 2xx response body as either a single record
// or an ordered list of records. Some successful calls (e.g. branch deletion)
// return no body at all; those are treated as an empty record.
func parseSuccessBody(body []byte) Outcome {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Outcome{Success: true, Record: map[string]any{}}
	}

	switch trimmed[0] {
	case '[':
		var items []map[string]any
		if err := json.Unmarshal(body, &items); err != nil {
			return failure(ErrMalformedResponse, "GitHub returned a response that could not be understood")
		}
		return Outcome{Success: true, Items: items}
	case '{':
		var record map[string]any
		if err := json.Unmarshal(body, &record); err != nil {
			return failure(ErrMalformedResponse, "GitHub returned a response that could not be understood")
		}
		return Outcome{Success: true, Record: record}
	}
	return failure(ErrMalformedResponse, "GitHub returned a response that could not be understood")
}
