package agent

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/techchamps/repoagent/internal/session"
)

const tracerName = "github.com/techchamps/repoagent/internal/agent"

// Agent composes the resolve → execute → format pipeline. It holds no mutable
// state between invocations; the session context is passed per call, so a
// single Agent is safe for concurrent requests.
type Agent struct {
	resolver  *Resolver
	executor  *Executor
	formatter *Formatter
	tracer    trace.Tracer
}

// New creates an Agent. A nil completer disables the model-assisted
// resolution path; the deterministic matcher is always available.
func New(completer Completer, caller RemoteCaller) *Agent {
	return &Agent{
		resolver:  NewResolver(completer),
		executor:  NewExecutor(caller),
		formatter: NewFormatter(),
		tracer:    otel.Tracer(tracerName),
	}
}

// ResolveAndExecute is the single end-to-end entry point: it resolves the
// message to a plan, executes it, and renders the outcome. It never returns
// an error; every failure is represented in-band in the returned message.
func (a *Agent) ResolveAndExecute(ctx context.Context, message string, sctx session.Context) string {
	ctx, span := a.tracer.Start(ctx, "agent.ResolveAndExecute")
	defer span.End()

	plan := a.resolvePlan(ctx, message, sctx.Repository)
	span.SetAttributes(
		attribute.String("plan.kind", string(plan.Kind)),
		attribute.String("plan.verb", string(plan.Verb)),
	)

	outcome := a.executePlan(ctx, plan, sctx)
	if !outcome.Success {
		span.SetAttributes(attribute.String("outcome.error_kind", string(outcome.ErrorKind)))
	}

	return a.formatter.Format(outcome, plan)
}

func (a *Agent) resolvePlan(ctx context.Context, message string, repository string) ActionPlan {
	ctx, span := a.tracer.Start(ctx, "agent.Resolve")
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return ActionPlan{Description: clarifyGuidance, Kind: KindClarify}
	}

	plan := a.resolver.Resolve(ctx, message, repository)
	if a.resolver.completer != nil && plan.fromFallback {
		// Internal signal only: the model path failed and the deterministic
		// matcher decided. Never user-visible, never fatal.
		span.AddEvent("resolution_fallback_used")
	}
	return plan
}

func (a *Agent) executePlan(ctx context.Context, plan ActionPlan, sctx session.Context) Outcome {
	ctx, span := a.tracer.Start(ctx, "agent.Execute")
	defer span.End()

	return a.executor.Execute(ctx, plan, sctx)
}
