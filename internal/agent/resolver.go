package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Completer is a single-shot text completion function. It is the only
// interface the resolver needs from a language model provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Resolver maps a free-text message to exactly one ActionPlan. When a
// Completer is configured the model output is tried first; any model failure
// or unparseable output falls back to the deterministic keyword matcher.
// Resolution is a pure text-to-plan function: no credential access, no side
// effects, and it never returns an error.
type Resolver struct {
	completer Completer // may be nil; deterministic-only when absent
}

func NewResolver(completer Completer) *Resolver {
	return &Resolver{completer: completer}
}

// Resolve produces the single ActionPlan for a message. The repository is
// embedded in the model prompt for context only; the returned plan keeps the
// {repo} placeholder in its path template so that execution-time validation
// stays at the executor boundary.
func (r *Resolver) Resolve(ctx context.Context, message string, repository string) ActionPlan {
	if r.completer == nil {
		return resolveByKeywords(message)
	}

	output, err := r.completer.Complete(ctx, buildResolverPrompt(message, repository))
	if err != nil {
		log.Printf("Model completion failed, using keyword matcher: %v", err)
		return fallbackPlan(message)
	}

	plan, err := parseModelPlan(output, repository)
	if err != nil {
		log.Printf("Model output unparseable, using keyword matcher: %v", err)
		return fallbackPlan(message)
	}
	return plan
}

func fallbackPlan(message string) ActionPlan {
	plan := resolveByKeywords(message)
	plan.fromFallback = true
	return plan
}

// modelPlan is the strict shape the model must emit. Anything that does not
// unmarshal into this shape triggers the deterministic fallback.
type modelPlan struct {
	Verb        string         `json:"verb"`
	Path        string         `json:"path"`
	Payload     map[string]any `json:"payload,omitempty"`
	Description string         `json:"description"`
}

func parseModelPlan(output string, repository string) (ActionPlan, error) {
	text := strings.TrimSpace(output)
	text = stripCodeFence(text)

	var mp modelPlan
	if err := json.Unmarshal([]byte(text), &mp); err != nil {
		return ActionPlan{}, fmt.Errorf("failed to parse model output as a plan: %w", err)
	}

	verb := Verb(strings.ToUpper(strings.TrimSpace(mp.Verb)))
	switch verb {
	case VerbGet, VerbPost, VerbPut, VerbDelete:
	default:
		return ActionPlan{}, fmt.Errorf("unsupported verb %q in model output", mp.Verb)
	}

	// The prompt asks for a {repo} placeholder, but models routinely inline
	// the repository they were shown. Normalize back to the template form.
	if repository != "" {
		mp.Path = strings.ReplaceAll(mp.Path, repository, "{repo}")
	}
	if !strings.Contains(mp.Path, "{repo}") && !strings.HasPrefix(mp.Path, "/search/") {
		return ActionPlan{}, fmt.Errorf("model path %q has no {repo} placeholder", mp.Path)
	}

	payload := mp.Payload
	if verb == VerbGet || verb == VerbDelete {
		payload = nil // read-only and body-less verbs carry no payload
	}

	description := mp.Description
	if description == "" {
		description = fmt.Sprintf("%s %s", verb, mp.Path)
	}

	return ActionPlan{
		Verb:         verb,
		PathTemplate: mp.Path,
		Payload:      payload,
		Description:  description,
		Kind:         inferKind(verb, mp.Path, payload),
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// commonly wrap JSON in despite instructions not to.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

const clarifyGuidance = "I need more specific information to act on the repository. For example:\n" +
	"- Create an issue about a bug\n" +
	"- Create a pull request for a new feature\n" +
	"- Search for specific code\n" +
	"- List open issues, branches, or pull requests\n" +
	"- Create a new branch for development"

// resolveByKeywords is the deterministic fallback matcher. It scans the
// lowercased message for keyword pairs in a fixed precedence order; the first
// match wins, with no best-match scoring.
func resolveByKeywords(message string) ActionPlan {
	lower := strings.ToLower(message)

	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("create") && has("issue"):
		return ActionPlan{
			Verb:         VerbPost,
			PathTemplate: "/repos/{repo}/issues",
			Payload: map[string]any{
				"title":  "Issue from natural language request",
				"body":   "User requested: " + message,
				"labels": []string{"enhancement"},
			},
			Description: "create issue",
			Kind:        KindCreateIssue,
		}

	case has("pull request", "pr"):
		// list/show wins the read-vs-write disambiguation; "open" alone is
		// ambiguous ("open PRs" vs "open a PR") so it does not override
		if has("list", "show") {
			return ActionPlan{
				Verb:         VerbGet,
				PathTemplate: "/repos/{repo}/pulls?state=open",
				Description:  "list pull requests",
				Kind:         KindListPullRequests,
			}
		}
		return ActionPlan{
			Verb:         VerbPost,
			PathTemplate: "/repos/{repo}/pulls",
			Payload: map[string]any{
				"title": "PR from natural language request",
				"body":  "User requested: " + message,
				"head":  "feature-branch",
				"base":  "main",
			},
			Description: "create pull request",
			Kind:        KindCreatePullRequest,
		}

	case has("create") && has("branch"):
		branch := "bug-fixes"
		switch {
		case has("bug"):
			branch = "bug-fixes"
		case has("feature"):
			branch = "feature-branch"
		case has("hotfix"):
			branch = "hotfix"
		}
		return ActionPlan{
			Verb:         VerbPost,
			PathTemplate: "/repos/{repo}/git/refs",
			Payload: map[string]any{
				"ref":  "refs/heads/" + branch,
				"from": "main",
			},
			Description: "create branch " + branch,
			Kind:        KindCreateBranch,
		}

	case has("search", "find"):
		return ActionPlan{
			Verb:         VerbGet,
			PathTemplate: "/search/code?q=repo:{repo}",
			Description:  "search code",
			Kind:         KindSearchCode,
		}

	case has("list", "show") && has("issue"):
		return ActionPlan{
			Verb:         VerbGet,
			PathTemplate: "/repos/{repo}/issues?state=open",
			Description:  "list open issues",
			Kind:         KindListIssues,
		}

	case has("list", "show") && has("branch"):
		return ActionPlan{
			Verb:         VerbGet,
			PathTemplate: "/repos/{repo}/branches",
			Description:  "list branches",
			Kind:         KindListBranches,
		}
	}

	return ActionPlan{
		Description: clarifyGuidance,
		Kind:        KindClarify,
	}
}
