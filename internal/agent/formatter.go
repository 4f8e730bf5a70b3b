package agent

import (
	"fmt"
	"strings"
)

// Formatter renders an Outcome and its originating plan into the final
// user-facing message. Output is deterministic: the same Outcome and plan
// always produce the same text.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format never fails; every combination of outcome and plan renders to text.
func (f *Formatter) Format(outcome Outcome, plan ActionPlan) string {
	if !outcome.Success {
		if outcome.ErrorKind == ErrNeedsClarification {
			// Guidance, not an error: no failure marker
			return "🤔 " + outcome.ErrorDetail
		}
		return "❌ " + outcome.ErrorDetail
	}

	if outcome.Items != nil {
		return formatList(outcome.Items, plan)
	}
	return formatRecord(outcome.Record, plan)
}

func formatRecord(record map[string]any, plan ActionPlan) string {
	number, hasNumber := recordNumber(record)
	title, _ := record["title"].(string)
	url := recordURL(record)

	var msg string
	switch {
	case plan.Kind == KindCreateIssue && hasNumber:
		msg = fmt.Sprintf("✅ Created issue #%d", number)
		if title != "" {
			msg += ": " + title
		}
	case plan.Kind == KindCloseIssue && hasNumber:
		msg = fmt.Sprintf("✅ Closed issue #%d", number)
	case plan.Kind == KindReopenIssue && hasNumber:
		msg = fmt.Sprintf("✅ Reopened issue #%d", number)
	case plan.Kind == KindCreatePullRequest && hasNumber:
		msg = fmt.Sprintf("✅ Created pull request #%d", number)
		if title != "" {
			msg += ": " + title
		}
	case plan.Kind == KindMergePullRequest:
		if hasNumber {
			msg = fmt.Sprintf("✅ Merged pull request #%d", number)
			if title != "" {
				msg += ": " + title
			}
		} else {
			msg = "✅ Pull request merged"
		}
	case plan.Kind == KindCreateBranch:
		if ref, ok := record["ref"].(string); ok && ref != "" {
			msg = fmt.Sprintf("✅ Branch '%s' created", strings.TrimPrefix(ref, "refs/heads/"))
		} else {
			msg = "✅ Branch created"
		}
	case plan.Kind == KindDeleteBranch:
		msg = "✅ Branch deleted"
	case plan.Kind == KindComment && hasNumber:
		msg = fmt.Sprintf("✅ Comment posted (#%d)", number)
	case plan.Kind == KindSearchCode:
		return formatSearchResults(record, plan)
	default:
		// Generic fallback for kinds with no specific template
		msg = fmt.Sprintf("✅ Performed %s", plan.Description)
		if title != "" {
			msg += ": " + title
		}
	}

	if url != "" {
		msg += "\n" + url
	}
	return msg
}

// formatSearchResults renders the GitHub code-search envelope, a record
// wrapping an items list.
func formatSearchResults(record map[string]any, plan ActionPlan) string {
	rawItems, _ := record["items"].([]any)
	items := make([]map[string]any, 0, len(rawItems))
	for _, raw := range rawItems {
		if m, ok := raw.(map[string]any); ok {
			items = append(items, m)
		}
	}
	if len(items) == 0 {
		return fmt.Sprintf("🔍 %s\n\nNo items found.", plan.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %s\n", plan.Description)
	for _, item := range items {
		name, _ := item["name"].(string)
		path, _ := item["path"].(string)
		if name == "" && path == "" {
			continue
		}
		fmt.Fprintf(&b, "\n- %s", path)
		if url := recordURL(item); url != "" {
			fmt.Fprintf(&b, " (%s)", url)
		}
	}
	return b.String()
}

func formatList(items []map[string]any, plan ActionPlan) string {
	header := headerMarker(plan.Kind) + " " + plan.Description
	if len(items) == 0 {
		return header + "\n\nNo items found."
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, item := range items {
		line, ok := formatItem(item)
		if !ok {
			continue // unrecognized shapes are skipped, never an error
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func headerMarker(kind Kind) string {
	switch kind {
	case KindListBranches:
		return "🌿"
	case KindSearchCode:
		return "🔍"
	default:
		return "📋"
	}
}

// formatItem renders one list entry, branching on which fields the item
// carries: number+title is an issue/PR, name+commit is a branch, sha+commit
// is a commit. Returns false for shapes it does not recognize.
func formatItem(item map[string]any) (string, bool) {
	if number, ok := recordNumber(item); ok {
		if title, ok := item["title"].(string); ok {
			return formatIssueItem(item, number, title), true
		}
		return "", false
	}

	commit, hasCommit := item["commit"].(map[string]any)
	if name, ok := item["name"].(string); ok && hasCommit {
		return formatBranchItem(item, name, commit), true
	}
	if sha, ok := item["sha"].(string); ok && hasCommit {
		return formatCommitItem(item, sha, commit), true
	}
	return "", false
}

func formatIssueItem(item map[string]any, number int, title string) string {
	line := fmt.Sprintf("- #%d %s", number, title)
	if user, ok := item["user"].(map[string]any); ok {
		if login, ok := user["login"].(string); ok && login != "" {
			line += " by @" + login
		}
	}
	if created, ok := item["created_at"].(string); ok && created != "" {
		line += " (" + created + ")"
	}
	if url := recordURL(item); url != "" {
		line += "\n  " + url
	}
	return line
}

func formatBranchItem(item map[string]any, name string, commit map[string]any) string {
	line := "- " + name
	if sha, ok := commit["sha"].(string); ok && sha != "" {
		line += " @ " + abbreviateSHA(sha)
	}
	// Branch list entries nest the last commit message one level deeper than
	// commit list entries do
	if inner, ok := commit["commit"].(map[string]any); ok {
		if message, ok := inner["message"].(string); ok && message != "" {
			line += ": " + firstLine(message)
		}
	} else if message, ok := commit["message"].(string); ok && message != "" {
		line += ": " + firstLine(message)
	}
	return line
}

func formatCommitItem(item map[string]any, sha string, commit map[string]any) string {
	line := "- " + abbreviateSHA(sha)
	if message, ok := commit["message"].(string); ok && message != "" {
		line += " " + firstLine(message)
	}
	if author, ok := commit["author"].(map[string]any); ok {
		if name, ok := author["name"].(string); ok && name != "" {
			line += " by " + name
		}
		if date, ok := author["date"].(string); ok && date != "" {
			line += " (" + date + ")"
		}
	}
	return line
}

func recordNumber(record map[string]any) (int, bool) {
	// JSON numbers decode as float64
	if n, ok := record["number"].(float64); ok {
		return int(n), true
	}
	return 0, false
}

func recordURL(record map[string]any) string {
	if url, ok := record["html_url"].(string); ok {
		return url
	}
	return ""
}

func abbreviateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
