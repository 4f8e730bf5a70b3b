package session

import (
	"context"
	"fmt"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"
)

// Repository is the subset of repository metadata the transport layer shows
// when the user picks a repository to operate on.
type Repository struct {
	FullName    string `json:"fullName"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	URL         string `json:"url"`
}

// GitHubAuthenticator validates personal access tokens and lists the
// repositories a token can reach, using the typed GitHub client.
type GitHubAuthenticator struct{}

func NewGitHubAuthenticator() *GitHubAuthenticator {
	return &GitHubAuthenticator{}
}

func newClient(ctx context.Context, token string) *github.Client {
	tokenSource := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return github.NewClient(oauth2.NewClient(ctx, tokenSource))
}

// ValidateToken checks a token against the GitHub API and returns the login
// of the authenticated user.
func (ga *GitHubAuthenticator) ValidateToken(ctx context.Context, token string) (string, error) {
	client := newClient(ctx, token)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with GitHub: %w", err)
	}
	return user.GetLogin(), nil
}

// ListRepositories returns the repositories visible to the token, most
// recently updated first.
func (ga *GitHubAuthenticator) ListRepositories(ctx context.Context, token string) ([]Repository, error) {
	client := newClient(ctx, token)

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repositories []Repository
	for {
		repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		for _, repo := range repos {
			repositories = append(repositories, Repository{
				FullName:    repo.GetFullName(),
				Description: repo.GetDescription(),
				Private:     repo.GetPrivate(),
				URL:         repo.GetHTMLURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repositories, nil
}
