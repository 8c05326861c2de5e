package github

import "context"

// APIClient defines the interface for the GitHub API operations the
// orchestrators depend on. Implementations own transport concerns
// (pagination, retries, rate limits); callers only see typed results.
type APIClient interface {
	// Content operations
	FetchFileContent(ctx context.Context, repo Repo, path, ref string) ([]byte, error)

	// Pull request operations
	ListChangedFiles(ctx context.Context, repo Repo, number int) ([]string, error)
	AddLabels(ctx context.Context, repo Repo, number int, labels []string) error
	SetPullRequestState(ctx context.Context, repo Repo, number int, state PullRequestState) error

	// Team operations
	GetTeam(ctx context.Context, org, slug string) (*TeamSnapshot, error)
	ListTeamMembers(ctx context.Context, org, slug string) ([]string, error)
	CreateTeam(ctx context.Context, org, name string) error
	AddTeamMember(ctx context.Context, org, slug, username string) error
	RemoveTeamMember(ctx context.Context, org, slug, username string) error

	// AuthenticatedUser returns the login of the identity behind the token.
	// Team creation implicitly adds this identity as a member, so the sync
	// orchestrator needs to know who it is.
	AuthenticatedUser(ctx context.Context) (string, error)
}
