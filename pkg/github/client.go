package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// Client implements the APIClient interface using the GitHub REST API
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client with the provided token.
// Context is not captured here; every operation takes its own.
func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{
		client: github.NewClient(tc),
	}
}

// FetchFileContent retrieves the decoded contents of a file at the given ref.
// An empty ref means the repository's default branch.
func (c *Client) FetchFileContent(ctx context.Context, repo Repo, path, ref string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}

	var content string

	err := WithRetry(func() error {
		fileContent, _, _, err := c.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, opts)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("file %s in %s", path, repo))
		}
		if fileContent == nil {
			return WrapGitHubError(fmt.Errorf("%s is a directory, not a file", path), fmt.Sprintf("file %s in %s", path, repo))
		}
		content, err = fileContent.GetContent()
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("file %s in %s", path, repo))
		}
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

// ListChangedFiles lists the paths changed by a pull request, in the order
// the API reports them.
func (c *Client) ListChangedFiles(ctx context.Context, repo Repo, number int) ([]string, error) {
	opts := &github.ListOptions{PerPage: 100}

	var allFiles []string

	err := WithRetry(func() error {
		allFiles = nil // Reset on retry
		opts.Page = 0  // Reset pagination on retry

		for {
			files, resp, err := c.client.PullRequests.ListFiles(ctx, repo.Owner, repo.Name, number, opts)
			if err != nil {
				return WrapGitHubError(err, fmt.Sprintf("pull request %s#%d files", repo, number))
			}

			for _, file := range files {
				allFiles = append(allFiles, file.GetFilename())
			}

			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return nil
	}, DefaultRetryConfig())

	return allFiles, err
}

// AddLabels adds labels to a pull request. Labels already present are left
// in place by the API.
func (c *Client) AddLabels(ctx context.Context, repo Repo, number int, labels []string) error {
	return WithRetry(func() error {
		_, _, err := c.client.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, labels)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("labels for pull request %s#%d", repo, number))
		}
		return nil
	}, DefaultRetryConfig())
}

// SetPullRequestState sets a pull request to open or closed.
func (c *Client) SetPullRequestState(ctx context.Context, repo Repo, number int, state PullRequestState) error {
	return WithRetry(func() error {
		_, _, err := c.client.PullRequests.Edit(ctx, repo.Owner, repo.Name, number, &github.PullRequest{
			State: github.String(string(state)),
		})
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("pull request %s#%d state", repo, number))
		}
		return nil
	}, DefaultRetryConfig())
}

// GetTeam retrieves a team snapshot by slug. A team that does not exist is
// reported as a snapshot with Exists set to false, not as an error.
func (c *Client) GetTeam(ctx context.Context, org, slug string) (*TeamSnapshot, error) {
	var team *github.Team

	err := WithRetry(func() error {
		var err error
		team, _, err = c.client.Teams.GetTeamBySlug(ctx, org, slug)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("team %s in %s", slug, org))
		}
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		if IsNotFound(err) {
			return &TeamSnapshot{Exists: false, Slug: slug}, nil
		}
		return nil, err
	}

	return &TeamSnapshot{Exists: true, Slug: team.GetSlug()}, nil
}

// ListTeamMembers lists the logins of all members of a team.
func (c *Client) ListTeamMembers(ctx context.Context, org, slug string) ([]string, error) {
	opts := &github.TeamListTeamMembersOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var allMembers []string

	err := WithRetry(func() error {
		allMembers = nil // Reset on retry
		opts.Page = 0    // Reset pagination on retry

		for {
			members, resp, err := c.client.Teams.ListTeamMembersBySlug(ctx, org, slug, opts)
			if err != nil {
				return WrapGitHubError(err, fmt.Sprintf("members of team %s in %s", slug, org))
			}

			for _, member := range members {
				allMembers = append(allMembers, member.GetLogin())
			}

			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return nil
	}, DefaultRetryConfig())

	return allMembers, err
}

// CreateTeam creates a new team in the organization. The authenticated user
// is implicitly added as a maintainer by the API.
func (c *Client) CreateTeam(ctx context.Context, org, name string) error {
	newTeam := github.NewTeam{
		Name:    name,
		Privacy: github.String("closed"),
	}

	return WithRetry(func() error {
		_, _, err := c.client.Teams.CreateTeam(ctx, org, newTeam)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("team %s in %s", name, org))
		}
		return nil
	}, DefaultRetryConfig())
}

// AddTeamMember adds a user to a team as a regular member.
func (c *Client) AddTeamMember(ctx context.Context, org, slug, username string) error {
	opts := &github.TeamAddTeamMembershipOptions{Role: "member"}

	return WithRetry(func() error {
		_, _, err := c.client.Teams.AddTeamMembershipBySlug(ctx, org, slug, username, opts)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("member %s of team %s in %s", username, slug, org))
		}
		return nil
	}, DefaultRetryConfig())
}

// RemoveTeamMember removes a user from a team.
func (c *Client) RemoveTeamMember(ctx context.Context, org, slug, username string) error {
	return WithRetry(func() error {
		_, err := c.client.Teams.RemoveTeamMembershipBySlug(ctx, org, slug, username)
		if err != nil {
			return WrapGitHubError(err, fmt.Sprintf("member %s of team %s in %s", username, slug, org))
		}
		return nil
	}, DefaultRetryConfig())
}

// AuthenticatedUser returns the login associated with the client's token.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	var user *github.User

	err := WithRetry(func() error {
		var err error
		user, _, err = c.client.Users.Get(ctx, "")
		if err != nil {
			return WrapGitHubError(err, "authenticated user")
		}
		return nil
	}, DefaultRetryConfig())

	if err != nil {
		return "", err
	}

	return user.GetLogin(), nil
}
