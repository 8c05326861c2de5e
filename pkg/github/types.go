package github

// Repo identifies a repository by owner and name. Every collaborator call
// that touches a repository takes one explicitly; there is no ambient
// default repository.
type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String returns the owner/name form used in log output and error messages.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// TeamSnapshot represents the observed state of an organization team.
// A team that does not exist is a valid snapshot, not an error.
type TeamSnapshot struct {
	Exists  bool     `json:"exists"`
	Slug    string   `json:"slug"`
	Members []string `json:"members,omitempty"`
}

// PullRequestState is the open/closed state of a pull request.
type PullRequestState string

const (
	PullRequestOpen   PullRequestState = "open"
	PullRequestClosed PullRequestState = "closed"
)
