// Package github provides the typed GitHub API collaborator for orgbot.
// It wraps the REST API behind the APIClient interface so that the team sync
// and labeling logic only work with narrow result types.
//
// The package includes:
// - APIClient interface over team, pull request and content operations
// - Client implementation with pagination and retry handling
// - Structured GitHubError taxonomy with not-found and conflict helpers
package github
