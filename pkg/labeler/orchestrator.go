package labeler

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"orgbot/pkg/github"
)

// Decision is the outcome of evaluating one pull request: the labels to
// apply and whether applying them requires cycling the pull request
// closed and open again.
type Decision struct {
	Labels      []string `json:"labels"`
	ReopenCycle bool     `json:"reopen_cycle"`
}

// Decide combines glob-derived and team-derived labels for one pull
// request. ReopenCycle is set only when team-derived labels are present;
// glob-derived labels alone never trigger it.
func Decide(changedFiles []string, rules []Rule, teamLabels map[string][]string, author string) (Decision, error) {
	globLabels, err := Classify(changedFiles, rules)
	if err != nil {
		return Decision{}, err
	}

	memberLabels := ResolveTeamLabels(author, teamLabels)

	seen := make(map[string]bool)
	var labels []string
	for _, label := range append(globLabels, memberLabels...) {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	return Decision{
		Labels:      labels,
		ReopenCycle: len(memberLabels) > 0,
	}, nil
}

// Orchestrator evaluates and labels a single pull request through the
// GitHub API collaborator.
type Orchestrator struct {
	client github.APIClient
	repo   github.Repo
	log    *logrus.Logger
}

// NewOrchestrator creates a labeling orchestrator for one repository.
func NewOrchestrator(client github.APIClient, repo github.Repo, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		repo:   repo,
		log:    log,
	}
}

// Run fetches the pull request's changed files, decides the labels to
// apply, and applies them. When team-derived labels are involved the pull
// request is closed before the labels are applied and reopened afterwards,
// so that state is re-evaluated with the labels in place. With no labels to
// apply, no call is made at all.
func (o *Orchestrator) Run(ctx context.Context, number int, author string, rules *RuleSet) (Decision, error) {
	changedFiles, err := o.client.ListChangedFiles(ctx, o.repo, number)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to list changed files: %w", err)
	}

	o.log.WithFields(logrus.Fields{
		"repo":   o.repo.String(),
		"pr":     number,
		"author": author,
		"files":  changedFiles,
	}).Debug("evaluating pull request")

	decision, err := Decide(changedFiles, rules.Rules, rules.TeamLabels, author)
	if err != nil {
		return Decision{}, err
	}

	entry := o.log.WithFields(logrus.Fields{
		"repo":   o.repo.String(),
		"pr":     number,
		"labels": decision.Labels,
	})

	if len(decision.Labels) == 0 {
		entry.Info("no labels to apply")
		return decision, nil
	}

	if decision.ReopenCycle {
		entry.Info("closing pull request before applying team labels")
		if err := o.client.SetPullRequestState(ctx, o.repo, number, github.PullRequestClosed); err != nil {
			return decision, fmt.Errorf("failed to close pull request: %w", err)
		}
	}

	entry.Info("applying labels")
	if err := o.client.AddLabels(ctx, o.repo, number, decision.Labels); err != nil {
		return decision, fmt.Errorf("failed to apply labels: %w", err)
	}

	if decision.ReopenCycle {
		entry.Info("reopening pull request")
		if err := o.client.SetPullRequestState(ctx, o.repo, number, github.PullRequestOpen); err != nil {
			return decision, fmt.Errorf("failed to reopen pull request: %w", err)
		}
	}

	return decision, nil
}
