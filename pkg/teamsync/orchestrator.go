package teamsync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"orgbot/pkg/github"
)

// TeamPlan describes what a sync run would do to one team.
type TeamPlan struct {
	Team   string         `json:"team"`
	Slug   string         `json:"slug"`
	Create bool           `json:"create"`
	Diff   MembershipDiff `json:"diff"`
}

// TeamResult records what a sync run did to one team. Failed maps the
// operations that could not be applied to their errors; operations already
// applied stay applied.
type TeamResult struct {
	Team    string           `json:"team"`
	Slug    string           `json:"slug"`
	Created bool             `json:"created"`
	Added   []string         `json:"added,omitempty"`
	Removed []string         `json:"removed,omitempty"`
	Failed  map[string]error `json:"-"`
}

// Result aggregates the outcome of a sync run across all teams.
type Result struct {
	Teams []TeamResult `json:"teams"`
}

// FailedCount returns the number of teams with at least one failed operation.
func (r *Result) FailedCount() int {
	count := 0
	for _, team := range r.Teams {
		if len(team.Failed) > 0 {
			count++
		}
	}
	return count
}

// TotalChanges returns the number of membership operations applied.
func (r *Result) TotalChanges() int {
	total := 0
	for _, team := range r.Teams {
		if team.Created {
			total++
		}
		total += len(team.Added) + len(team.Removed)
	}
	return total
}

// Orchestrator reconciles organization teams against their desired specs.
// Teams are processed strictly one at a time; each team runs to completion
// before the next begins and no state is shared between them.
type Orchestrator struct {
	client  github.APIClient
	org     string
	log     *logrus.Logger
	creator string
}

// NewOrchestrator creates a team sync orchestrator for one organization.
func NewOrchestrator(client github.APIClient, org string, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		org:    org,
		log:    log,
	}
}

// Plan computes the changes a sync would apply without applying them.
func (o *Orchestrator) Plan(ctx context.Context, teams []TeamSpec) ([]TeamPlan, error) {
	var plans []TeamPlan

	for _, team := range teams {
		snapshot, err := o.client.GetTeam(ctx, o.org, team.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch team %s: %w", team.Slug, err)
		}

		plan := TeamPlan{Team: team.Name, Slug: team.Slug}
		if !snapshot.Exists {
			plan.Create = true
			plan.Diff = Diff(team.Members, nil)
		} else {
			snapshot.Members, err = o.client.ListTeamMembers(ctx, o.org, team.Slug)
			if err != nil {
				return nil, fmt.Errorf("failed to list members of team %s: %w", team.Slug, err)
			}
			plan.Diff = Diff(team.Members, snapshot.Members)
		}

		plans = append(plans, plan)
	}

	return plans, nil
}

// Sync reconciles every team in order. A failure in one team is recorded
// and the remaining teams still run; the returned error reports how many
// teams did not fully converge.
func (o *Orchestrator) Sync(ctx context.Context, teams []TeamSpec) (*Result, error) {
	result := &Result{}

	for _, team := range teams {
		result.Teams = append(result.Teams, o.syncTeam(ctx, team))
	}

	if failed := result.FailedCount(); failed > 0 {
		return result, fmt.Errorf("sync incomplete: %d of %d teams had failed operations", failed, len(teams))
	}

	return result, nil
}

// syncTeam drives one team through its state machine: an absent team is
// created and populated; a present team has stale members removed and
// missing members added. Every membership change is an independent
// per-username call, so a failure partway leaves a well-defined partial
// state rather than corrupting anything.
func (o *Orchestrator) syncTeam(ctx context.Context, team TeamSpec) TeamResult {
	result := TeamResult{
		Team:   team.Name,
		Slug:   team.Slug,
		Failed: make(map[string]error),
	}

	entry := o.log.WithFields(logrus.Fields{
		"org":  o.org,
		"team": team.Slug,
	})

	snapshot, err := o.client.GetTeam(ctx, o.org, team.Slug)
	if err != nil {
		entry.WithError(err).Error("failed to fetch team")
		result.Failed["fetch team"] = err
		return result
	}

	var diff MembershipDiff

	if !snapshot.Exists {
		entry.Info("creating team")
		if err := o.client.CreateTeam(ctx, o.org, team.Name); err != nil {
			entry.WithError(err).Error("failed to create team")
			result.Failed["create team"] = err
			return result
		}
		result.Created = true

		// Team creation implicitly grants the creating identity
		// membership. Strip it unless it is itself desired; this happens
		// only on the creation path.
		if err := o.removeCreator(ctx, team, entry, &result); err != nil {
			result.Failed["remove creator"] = err
		}

		diff = Diff(team.Members, nil)
	} else {
		snapshot.Members, err = o.client.ListTeamMembers(ctx, o.org, team.Slug)
		if err != nil {
			entry.WithError(err).Error("failed to list team members")
			result.Failed["list members"] = err
			return result
		}
		diff = Diff(team.Members, snapshot.Members)
	}

	if diff.Empty() && !result.Created {
		entry.Info("team already converged")
		return result
	}

	// Removals before additions, each in sorted order for reproducible
	// logs. The sets are disjoint, so the order is not a correctness
	// requirement, only an observability one.
	for _, username := range diff.ToRemove {
		if err := o.client.RemoveTeamMember(ctx, o.org, team.Slug, username); err != nil {
			if github.IsNotFound(err) {
				entry.WithField("user", username).Debug("member already absent")
				continue
			}
			entry.WithField("user", username).WithError(err).Error("failed to remove member")
			result.Failed["remove "+username] = err
			continue
		}
		entry.WithField("user", username).Info("removed member")
		result.Removed = append(result.Removed, username)
	}

	for _, username := range diff.ToAdd {
		if err := o.client.AddTeamMember(ctx, o.org, team.Slug, username); err != nil {
			if github.IsAlreadyExists(err) {
				entry.WithField("user", username).Debug("member already present")
				continue
			}
			entry.WithField("user", username).WithError(err).Error("failed to add member")
			result.Failed["add "+username] = err
			continue
		}
		entry.WithField("user", username).Info("added member")
		result.Added = append(result.Added, username)
	}

	return result
}

// removeCreator removes the authenticated identity from a just-created
// team unless it is a desired member.
func (o *Orchestrator) removeCreator(ctx context.Context, team TeamSpec, entry *logrus.Entry, result *TeamResult) error {
	creator, err := o.creatorLogin(ctx)
	if err != nil {
		return err
	}

	for _, username := range team.Members {
		if username == creator {
			return nil
		}
	}

	if err := o.client.RemoveTeamMember(ctx, o.org, team.Slug, creator); err != nil {
		if github.IsNotFound(err) {
			return nil
		}
		return err
	}

	entry.WithField("user", creator).Info("removed creating identity from new team")
	result.Removed = append(result.Removed, creator)
	return nil
}

// creatorLogin resolves the authenticated user once per run.
func (o *Orchestrator) creatorLogin(ctx context.Context) (string, error) {
	if o.creator != "" {
		return o.creator, nil
	}

	login, err := o.client.AuthenticatedUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve authenticated user: %w", err)
	}

	o.creator = login
	return login, nil
}
