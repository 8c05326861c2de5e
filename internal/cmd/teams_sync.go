package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"orgbot/pkg/config"
	"orgbot/pkg/github"
	"orgbot/pkg/teamsync"
)

var (
	syncDryRun bool
	syncOrg    string
)

var teamsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile organization teams against the team-data file",
	Long: `Reconcile every team declared in the team-data file with its actual
state in the organization.

Absent teams are created and populated; existing teams have stale members
removed and missing members added. Teams are processed one at a time and
each membership change is an independent API call, so a failure partway
through leaves already-applied changes in place.

Examples:
  # Preview the changes without applying them
  orgbot teams sync --dry-run

  # Reconcile all teams
  orgbot teams sync

  # Override the organization from the config file
  orgbot teams sync --org myorg`,
	Args: cobra.NoArgs,
	RunE: runTeamsSync,
}

func init() {
	teamsSyncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Preview membership changes without applying them")
	teamsSyncCmd.Flags().StringVar(&syncOrg, "org", "", "Organization to sync (overrides github.org in config)")
	teamsCmd.AddCommand(teamsSyncCmd)
}

func runTeamsSync(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if syncOrg != "" {
		cfg.GitHub.Org = syncOrg
	}
	if err := cfg.ValidateSync(); err != nil {
		return err
	}

	client := github.NewClient(cfg.GitHub.Token)

	teams, err := loadTeamData(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Loaded %d teams from %s\n", len(teams), cfg.TeamData.Path)

	orchestrator := teamsync.NewOrchestrator(client, cfg.GitHub.Org, log)

	if syncDryRun {
		plans, err := orchestrator.Plan(ctx, teams)
		if err != nil {
			return fmt.Errorf("failed to plan team sync: %w", err)
		}
		displaySyncPlan(plans, cfg.GitHub.Org)
		fmt.Printf("\n✓ Dry-run completed. No changes were applied.\n")
		return nil
	}

	result, err := orchestrator.Sync(ctx, teams)
	displaySyncResult(result, cfg.GitHub.Org)
	if err != nil {
		return err
	}

	return nil
}

// loadTeamData reads the team-data file either from a repository through
// the API or from the local filesystem, and parses it into team specs.
func loadTeamData(ctx context.Context, cfg *config.Config) ([]teamsync.TeamSpec, error) {
	var data []byte

	if cfg.TeamData.Repo != "" {
		repo, err := config.ParseRepo(cfg.TeamData.Repo)
		if err != nil {
			return nil, err
		}

		// An external team-data repository may need its own token.
		token := cfg.TeamData.Token
		if token == "" {
			token = cfg.GitHub.Token
		}
		client := github.NewClient(token)

		data, err = client.FetchFileContent(ctx, repo, cfg.TeamData.Path, cfg.TeamData.Ref)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch team data: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(cfg.TeamData.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read team data: %w", err)
		}
	}

	teams, err := teamsync.ParseTeamData(data)
	if err != nil {
		return nil, err
	}

	return teams, nil
}

// displaySyncPlan shows the planned membership changes per team.
func displaySyncPlan(plans []teamsync.TeamPlan, org string) {
	fmt.Printf("\n🔍 Dry-run mode: Showing planned changes for %d teams\n", len(plans))

	totalChanges := 0
	for _, plan := range plans {
		changes := len(plan.Diff.ToAdd) + len(plan.Diff.ToRemove)
		if plan.Create {
			changes++
		}
		if changes == 0 {
			fmt.Printf("\n👥 %s/%s: No changes needed\n", org, plan.Slug)
			continue
		}
		totalChanges += changes

		fmt.Printf("\n👥 %s/%s:\n", org, plan.Slug)
		if plan.Create {
			fmt.Printf("  + Team: CREATE %q\n", plan.Team)
		}
		for _, username := range plan.Diff.ToRemove {
			fmt.Printf("  - Member: REMOVE %s\n", username)
		}
		for _, username := range plan.Diff.ToAdd {
			fmt.Printf("  + Member: ADD %s\n", username)
		}
	}

	fmt.Printf("\nTotal changes: %d\n", totalChanges)
}

// displaySyncResult shows what the sync run did.
func displaySyncResult(result *teamsync.Result, org string) {
	if result == nil {
		return
	}

	for _, team := range result.Teams {
		status := "✅"
		if len(team.Failed) > 0 {
			status = "❌"
		}

		var parts []string
		if team.Created {
			parts = append(parts, "created")
		}
		if len(team.Added) > 0 {
			parts = append(parts, fmt.Sprintf("added %s", strings.Join(team.Added, ", ")))
		}
		if len(team.Removed) > 0 {
			parts = append(parts, fmt.Sprintf("removed %s", strings.Join(team.Removed, ", ")))
		}
		if len(parts) == 0 {
			parts = append(parts, "up to date")
		}

		fmt.Printf("%s %s/%s: %s\n", status, org, team.Slug, strings.Join(parts, "; "))

		for operation, err := range team.Failed {
			fmt.Printf("   • %s: %v\n", operation, err)
		}
	}

	fmt.Printf("\n📊 Summary: %d teams, %d changes applied, %d teams with failures\n",
		len(result.Teams), result.TotalChanges(), result.FailedCount())
}
