package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"orgbot/pkg/config"
	"orgbot/pkg/github"
	"orgbot/pkg/labeler"
	"orgbot/pkg/teamsync"
)

var (
	labelNumber int
	labelAuthor string
	labelRepo   string
)

var prLabelCmd = &cobra.Command{
	Use:   "label",
	Short: "Compute and apply labels for a pull request",
	Long: `Compute the labels for a pull request and apply them.

Labels are derived two ways and merged: file-path glob rules from the
repository's labeler configuration are matched against the pull request's
changed files, and team labels are resolved from the author's team
membership. When team-derived labels are involved the pull request is
cycled closed and open around the label application so that state is
re-evaluated with the labels in place.

Examples:
  # Label pull request 42
  orgbot pr label --number 42 --author alice

  # Events without an associated pull request author still classify files
  orgbot pr label --number 42

  # Override the target repository
  orgbot pr label --number 42 --author alice --repo myorg/myrepo`,
	Args: cobra.NoArgs,
	RunE: runPRLabel,
}

func init() {
	prLabelCmd.Flags().IntVar(&labelNumber, "number", 0, "Pull request number (required)")
	prLabelCmd.Flags().StringVar(&labelAuthor, "author", "", "Pull request author; empty when the event has no pull request")
	prLabelCmd.Flags().StringVar(&labelRepo, "repo", "", "Target repository in owner/name form (overrides github.repo in config)")
	_ = prLabelCmd.MarkFlagRequired("number")
	prCmd.AddCommand(prLabelCmd)
}

func runPRLabel(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if labelRepo != "" {
		cfg.GitHub.Repo = labelRepo
	}
	if err := cfg.ValidateLabel(); err != nil {
		return err
	}

	repo, err := config.ParseRepo(cfg.GitHub.Repo)
	if err != nil {
		return err
	}

	client := github.NewClient(cfg.GitHub.Token)

	ruleSet, err := loadRuleSet(ctx, client, repo, cfg)
	if err != nil {
		return err
	}

	orchestrator := labeler.NewOrchestrator(client, repo, log)
	decision, err := orchestrator.Run(ctx, labelNumber, labelAuthor, ruleSet)
	if err != nil {
		return fmt.Errorf("failed to label pull request: %w", err)
	}

	if len(decision.Labels) == 0 {
		fmt.Printf("✓ No labels to apply to %s#%d\n", repo, labelNumber)
		return nil
	}

	fmt.Printf("✅ Applied labels to %s#%d: %s\n", repo, labelNumber, strings.Join(decision.Labels, ", "))
	if decision.ReopenCycle {
		fmt.Printf("🔄 Pull request was cycled closed and reopened for team labels\n")
	}

	return nil
}

// loadRuleSet fetches and parses the labeler configuration from the target
// repository, resolving a team-data indirection when the team_labels
// section points at an externally hosted file.
func loadRuleSet(ctx context.Context, client github.APIClient, repo github.Repo, cfg *config.Config) (*labeler.RuleSet, error) {
	data, err := client.FetchFileContent(ctx, repo, cfg.Labeler.ConfigPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch labeler config: %w", err)
	}

	ruleSet, err := labeler.ParseConfig(data)
	if err != nil {
		return nil, err
	}

	if ruleSet.TeamSource != nil {
		teamLabels, err := resolveTeamSource(ctx, client, repo, cfg, ruleSet.TeamSource)
		if err != nil {
			return nil, err
		}
		ruleSet.TeamLabels = teamLabels
	}

	return ruleSet, nil
}

// resolveTeamSource fetches the referenced team-data file and converts it
// into the label-to-members mapping the resolver consumes.
func resolveTeamSource(ctx context.Context, client github.APIClient, repo github.Repo, cfg *config.Config, source *labeler.TeamDataSource) (map[string][]string, error) {
	sourceRepo := repo
	if source.Owner != "" && source.Repo != "" {
		sourceRepo = github.Repo{Owner: source.Owner, Name: source.Repo}
	}

	// A team-data file hosted in another repository may need different
	// credentials than the target repository.
	sourceClient := client
	if sourceRepo != repo && cfg.TeamData.Token != "" {
		sourceClient = github.NewClient(cfg.TeamData.Token)
	}

	data, err := sourceClient.FetchFileContent(ctx, sourceRepo, source.Path, source.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team data from %s: %w", sourceRepo, err)
	}

	teams, err := teamsync.ParseTeamData(data)
	if err != nil {
		return nil, err
	}

	return teamsync.LabelMap(teams), nil
}
