package cmd

import (
	"github.com/spf13/cobra"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Organization team management commands",
	Long: `Commands for managing GitHub organization teams from a declarative
team-data file.

Available commands:
  sync - Reconcile organization teams against the team-data file

The team-data file maps each team name to its members; orgbot creates
missing teams and computes the minimal set of membership changes to make
actual state match desired state.`,
}

func init() {
	// Subcommands are added in their respective files
}
