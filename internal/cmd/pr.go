package cmd

import (
	"github.com/spf13/cobra"
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Pull request automation commands",
	Long: `Commands for automating pull request maintenance.

Available commands:
  label - Compute and apply labels for a pull request

Labels come from file-path glob rules in the repository's labeler
configuration, merged with labels derived from the author's team
membership.`,
}

func init() {
	// Subcommands are added in their respective files
}
