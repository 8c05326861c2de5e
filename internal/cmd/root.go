package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logJSON    bool
)

// log is the shared logger for all commands, configured before any RunE
// executes.
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "orgbot",
	Short: "A CLI tool for GitHub organization team sync and PR auto-labeling",
	Long: `Orgbot automates two GitHub maintenance tasks: reconciling an
organization's team membership against a declarative YAML data source, and
labeling pull requests from file-path glob rules and team membership.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		log.SetLevel(logrus.InfoLevel)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		if logJSON {
			log.SetFormatter(&logrus.JSONFormatter{})
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "orgbot.yaml", "Path to the orgbot configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(prCmd)
}
