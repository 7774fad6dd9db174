package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "skillforge",
	Short: "Adaptive sales quizzes and negotiation practice",
	Long: `SkillForge runs adaptive sales and marketing quizzes whose difficulty follows your
accuracy, and timed negotiation role-plays against generated prospects.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SKILLFORGE_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Load settings from this .env file (default .env)")

	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(negotiateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
