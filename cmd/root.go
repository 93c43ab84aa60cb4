package cmd

import (
	"github.com/abhisek/edugen/internal/config"
	"github.com/abhisek/edugen/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "edugen",
	Short:        "Generate assessment questions from documents",
	Long:         "edugen turns stored educational documents into multiple-choice, true/false and other questions using a language model.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default ./edugen.yaml or $XDG_CONFIG_HOME/edugen/edugen.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides EDUGEN_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration for cmd. Commands that never talk to the
// model pass validate=false so a missing API key does not block them.
func loadConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadWithOptions(config.LoadOptions{
		ConfigPath: path,
		EnvFile:    ".env",
		Validate:   validate,
	})
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then store.db_path from config, then EDUGEN_DB env var, then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.DBPath != "" {
		return cfg.Store.DBPath, store.EnsureDir(cfg.Store.DBPath)
	}
	return store.DefaultDBPath()
}
