package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/techchamps/repoagent/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "repoagent",
	Short: "Chat assistant that operates on GitHub repositories",
	Long: `Repoagent is a chat-assistant backend. Users authenticate with a GitHub
token, select a repository, and issue natural-language instructions that the
agent resolves to a single GitHub operation and executes on their behalf.`,
	PersistentPreRunE: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.Load()
	return cfg.Validate()
}
