package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techchamps/repoagent/internal/agent"
	"github.com/techchamps/repoagent/internal/githubapi"
	"github.com/techchamps/repoagent/internal/session"
)

var (
	askRepo    string
	askToken   string
	askMessage string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Run the agent once from the command line",
	Long: `Resolves and executes a single natural-language instruction against a
repository, without the HTTP layer or a persisted session.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askRepo, "repo", "", "Repository in the format 'owner/repo'")
	askCmd.Flags().StringVar(&askToken, "token", "", "GitHub personal access token")
	askCmd.Flags().StringVar(&askMessage, "message", "", "Instruction for the agent")

	_ = askCmd.MarkFlagRequired("repo")
	_ = askCmd.MarkFlagRequired("token")
	_ = askCmd.MarkFlagRequired("message")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	ag := agent.New(newCompleter(), githubapi.NewCaller())
	sctx := session.Context{
		Credential: askToken,
		Repository: askRepo,
	}

	fmt.Println(ag.ResolveAndExecute(ctx, askMessage, sctx))
	return nil
}
