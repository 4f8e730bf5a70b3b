package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/techchamps/repoagent/internal/agent"
	"github.com/techchamps/repoagent/internal/githubapi"
	"github.com/techchamps/repoagent/internal/server"
	"github.com/techchamps/repoagent/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the chat-assistant backend: session management, repository
selection, and the natural-language agent endpoint.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&cfg.SessionsDir, "sessions-dir", "sessions", "Directory for the session database")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	log.Printf("Starting repoagent server on %s", cfg.ListenAddr)
	if cfg.ModelProvider != "" && cfg.ModelProvider != "none" {
		log.Printf("Model provider: %s", cfg.ModelProvider)
	}

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down telemetry provider: %v", err)
		}
	}()

	store, err := session.OpenStore(cfg.SessionsDir, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close session store: %v", err)
		}
	}()

	// Expire idle sessions in the background
	go store.RunExpirySweep(ctx, time.Hour)

	ag := agent.New(newCompleter(), githubapi.NewCaller())
	srv := server.New(ag, store, session.NewGitHubAuthenticator())

	return srv.Run(cfg.ListenAddr)
}
