package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/techchamps/repoagent/internal/agent"
	"github.com/techchamps/repoagent/internal/ai"
	"github.com/techchamps/repoagent/internal/telemetry"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

// newCompleter builds the configured model completion backend, or nil when
// model-assisted resolution is disabled.
func newCompleter() agent.Completer {
	switch cfg.ModelProvider {
	case "anthropic":
		return ai.NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.Model)
	case "openai":
		return ai.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.Model)
	default:
		log.Printf("Model-assisted resolution disabled, using keyword matcher only")
		return nil
	}
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	telemetryConfig := telemetry.TelemetryConfig{
		Enabled:      cfg.TelemetryEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Version:      version,
	}
	return telemetry.NewProvider(ctx, telemetryConfig)
}
