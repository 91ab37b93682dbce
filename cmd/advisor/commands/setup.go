// ABOUTME: Shared wiring helpers that assemble stores, oracles, and the core
// ABOUTME: Consolidates environment loading and backend selection for all commands
package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/coverly/advisor/internal/config"
	"github.com/coverly/advisor/internal/core"
	"github.com/coverly/advisor/internal/llm"
	"github.com/coverly/advisor/internal/ratebook"
	"github.com/coverly/advisor/internal/storage"
	"github.com/coverly/advisor/internal/tools"
)

// loadConfig loads .env (when present) and the environment configuration.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && verbose {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// runtime bundles everything a command needs to serve turns.
type runtime struct {
	cfg         *config.Config
	advisor     *core.Advisor
	policies    storage.PolicyStore
	transcripts storage.TranscriptStore
	ratebook    *ratebook.Ratebook
	cleanup     []func()
}

// close releases backend connections in reverse acquisition order.
func (r *runtime) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

// buildRuntime wires stores, oracles, the ratebook, and the core. The
// ratebook must load or the process cannot serve estimates at all, so a
// load failure is returned as a hard error.
func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rb, err := ratebook.Load(cfg.RatebookPath)
	if err != nil {
		return nil, fmt.Errorf("load ratebook: %w", err)
	}

	rt := &runtime{cfg: cfg, ratebook: rb}

	memory := storage.NewMemoryStore()
	rt.policies = memory
	rt.transcripts = memory

	if cfg.PolicyBackend == "charm" {
		charmStore, err := storage.NewCharmPolicyStore(cfg.CharmDBName)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("open policy store: %w", err)
		}
		rt.policies = charmStore
		rt.cleanup = append(rt.cleanup, func() { _ = charmStore.Close() })
	}

	if cfg.TranscriptBackend == "redis" {
		redisStore, err := storage.NewRedisTranscriptStore(ctx, cfg.RedisURL)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("open transcript store: %w", err)
		}
		rt.transcripts = redisStore
		rt.cleanup = append(rt.cleanup, func() { _ = redisStore.Close() })
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		rt.close()
		return nil, err
	}

	var toolPool *tools.Pool
	if cfg.ToolServerCommand != "" {
		executor, err := tools.NewMCPExecutor(ctx, cfg.ToolServerCommand)
		if err != nil {
			// Structured lookups are optional context; the advisor still
			// serves every path without them.
			log.Printf("Warning: tool server unavailable: %v", err)
		} else {
			toolPool = tools.NewPool(executor, []string{"rate_factors", "policy_lookup"})
			rt.cleanup = append(rt.cleanup, func() { _ = executor.Close() })
		}
	}

	rt.advisor = core.NewAdvisor(
		core.NewResolver(rt.policies),
		core.NewIntentClassifier(client),
		core.NewPipeline(client, client, client),
		rb,
		client,
		toolPool,
	)
	return rt, nil
}
