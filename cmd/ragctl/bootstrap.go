package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/ai"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/config/file"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/storage/sqlite"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/vectorindex/durable"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/vectorindex/memory"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/vectorindex/qdrant"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driving/cli"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/services"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// bootstrap wires the adapters and services described by the config file.
func bootstrap(ctx context.Context, cfgPath string) (*cli.Services, error) {
	if cfgPath == "" {
		p, err := file.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfgPath = p
	}

	cfg, err := file.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !logger.IsVerbose() {
		level, err := logger.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}
	logger.Debug("Config: %s", cfgPath)

	models, err := services.NewModelRegistry(cfg.Models(), cfg.Embedding.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: add it under [[embedding.models]] with its dimensions", err)
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closers = append(closers, store.Close)

	index, err := openIndex(ctx, cfg, store)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	closers = append(closers, index.Close)

	providers, err := ai.Init(cfg.EmbeddingSettings(), cfg.LLMSettings(), cfg.Resilience.PingOnStart)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	closers = append(closers, func() error { providers.Close(); return nil })
	for _, w := range providers.Warnings {
		logger.Warn("%s", w)
	}

	errLog := resilience.NewErrorLog(cfg.Resilience.ErrorLogSize)
	exec := resilience.NewExecutor(errLog)
	policy := cfg.Policy()

	embedder := services.NewEmbeddingClient(providers.Embedding, models, exec, policy)
	embedder.SetDefaults(
		services.WithBatchSize(cfg.Embedding.BatchSize),
		services.WithPooling(domain.Pooling(cfg.Embedding.Pooling)),
		services.WithNormalize(cfg.Normalize()),
	)
	generator := services.NewGenerationClient(providers.Chat, exec, policy)

	orchestrator := services.NewRetrievalOrchestrator(embedder, index, store.DocumentStore(), generator, nil)
	prompts, err := file.NewPromptStore(filepath.Join(filepath.Dir(cfgPath), "prompts"), promptDefaults())
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	orchestrator.SetPrompts(services.LoadPrompts(prompts))

	rag := services.NewRAGService(store.DocumentStore(), index, models, embedder, orchestrator)
	rag.SetGenerationOptions(cfg.GenerationOptions())

	return &cli.Services{
		RAG:         rag,
		Models:      models,
		Diagnostics: services.NewDiagnosticsService(errLog, store.ErrorLogStore()),
		TopK:        cfg.Retrieval.TopK,
		SaveActiveModel: func(id string) error {
			cfg.Embedding.Model = id
			return file.Save(cfgPath, cfg)
		},
		Close: cleanup,
	}, nil
}

func openIndex(ctx context.Context, cfg *file.Config, store *sqlite.Store) (driven.VectorIndex, error) {
	switch cfg.Index.Backend {
	case file.BackendMemory:
		return memory.New(memory.WithCapacity(cfg.Index.Capacity)), nil
	case file.BackendQdrant:
		q := cfg.Index.Qdrant
		ix, err := qdrant.New(qdrant.Config{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		return ix, nil
	default:
		ix, err := durable.Open(ctx, store.VectorRecordStore())
		if err != nil {
			return nil, fmt.Errorf("restore index: %w", err)
		}
		return ix, nil
	}
}

func promptDefaults() map[string]string {
	p := services.DefaultPrompts()
	return map[string]string{
		driven.PromptGroundedSystem:  p.Grounded,
		driven.PromptNoContextSystem: p.NoContext,
	}
}
