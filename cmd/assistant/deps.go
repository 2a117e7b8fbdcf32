package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fikrfree/assistant/internal/bot"
	"github.com/fikrfree/assistant/internal/llm"
	"github.com/fikrfree/assistant/internal/retrieval"
	"github.com/fikrfree/assistant/pkg/catalog"
	"github.com/fikrfree/assistant/pkg/config"
	"github.com/fikrfree/assistant/pkg/observability"
	"github.com/fikrfree/assistant/pkg/safety"
	"github.com/fikrfree/assistant/pkg/session"
)

// text-embedding-3-small output width.
const openAIEmbeddingDim = 1536

// hashEmbeddingDim is used when no OpenAI key is configured.
const hashEmbeddingDim = 256

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid configuration: %w", err)
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, logger, nil
}

// deps holds everything a command needs to run the assistant locally.
type deps struct {
	cfg       *config.Config
	logger    zerolog.Logger
	catalog   *catalog.Catalog
	sessions  session.Store
	redis     *session.RedisStore // nil unless the redis backend is active
	store     retrieval.Store
	retriever *retrieval.VectorRetriever
	assistant *bot.Assistant
}

// close releases backends in reverse construction order.
func (d *deps) close() {
	d.catalog.StopWatcher()
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.sessions != nil {
		_ = d.sessions.Close()
	}
}

func buildCatalog(cfg *config.Config, logger zerolog.Logger) (*catalog.Catalog, error) {
	if len(cfg.Catalog.Paths) == 0 {
		logger.Warn().Msg("no catalog sources configured, starting with an empty catalog")
		return catalog.NewStatic(catalog.NewIndex(nil)), nil
	}
	return catalog.New(cfg.Catalog.Paths, logger)
}

func buildSessions(cfg *config.Config, logger zerolog.Logger) (session.Store, *session.RedisStore, error) {
	limits := session.Limits{
		MaxMessages:   cfg.Sessions.MaxMessages,
		ContextWindow: cfg.Sessions.ContextWindow,
		IdleTimeout:   cfg.Sessions.IdleTimeout,
	}
	switch cfg.Sessions.Backend {
	case "redis":
		store, err := session.NewRedisStore(session.RedisOptions{
			Addr:     cfg.Sessions.Redis.Addr,
			Password: cfg.Sessions.Redis.Password,
			DB:       cfg.Sessions.Redis.DB,
		}, limits)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session store: %w", err)
		}
		logger.Info().Str("addr", cfg.Sessions.Redis.Addr).Msg("using redis session store")
		return store, store, nil
	default:
		return session.NewMemoryStore(limits), nil, nil
	}
}

func buildEmbedder(cfg *config.Config, logger zerolog.Logger) (retrieval.Embedder, uint64, error) {
	if cfg.OpenAIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, falling back to local hash embeddings")
		return retrieval.NewHashEmbedder(hashEmbeddingDim), hashEmbeddingDim, nil
	}
	embedder, err := retrieval.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		return nil, 0, err
	}
	return embedder, openAIEmbeddingDim, nil
}

func buildVectorStore(ctx context.Context, cfg *config.Config, vectorSize uint64, logger zerolog.Logger) (retrieval.Store, error) {
	switch cfg.Retrieval.Provider {
	case "qdrant":
		store, err := retrieval.NewQdrantStore(ctx, retrieval.QdrantOptions{
			Host:       cfg.Retrieval.QdrantHost,
			Port:       cfg.Retrieval.QdrantPort,
			Collection: cfg.Retrieval.Collection,
			VectorSize: vectorSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect vector store: %w", err)
		}
		logger.Info().
			Str("host", cfg.Retrieval.QdrantHost).
			Str("collection", cfg.Retrieval.Collection).
			Msg("using qdrant vector store")
		return store, nil
	default:
		return retrieval.NewMemoryStore(), nil
	}
}

func buildGenerator(cfg *config.Config) (llm.Generator, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required (set it in the environment or openai_key in the config file)")
	}
	return llm.NewOpenAIGenerator(llm.OpenAIOptions{
		APIKey:      cfg.OpenAIKey,
		Model:       cfg.ChatModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

// indexCatalog turns the current catalog rows into passages and upserts
// them into the vector store. Document IDs derive from the row identity,
// so re-running updates passages in place.
func indexCatalog(ctx context.Context, d *deps) error {
	idx := d.catalog.Index()
	source := strings.Join(d.cfg.Catalog.Paths, ",")
	docs := retrieval.BuildDocuments(idx, source)
	if len(docs) == 0 {
		d.logger.Warn().Msg("catalog produced no passages to index")
		return nil
	}
	if err := d.retriever.IndexDocuments(ctx, docs); err != nil {
		return fmt.Errorf("index catalog passages: %w", err)
	}
	observability.SetCatalogRows(idx.Len())
	d.logger.Info().Int("passages", len(docs)).Msg("catalog indexed")
	return nil
}

// buildDeps wires the full dependency graph for serve and chat.
func buildDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	d := &deps{cfg: cfg, logger: logger}

	var err error
	if d.catalog, err = buildCatalog(cfg, logger); err != nil {
		return nil, err
	}
	if d.sessions, d.redis, err = buildSessions(cfg, logger); err != nil {
		return nil, err
	}

	embedder, vectorSize, err := buildEmbedder(cfg, logger)
	if err != nil {
		d.close()
		return nil, err
	}
	if d.store, err = buildVectorStore(ctx, cfg, vectorSize, logger); err != nil {
		d.close()
		return nil, err
	}
	d.retriever = retrieval.NewVectorRetriever(embedder, d.store)

	generator, err := buildGenerator(cfg)
	if err != nil {
		d.close()
		return nil, err
	}

	var gate *safety.Gate
	if !cfg.Safety.Disabled {
		gate = safety.DefaultGate(cfg.Safety.MaxInputChars)
	}

	d.assistant = bot.New(bot.Options{
		Catalog:       d.catalog,
		Sessions:      d.sessions,
		Retriever:     d.retriever,
		Generator:     generator,
		Gate:          gate,
		Logger:        logger,
		TopK:          cfg.Retrieval.TopK,
		MaxInputChars: cfg.Safety.MaxInputChars,
	})
	return d, nil
}
