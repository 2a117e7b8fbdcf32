package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fikrfree/assistant/internal/retrieval"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build catalog embeddings and upsert them into the vector store",
	Long: `Index reads the configured catalog sources, renders each plan row
into a retrieval passage, embeds it and upserts it into the vector store.
Passage IDs derive from the plan identity, so re-running updates in place.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	cat, err := buildCatalog(cfg, logger)
	if err != nil {
		return err
	}
	embedder, vectorSize, err := buildEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	store, err := buildVectorStore(ctx, cfg, vectorSize, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	d := &deps{
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		store:     store,
		retriever: retrieval.NewVectorRetriever(embedder, store),
	}
	return indexCatalog(ctx, d)
}
