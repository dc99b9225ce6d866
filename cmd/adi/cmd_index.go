package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"adi/internal/embedproviders"
	"adi/internal/graphstore"
	"adi/internal/indexer"
	"adi/internal/lang"
	"adi/internal/vectorindex"
)

func openIndexer(root string) (*indexer.Indexer, func(), error) {
	graphPath := graphDBPath(root)
	if err := ensureParentDir(graphPath); err != nil {
		return nil, nil, err
	}
	store, err := graphstore.Open(graphPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open graph store: %w", err)
	}

	embedder, err := embedproviders.New(embedderConfig(), logger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("build embedder: %w", err)
	}

	vecPath := vectorDBPath(root)
	if err := ensureParentDir(vecPath); err != nil {
		store.Close()
		return nil, nil, err
	}
	vectors, err := vectorindex.Open(vecPath, embedder.Dimensions(), logger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open vector index: %w", err)
	}

	dispatch := lang.NewDispatcher(logger)
	ix := indexer.New(store, vectors, dispatch, embedder, logger)

	cleanup := func() {
		vectors.Close()
		store.Close()
	}
	return ix, cleanup, nil
}

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project into the symbol graph and vector index",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		ix, cleanup, err := openIndexer(root)
		if err != nil {
			return err
		}
		defer cleanup()

		discoveryCfg := indexer.DefaultDiscoveryConfig()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		progress, err := ix.IndexProject(ctx, root, discoveryCfg)
		cancel()
		if err != nil {
			return err
		}

		fmt.Printf("indexed %d/%d files, %d symbols\n", progress.FilesProcessed, progress.FilesTotal, progress.SymbolsIndexed)
		for _, e := range progress.Errors {
			fmt.Fprintln(os.Stderr, "error:", e)
		}

		if !indexWatch {
			return nil
		}

		watcher, err := indexer.NewWatcher(ix, root, discoveryCfg)
		if err != nil {
			return fmt.Errorf("build watcher: %w", err)
		}
		watchCtx, watchCancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer watchCancel()
		if err := watcher.Start(watchCtx); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		fmt.Println("watching for changes, press ctrl-c to stop")
		<-watchCtx.Done()
		watcher.Stop()
		return nil
	},
}

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed symbols by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		ix, cleanup, err := openIndexer(root)
		if err != nil {
			return err
		}
		defer cleanup()

		matches, err := ix.FTSSearchSymbols(args[0], searchLimit)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(matches)
	},
}

var symbolsNameFilter string

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List symbols, optionally filtered by exact name",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		ix, cleanup, err := openIndexer(root)
		if err != nil {
			return err
		}
		defer cleanup()

		if symbolsNameFilter == "" {
			return fmt.Errorf("--name is required")
		}
		symbols, err := ix.FindSymbolsByName(symbolsNameFilter)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(symbols)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		ix, cleanup, err := openIndexer(root)
		if err != nil {
			return err
		}
		defer cleanup()

		status, err := ix.Status()
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(status)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "After the initial index, watch the project and incrementally reindex changed files")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	symbolsCmd.Flags().StringVar(&symbolsNameFilter, "name", "", "Exact symbol name to look up")
}
