// Package main is the vectordb CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bburrier/vector-database-exploration/internal/config"
	"github.com/bburrier/vector-database-exploration/internal/embedding"
	"github.com/bburrier/vector-database-exploration/internal/keyword"
	"github.com/bburrier/vector-database-exploration/internal/models"
	"github.com/bburrier/vector-database-exploration/internal/server"
	"github.com/bburrier/vector-database-exploration/internal/store"
	"github.com/bburrier/vector-database-exploration/internal/watcher"
	"github.com/bburrier/vector-database-exploration/pkg/utils"
)

var version = "dev"

const defaultServerURL = "http://localhost:8000"

// loadConfig loads the config at path, or the defaults when path is empty and
// no config.yaml exists in the current directory.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "delete":
		runDelete()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("vectordb version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: ./config.yaml if present)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	embedder := newEmbedder(cfg, logger)
	defer embedder.Close()

	keywords, err := keyword.NewIndex()
	if err != nil {
		logger.Fatal("Failed to create keyword index", zap.Error(err))
	}
	defer keywords.Close()

	st := store.New(embedder, cfg.Store.Dimension,
		store.WithLogger(logger),
		store.WithKeywordIndex(keywords),
		store.WithScale(cfg.Store.Scale),
	)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Corpus.Directory != "" {
		corpus := newCorpusWatcher(cfg, st, logger, debugMode)
		if err := corpus.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start corpus watcher", zap.Error(err))
		}
		defer corpus.Stop()
		corpus.SyncExisting()
	}

	srv := server.NewServer(st, keywords, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newEmbedder builds the ONNX embedder when a model path is configured and
// the runtime is available, falling back to the deterministic mock provider.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	if cfg.Embedding.ModelPath != "" {
		onnx, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err == nil {
			logger.Info("embedder initialized",
				zap.String("model", onnx.ModelName()),
				zap.Int("dimensions", cfg.Embedding.Dimensions))
			return onnx
		}
		logger.Warn("ONNX embedder unavailable, using mock embedder", zap.Error(err))
	}
	return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
}

// newCorpusWatcher wires the corpus directory into the store: file writes
// become upserts keyed by path, removals drop the record.
func newCorpusWatcher(cfg *config.Config, st *store.Store, logger *zap.Logger, debug bool) *watcher.Watcher {
	opts := []watcher.Option{}
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	return watcher.New(
		cfg.Corpus.Directory,
		cfg.Corpus.Extensions,
		func(path string) {
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("corpus read failed", zap.String("path", path), zap.Error(err))
				return
			}
			text := strings.TrimSpace(string(data))
			if text == "" {
				return
			}
			if _, err := st.UpsertSource(context.Background(), path, text); err != nil {
				logger.Warn("corpus upsert failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if st.DeleteBySource(path) {
				logger.Debug("corpus record removed", zap.String("path", path))
			}
		},
		opts...,
	)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vectordb add [flags] <text>")
		os.Exit(1)
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))

	var resp models.InsertResponse
	err := postJSON(*serverURL+"/api/vectors", models.InsertRequest{Text: text}, &resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added: %s\n", resp.ID)
	fmt.Printf("Vector: %v\n", resp.Vector)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	topK := fs.Int("top-k", 5, "number of results")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vectordb search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	var resp models.SearchResponse
	err := postJSON(*serverURL+"/api/search", models.SearchRequest{Query: query, TopK: *topK}, &resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		if resp.Count == 0 {
			fmt.Println("No results.")
			return
		}
		for i, r := range resp.Results {
			fmt.Printf("%2d. [%.4f] %s  %s\n", i+1, r.Similarity, r.ID, utils.Truncate(r.Text, 80))
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: vectordb delete [flags] <id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/vectors/"+id, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Delete failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Deleted: %s\n", id)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/stats")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Stats failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		VectorDB models.Stats `json:"vector_db"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.VectorDB); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		s := out.VectorDB
		fmt.Printf("total_vectors:       %d\n", s.TotalVectors)
		fmt.Printf("dimension:           %d   # reduced coordinates per vector\n", s.Dimension)
		fmt.Printf("original_dimension:  %d   # embedding width\n", s.OriginalDimension)
		fmt.Printf("model_name:          %s\n", s.ModelName)
		fmt.Printf("pca_fitted:          %t\n", s.PCAFitted)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func postJSON(url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`vectordb - In-memory vector store with PCA visualization coordinates

Usage:
  vectordb server [flags]           Start the HTTP server
  vectordb add [flags] <text>       Embed and store a text snippet
  vectordb search [flags] <query>   Find the most similar snippets
  vectordb delete [flags] <id>      Delete a stored vector
  vectordb stats [flags]            Show store statistics
  vectordb version                  Show version
  vectordb help                     Show this help

Server Flags:
  --config string    Config file path (default: ./config.yaml if present)
  --debug            Enable debug logging

Add/Search/Delete/Stats Flags:
  --server string    Server URL (default: http://localhost:8000)
  --top-k int        Number of search results (default: 5)
  --output string    Output format: text or json (default: text)

Examples:
  vectordb server
  vectordb add "the cat sat on the mat"
  vectordb search "feline furniture"
  vectordb search --top-k 10 --output json "feline furniture"
  vectordb delete doc_a1b2c3d4
  vectordb stats`)
}
