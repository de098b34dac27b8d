package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"documind/internal/chunker"
	"documind/internal/config"
	"documind/internal/domain"
	"documind/internal/embedding/hashing"
	openaiembed "documind/internal/embedding/openai"
	"documind/internal/pdfreader"
	"documind/internal/registry"
	"documind/internal/server"
	"documind/internal/service"
	"documind/internal/summarizer"
	"documind/internal/synthesis"
	"documind/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/documind/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	svc, err := buildService(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble components: %v", err)
	}

	srv := server.New(svc, cfg.Server, logger)
	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}

// buildService assembles the QA pipeline from configuration.
func buildService(cfg *config.AppConfig, logger *slog.Logger) (*service.QAService, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing", "":
		h, err := hashing.New(cfg.Embedder.Dimension)
		if err != nil {
			return nil, fmt.Errorf("hashing embedder: %w", err)
		}
		emb = h
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openaiembed.NewClient(openaiembed.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Dimension: cfg.Embedder.Dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var synth domain.Synthesizer
	switch cfg.Synthesis.Type {
	case "none", "":
		// queries return raw context
	case "openai":
		if cfg.Synthesis.OpenAI == nil {
			return nil, fmt.Errorf("openai synthesis config missing")
		}
		client, err := synthesis.NewClient(synthesis.Config{
			BaseURL:   cfg.Synthesis.OpenAI.BaseURL,
			APIKeyEnv: cfg.Synthesis.OpenAI.APIKeyEnv,
			Model:     cfg.Synthesis.OpenAI.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai synthesis: %w", err)
		}
		synth = client
	default:
		return nil, fmt.Errorf("unknown synthesis: %s", cfg.Synthesis.Type)
	}

	ch, err := chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	idx, err := vectorindex.NewFlat(emb.Dimension())
	if err != nil {
		return nil, fmt.Errorf("vector index: %w", err)
	}

	return service.New(service.Deps{
		Reader:      pdfreader.New(),
		Chunker:     ch,
		Embedder:    emb,
		Index:       idx,
		Registry:    registry.New(),
		Synthesizer: synth,
		Summarizer:  summarizer.NewFrequencySummarizer(),
		TopK:        cfg.Retrieval.TopK,
		Logger:      logger,
	}), nil
}
