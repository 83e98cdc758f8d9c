package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lexconnect/index"
	"lexconnect/loader/internal"
	"lexconnect/loader/service"
	"lexconnect/model"
	"lexconnect/store"
	"lexconnect/types"

	"github.com/joho/godotenv"
)

func init() {
	mustLoadEnvVariables()
}

func main() {
	cfg := loadConfig()
	internal.CreateDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir)

	embedder, err := model.NewOllamaEmbedder(
		os.Getenv("OLLAMA_EMBEDDING_URL"),
		os.Getenv("OLLAMA_EMBEDDING_MODEL"),
		envInt("EMBEDDING_DIM", 384),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idx, persist, cleanup, err := openIndex(ctx, cfg, embedder.Dim())
	if err != nil {
		log.Fatal("error to open vector index: ", err)
	}
	defer cleanup()

	fullLog, err := store.OpenChunkLog(cfg.ChunksPath)
	if err != nil {
		log.Fatal(err)
	}
	defer fullLog.Close()

	metaLog, err := store.OpenChunkLog(cfg.MetaPath)
	if err != nil {
		log.Fatal(err)
	}
	defer metaLog.Close()

	indexer, err := service.New(cfg, embedder, idx, persist, fullLog, metaLog)
	if err != nil {
		log.Fatal(err)
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigch
		log.Println("Received shutdown signal, aborting ingestion...")
		cancel()
	}()

	if err := indexer.Run(ctx); err != nil {
		log.Fatal("ingestion run failed: ", err)
	}
	fmt.Printf("Done. Index at %s, chunks at %s, metadata at %s\n", cfg.IndexPath, cfg.ChunksPath, cfg.MetaPath)
}

func openIndex(ctx context.Context, cfg types.Config, dim int) (index.VectorIndex, func() error, func(), error) {
	switch os.Getenv("INDEX_BACKEND") {
	case "", "flat":
		flat, err := index.OpenOrCreateFlat(cfg.IndexPath, dim)
		if err != nil {
			return nil, nil, nil, err
		}
		return flat, func() error { return flat.Save(cfg.IndexPath) }, func() {}, nil
	case "pgvector":
		port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
		pg, err := index.NewPgvectorIndex(ctx, connStr, dim)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, nil, pg.Close, nil
	default:
		return nil, nil, nil, types.ConfigErrorf("unknown INDEX_BACKEND %q", os.Getenv("INDEX_BACKEND"))
	}
}

func loadConfig() types.Config {
	cfg := types.Config{
		SourceDir:    envStr("LOADER_SOURCE_DIR", "data/source"),
		ArchiveDir:   envStr("LOADER_ARCHIVE_DIR", "data/archive"),
		BadDir:       envStr("LOADER_BAD_DIR", "data/bad"),
		IndexPath:    envStr("INDEX_PATH", "data/civil.index"),
		ChunksPath:   envStr("CHUNKS_PATH", "data/civil_chunks.jsonl"),
		MetaPath:     envStr("META_PATH", "data/civil_meta.jsonl"),
		ChunkSize:    envInt("CHUNK_SIZE", 1200),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 200),
		BatchSize:    envInt("BATCH_SIZE", 16),
		CropTop:      envFloat("PDF_CROP_TOP", 0),
		CropBottom:   envFloat("PDF_CROP_BOTTOM", 0),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid %s: %v", key, err)
		}
		return n
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("invalid %s: %v", key, err)
		}
		return f
	}
	return def
}

func mustLoadEnvVariables() {
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found, using environment")
	}
}
