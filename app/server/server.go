package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"lexconnect/app/agent"
	"lexconnect/app/api"
	"lexconnect/index"
	"lexconnect/model"
	"lexconnect/rag"
	"lexconnect/store"
	"lexconnect/types"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	pool, err := store.NewPostgresStore(ctx, pgConnStr())
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables: ", err)
		return
	}

	if os.Getenv("SEED_LAWYERS") == "true" {
		if err := pool.SeedLawyers(ctx); err != nil {
			log.Fatal("error to seed lawyers: ", err)
			return
		}
	}

	embedder, err := model.NewOllamaEmbedder(
		os.Getenv("OLLAMA_EMBEDDING_URL"),
		os.Getenv("OLLAMA_EMBEDDING_MODEL"),
		envInt("EMBEDDING_DIM", 384),
	)
	if err != nil {
		log.Fatal(err)
	}

	idx, err := s.openIndex(ctx, embedder.Dim())
	if err != nil {
		// A missing index is a setup error, not an empty corpus: starting
		// anyway would answer every question with "no cases found".
		log.Fatal("error to open vector index: ", err)
		return
	}

	metas, err := store.LoadChunkRecords(envStr("META_PATH", "data/civil_meta.jsonl"))
	if err != nil {
		log.Fatal("error to load metadata log: ", err)
		return
	}
	s.logger.Info("retrieval state loaded", "meta_records", len(metas))

	retriever, err := rag.NewRetriever(embedder, idx, metas)
	if err != nil {
		log.Fatal(err)
	}

	generator := model.NewOllamaGenerator(types.LLMConfig{
		URL:          os.Getenv("LLM_URL"),
		Model:        os.Getenv("LLM_MODEL"),
		MaxNewTokens: envInt("LLM_MAX_NEW_TOKENS", 300),
		Temperature:  envFloat("LLM_TEMPERATURE", 0.2),
		Timeout:      time.Duration(envInt("LLM_TIMEOUT_SECS", 120)) * time.Second,
	})

	ragService := rag.NewService(
		retriever,
		rag.NewPromptBuilder(envInt("PROMPT_TOKEN_LIMIT", 1800)),
		generator,
		rag.Options{TopK: envInt("RAG_TOP_K", 5)},
		s.logger,
	)

	var (
		app          = fiber.New(config)
		intakeAgent  = agent.NewIntakeAgent(pool)
		routerAgent  = agent.NewRouterAgent(pool)
		lawyerAgent  = agent.NewLawyerAgent(pool)
		checkHandler = api.NewCheckHandler(api.IndexStats{Count: idx.Count, Metas: len(metas)})
		chatHandler  = api.NewChatHandler(ragService, intakeAgent)
		caseHandler  = api.NewCaseHandler(pool, intakeAgent, routerAgent)
		lawyerHdl    = api.NewLawyerHandler(pool, lawyerAgent)
		fileHandler  = api.NewFileHandler(envStr("LOADER_SOURCE_DIR", "data/source"))
		check        = app.Group("/check")
		apiv1        = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/chat", chatHandler.HandleChat)
	apiv1.Post("/caseintake", caseHandler.HandleCaseIntake)
	apiv1.Get("/cases", caseHandler.HandleListCases)
	apiv1.Post("/cases/:id/recommendations", caseHandler.HandleCreateRecommendations)
	apiv1.Get("/cases/:id/recommendations", caseHandler.HandleListRecommendations)
	apiv1.Post("/recommendations/:id/client-accept", caseHandler.HandleClientAccept)
	apiv1.Post("/recommendations/:id/lawyer-accept", lawyerHdl.HandleLawyerAccept)
	apiv1.Post("/recommendations/:id/decline", lawyerHdl.HandleDecline)
	apiv1.Get("/lawyer/requests", lawyerHdl.HandleRequests)
	apiv1.Get("/lawyer/active-cases", lawyerHdl.HandleActiveCases)
	apiv1.Post("/files", fileHandler.HandleUpload)
	apiv1.Delete("/files/:name", fileHandler.HandleDelete)

	err = app.Listen(s.listenAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

func (s *Server) openIndex(ctx context.Context, dim int) (index.VectorIndex, error) {
	switch os.Getenv("INDEX_BACKEND") {
	case "", "flat":
		idx, err := index.LoadFlatIndex(envStr("INDEX_PATH", "data/civil.index"))
		if err != nil {
			return nil, err
		}
		if idx.Dim() != dim {
			return nil, types.ConfigErrorf("index dimension %d does not match embedder dimension %d", idx.Dim(), dim)
		}
		return idx, nil
	case "pgvector":
		return index.NewPgvectorIndex(ctx, pgConnStr(), dim)
	default:
		return nil, types.ConfigErrorf("unknown INDEX_BACKEND %q", os.Getenv("INDEX_BACKEND"))
	}
}

func pgConnStr() string {
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
