package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/compliance-reviewer/internal/config"
	"github.com/kirillkom/compliance-reviewer/internal/core/ports"
	"github.com/kirillkom/compliance-reviewer/internal/core/usecase"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/annotation"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/chunking"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/extractor"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/llm/anthropic"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/llm/cache"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/resilience"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/search/bleve"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/compliance-reviewer/internal/infrastructure/vector/qdrant"
)

// Pipeline is the review core shared by every binary. It needs a model
// backend and a reference index but no database or broker.
type Pipeline struct {
	Config config.Config

	Extractor  *extractor.Registry
	Classifier *usecase.KeywordClassifier
	Checklists *usecase.ChecklistEngine
	Reviewer   *usecase.ReviewDocumentUseCase
	Intake     *usecase.IntakeUseCase
	Reference  *usecase.IngestReferenceUseCase
	QA         *usecase.AskUseCase

	executor *resilience.Executor
	closers  []func()
}

func NewPipeline(ctx context.Context, cfg config.Config) (*Pipeline, error) {
	p := &Pipeline{Config: cfg}

	definitions, err := config.LoadChecklists(cfg.ChecklistsPath)
	if err != nil {
		return nil, fmt.Errorf("load checklists: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	p.executor = executor
	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            llmTimeout,
		ResilienceExecutor: executor,
	})

	reviewCompleter, answerCompleter, err := p.newCompleters(ctx, cfg, ollamaClient, executor)
	if err != nil {
		p.Close()
		return nil, err
	}

	retriever, indexer, err := p.newReferenceIndex(cfg, ollama.NewEmbedder(ollamaClient), executor)
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Extractor = extractor.NewRegistry()
	p.Classifier = usecase.NewKeywordClassifier(usecase.DefaultClassificationRules())
	p.Checklists = usecase.NewChecklistEngine(definitions)
	p.Reviewer = usecase.NewReviewDocumentUseCase(
		p.Extractor,
		retriever,
		reviewCompleter,
		annotation.NewDispatcher(p.Extractor),
		usecase.ReviewOptions{
			TopK:        cfg.RAGTopK,
			QueryChars:  cfg.ReviewQueryChars,
			OutputDir:   cfg.ReviewOutputDir,
			Concurrency: cfg.ReviewConcurrency,
		},
	)
	p.Intake = usecase.NewIntakeUseCase(p.Extractor, p.Classifier, p.Checklists)
	p.Reference = usecase.NewIngestReferenceUseCase(p.Extractor, chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap), indexer)
	p.QA = usecase.NewAskUseCase(retriever, answerCompleter)

	slog.Info("pipeline_ready",
		"llm_provider", cfg.LLMProvider,
		"retriever", cfg.RetrieverBackend,
		"checklists", len(definitions),
		"completion_cache", cfg.RedisURL != "",
	)
	return p, nil
}

// newCompleters returns the review completer, which may request JSON
// output, and the free-text answer completer.
func (p *Pipeline) newCompleters(ctx context.Context, cfg config.Config, client *ollama.Client, executor *resilience.Executor) (ports.Completer, ports.Completer, error) {
	var review, answer ports.Completer
	model := cfg.OllamaGenModel

	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", "ollama":
		review = ollama.NewJSONCompleter(client)
		answer = ollama.NewCompleter(client)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, nil, fmt.Errorf("ANTHROPIC_API_KEY is required for LLM_PROVIDER=anthropic")
		}
		completer := anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicModel, int64(cfg.AnthropicMaxTokens), executor)
		review, answer = completer, completer
		model = cfg.AnthropicModel
	default:
		return nil, nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.RedisURL == "" {
		return review, answer, nil
	}
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("init completion cache: %w", err)
	}
	p.closers = append(p.closers, func() { _ = rdb.Close() })

	ttl := time.Duration(cfg.LLMCacheTTLSeconds) * time.Second
	reviewCache := cache.NewCompleter(review, rdb, model+":review", ttl, cache.WithCacheable(parseableReview))
	return reviewCache, cache.NewCompleter(answer, rdb, model+":answer", ttl), nil
}

// parseableReview keeps unparseable model output out of the cache so a
// re-review asks the model again.
func parseableReview(output string) bool {
	_, err := usecase.ParseReviewOutput(output)
	return err == nil
}

func (p *Pipeline) newReferenceIndex(cfg config.Config, embedder ports.Embedder, executor *resilience.Executor) (ports.Retriever, ports.ReferenceIndexer, error) {
	newStore := func() *qdrant.Store {
		return qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantCollection, embedder, qdrant.Options{
			Timeout:            time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
			ResilienceExecutor: executor,
		})
	}
	openIndex := func() (*bleve.Index, error) {
		index, err := bleve.Open(cfg.BleveIndexPath)
		if err != nil {
			return nil, fmt.Errorf("open reference index: %w", err)
		}
		p.closers = append(p.closers, func() { _ = index.Close() })
		return index, nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.RetrieverBackend)) {
	case "", "qdrant":
		store := newStore()
		return store, store, nil
	case "bleve":
		index, err := openIndex()
		if err != nil {
			return nil, nil, err
		}
		return index, index, nil
	case "hybrid":
		index, err := openIndex()
		if err != nil {
			return nil, nil, err
		}
		store := newStore()
		return usecase.NewHybridRetriever(store, index), usecase.FanoutIndexer{store, index}, nil
	default:
		return nil, nil, fmt.Errorf("unknown RETRIEVER_BACKEND %q", cfg.RetrieverBackend)
	}
}

func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.RetryMaxAttempts
	out.BreakerEnabled = cfg.BreakerEnabled
	return out
}

// App adds persistence, the job queue and reporting to the pipeline for the
// API and worker.
type App struct {
	*Pipeline

	Storage   *localfs.Storage
	Uploads   *usecase.UploadUseCase
	Documents *postgres.DocumentRepository
	Reviews   *postgres.ReviewRepository
	Queue     *nats.Queue
	Jobs      *usecase.ReviewJobUseCase
	Reports   *xlsx.Writer
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pipeline, err := NewPipeline(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Pipeline: pipeline, Reports: xlsx.NewWriter()}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	app.Documents = postgres.NewDocumentRepository(db)
	app.Reviews = postgres.NewReviewRepository(db)

	app.Storage, err = localfs.New(cfg.StoragePath)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	app.Uploads = usecase.NewUploadUseCase(app.Storage)

	app.Queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: app.executor,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.closers = append(app.closers, app.Queue.Close)

	recorders := []ports.ReviewRecorder{app.Reviews}
	if cfg.Neo4jURI != "" {
		graph, err := neo4j.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init citation graph: %w", err)
		}
		app.closers = append(app.closers, func() { _ = graph.Close(context.Background()) })
		recorders = append(recorders, graph)
	}
	app.Jobs = usecase.NewReviewJobUseCase(app.Reviewer, app.Classifier, app.Extractor, recorders...)

	return app, nil
}
