package config

import "testing"

func TestLoadReviewDefaults(t *testing.T) {
	for _, key := range []string{"CHUNK_SIZE", "CHUNK_OVERLAP", "RAG_TOP_K", "REVIEW_QUERY_CHARS", "OLLAMA_GEN_MODEL", "RETRIEVER_BACKEND", "REVIEW_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Fatalf("expected chunking 500/50, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.RAGTopK != 3 {
		t.Fatalf("expected top k 3, got %d", cfg.RAGTopK)
	}
	if cfg.ReviewQueryChars != 1000 {
		t.Fatalf("expected query chars 1000, got %d", cfg.ReviewQueryChars)
	}
	if cfg.OllamaGenModel != "tinyllama" {
		t.Fatalf("expected default model tinyllama, got %q", cfg.OllamaGenModel)
	}
	if cfg.RetrieverBackend != "qdrant" {
		t.Fatalf("expected default retriever qdrant, got %q", cfg.RetrieverBackend)
	}
	if cfg.ReviewConcurrency != 1 {
		t.Fatalf("expected sequential reviews by default, got %d", cfg.ReviewConcurrency)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "5")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("LLM_PROVIDER", "anthropic")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected anthropic provider, got %q", cfg.LLMProvider)
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "lots")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.ChunkSize != 500 {
		t.Fatalf("expected fallback chunk size, got %d", cfg.ChunkSize)
	}
	if cfg.APIRateLimitRPS != 10 {
		t.Fatalf("expected fallback rps, got %v", cfg.APIRateLimitRPS)
	}
}
