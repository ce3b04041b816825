// youseo: YouTube SEO analyzer MCP server.
//
// Fetches video and channel metadata from the YouTube Data API, generates SEO
// reports and recreated thumbnails with Gemini, and rotates through a pool of
// Gemini API keys when one runs out of quota.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/store"
	"github.com/duongtho001/Youseo/internal/seo"
	"github.com/duongtho001/Youseo/internal/seoserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	c := initEngine()

	st, err := openStore(c)
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		return
	}
	defer st.Close()

	slog.Info("starting youseo",
		slog.String("port", mcpPort),
		slog.String("backend", c.AnalysisBackend),
		slog.String("analysis_model", c.AnalysisModel),
		slog.String("image_model", c.ImageModel),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "youseo",
		Version: version,
	}, nil)

	svc := seo.New(st, c.AnalysisBackend, c.HistoryLimit)
	seoserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", seoserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "youseo",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() engine.Config {
	c := engine.Config{
		YouTubeAPIKey:        env.Str("YOUTUBE_API_KEY", ""),
		YouTubeRPS:           env.Float("YOUTUBE_RPS", 5),
		GeminiAPIKeys:        env.List("GEMINI_API_KEYS", ""),
		AnalysisBackend:      env.Str("ANALYSIS_BACKEND", engine.BackendGenAI),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		AnalysisModel:        env.Str("ANALYSIS_MODEL", engine.DefaultAnalysisModel),
		ImageModel:           env.Str("IMAGE_MODEL", engine.DefaultImageModel),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 32768),
		GeminiTimeout:        env.Duration("GEMINI_TIMEOUT", engine.DefaultGeminiTimeout),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		SQLitePath:           env.Str("SQLITE_PATH", ""),
		HistoryLimit:         env.Int("HISTORY_LIMIT", engine.DefaultHistoryLimit),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
	if c.YouTubeAPIKey == "" {
		slog.Warn("YOUTUBE_API_KEY not set, seo_analyze will fail until it is configured")
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 30*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
	return *engine.Cfg
}

func openStore(c engine.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.Open(ctx, c.DatabaseURL, c.SQLitePath)
	if err != nil {
		return nil, err
	}
	seeded, err := store.SeedKeys(ctx, st, c.GeminiAPIKeys)
	if err != nil {
		st.Close()
		return nil, err
	}
	keys, cursor, err := st.Keys(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	slog.Info("store ready",
		slog.Bool("postgres", c.DatabaseURL != ""),
		slog.Bool("seeded_from_env", seeded),
		slog.Int("keys", len(keys)),
		slog.Int("cursor", cursor))
	return st, nil
}
