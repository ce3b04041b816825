package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AnalyzeRequests   atomic.Int64
	ThumbnailRequests atomic.Int64
	GeminiCalls       atomic.Int64
	GeminiErrors      atomic.Int64
	KeyRotations      atomic.Int64
	PoolExhausted     atomic.Int64
	YouTubeRequests   atomic.Int64
	YouTubeErrors     atomic.Int64
	ImageFetches      atomic.Int64
}

var metricKeys = []string{
	"analyze_requests", "thumbnail_requests",
	"gemini_calls", "gemini_errors",
	"key_rotations", "pool_exhausted",
	"youtube_requests", "youtube_errors",
	"image_fetches",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"analyze_requests":   metrics.AnalyzeRequests.Load(),
		"thumbnail_requests": metrics.ThumbnailRequests.Load(),
		"gemini_calls":       metrics.GeminiCalls.Load(),
		"gemini_errors":      metrics.GeminiErrors.Load(),
		"key_rotations":      metrics.KeyRotations.Load(),
		"pool_exhausted":     metrics.PoolExhausted.Load(),
		"youtube_requests":   metrics.YouTubeRequests.Load(),
		"youtube_errors":     metrics.YouTubeErrors.Load(),
		"image_fetches":      metrics.ImageFetches.Load(),
		"cache_hits":         hits,
		"cache_misses":       misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrAnalyzeRequests()   { metrics.AnalyzeRequests.Add(1) }
func IncrThumbnailRequests() { metrics.ThumbnailRequests.Add(1) }
func IncrGeminiCalls()       { metrics.GeminiCalls.Add(1) }
func IncrGeminiErrors()      { metrics.GeminiErrors.Add(1) }
func IncrPoolExhausted()     { metrics.PoolExhausted.Add(1) }
func IncrYouTubeRequests()   { metrics.YouTubeRequests.Add(1) }
func IncrYouTubeErrors()     { metrics.YouTubeErrors.Add(1) }
func IncrImageFetches()      { metrics.ImageFetches.Add(1) }

// AddKeyRotations records n skipped credentials in one run.
func AddKeyRotations(n int) {
	if n > 0 {
		metrics.KeyRotations.Add(int64(n))
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 20*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
