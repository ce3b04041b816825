// Package seoserver exposes the SEO service as MCP tools.
package seoserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/seo"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 7

// RegisterTools registers the analysis, thumbnail, history and key tools.
func RegisterTools(server *mcp.Server, svc *seo.Service) {
	registerAnalyze(server, svc)
	registerThumbnail(server, svc)
	registerHistory(server, svc)
	registerKeys(server, svc)
}

// call runs one tool invocation with a request-scoped logger and maps
// failures to the message shown to the user.
func call[Out any](ctx context.Context, tool string, fn func(ctx context.Context, log *slog.Logger) (Out, error)) (*mcp.CallToolResult, Out, error) {
	log := slog.With(slog.String("tool", tool), slog.String("request_id", uuid.NewString()))
	start := time.Now()
	out, err := fn(ctx, log)
	if err != nil {
		log.Warn("tool failed", slog.Duration("elapsed", time.Since(start)), slog.Any("error", err))
		var zero Out
		return nil, zero, errors.New(seo.UserMessage(err))
	}
	log.Info("tool done", slog.Duration("elapsed", time.Since(start)))
	return nil, out, nil
}

func registerAnalyze(server *mcp.Server, svc *seo.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "seo_analyze",
		Description: "Analyze a YouTube video for SEO. Fetches video and channel metadata from the YouTube Data API " +
			"and generates a Markdown report (main keyword, optimised title, description, timestamps, hashtags, tags) " +
			"in the requested language: vi (default), en, es, fr, de, ja, ko. Rotates through the configured Gemini keys on quota errors.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.SEOAnalyzeInput) (*mcp.CallToolResult, *engine.SEOAnalyzeOutput, error) {
		return call(ctx, "seo_analyze", func(ctx context.Context, log *slog.Logger) (*engine.SEOAnalyzeOutput, error) {
			if input.URL == "" {
				return nil, errors.New("url is required")
			}
			log.Info("analyzing", slog.String("url", input.URL), slog.String("language", input.Language))
			return svc.Analyze(ctx, input.URL, input.Language)
		})
	})
}

func registerThumbnail(server *mcp.Server, svc *seo.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "thumbnail_recreate",
		Description: "Recreate a thumbnail with the Gemini image model. The reference is the video's YouTube thumbnail " +
			"(video_id) or any image URL (image_url); prompt describes the new design. Returns the image as a data URI.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.ThumbnailRecreateInput) (*mcp.CallToolResult, *engine.ThumbnailRecreateOutput, error) {
		return call(ctx, "thumbnail_recreate", func(ctx context.Context, _ *slog.Logger) (*engine.ThumbnailRecreateOutput, error) {
			return svc.RecreateThumbnail(ctx, input)
		})
	})
}

func registerHistory(server *mcp.Server, svc *seo.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "seo_history_list",
		Description: "List recently analyzed videos, newest first (at most 15, one entry per video).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.EmptyInput) (*mcp.CallToolResult, *engine.HistoryOutput, error) {
		return call(ctx, "seo_history_list", func(ctx context.Context, _ *slog.Logger) (*engine.HistoryOutput, error) {
			return svc.History(ctx)
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "seo_history_delete",
		Description: "Remove one video from the analysis history by video_id.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.HistoryDeleteInput) (*mcp.CallToolResult, *engine.MessageOutput, error) {
		return call(ctx, "seo_history_delete", func(ctx context.Context, _ *slog.Logger) (*engine.MessageOutput, error) {
			if input.VideoID == "" {
				return nil, errors.New("video_id is required")
			}
			removed, err := svc.DeleteHistory(ctx, input.VideoID)
			if err != nil {
				return nil, err
			}
			if !removed {
				return &engine.MessageOutput{Message: fmt.Sprintf("%s is not in the history", input.VideoID)}, nil
			}
			return &engine.MessageOutput{Message: fmt.Sprintf("removed %s from the history", input.VideoID)}, nil
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "seo_history_clear",
		Description: "Delete the whole analysis history.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.EmptyInput) (*mcp.CallToolResult, *engine.MessageOutput, error) {
		return call(ctx, "seo_history_clear", func(ctx context.Context, _ *slog.Logger) (*engine.MessageOutput, error) {
			if err := svc.ClearHistory(ctx); err != nil {
				return nil, err
			}
			return &engine.MessageOutput{Message: "history cleared"}, nil
		})
	})
}

func registerKeys(server *mcp.Server, svc *seo.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "gemini_keys_set",
		Description: "Replace the Gemini API key pool. Keys are tried in the given order; saving resets rotation " +
			"to the first key. Pass keys as a list or as newline-separated text.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.KeysSetInput) (*mcp.CallToolResult, *engine.KeyStatusOutput, error) {
		return call(ctx, "gemini_keys_set", func(ctx context.Context, log *slog.Logger) (*engine.KeyStatusOutput, error) {
			out, err := svc.SetKeys(ctx, input)
			if err == nil {
				log.Info("key pool replaced", slog.Int("count", out.Count))
			}
			return out, err
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gemini_keys_status",
		Description: "Show the Gemini key pool: number of keys, the rotation cursor (index tried first) and masked keys.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ engine.EmptyInput) (*mcp.CallToolResult, *engine.KeyStatusOutput, error) {
		return call(ctx, "gemini_keys_status", func(ctx context.Context, _ *slog.Logger) (*engine.KeyStatusOutput, error) {
			return svc.KeyStatus(ctx)
		})
	})
}
