// Package seo orchestrates one user action: it loads the key pool and cursor
// from the store, runs the Gemini call through the rotation executor, and
// persists the index that succeeded.
package seo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/gemini"
	"github.com/duongtho001/Youseo/internal/engine/rotation"
	"github.com/duongtho001/Youseo/internal/engine/sources"
	"github.com/duongtho001/Youseo/internal/engine/store"
)

var (
	ErrInvalidURL     = errors.New("invalid YouTube URL")
	ErrPromptRequired = errors.New("prompt is required")
	ErrNoReference    = errors.New("video_id or image_url is required")
)

// Service runs SEO analyses and thumbnail recreations against the key pool.
// Function fields default to the production collaborators and are swapped in tests.
type Service struct {
	Store        store.Store
	Backend      string
	HistoryLimit int

	FetchDetails func(ctx context.Context, videoID string) (*engine.VideoDetails, error)
	FetchImage   func(ctx context.Context, url string) ([]byte, string, error)
	Analysis     func(backend string, d *engine.VideoDetails, language string) rotation.Operation[string]
	Thumbnail    func(image []byte, mimeType, prompt string) rotation.Operation[engine.GeneratedImage]
}

// New wires the production collaborators around st.
func New(st store.Store, backend string, historyLimit int) *Service {
	return &Service{
		Store:        st,
		Backend:      backend,
		HistoryLimit: historyLimit,
		FetchDetails: sources.FetchVideoDetails,
		FetchImage:   sources.FetchImage,
		Analysis:     gemini.AnalysisOperation,
		Thumbnail:    gemini.ThumbnailOperation,
	}
}

// Analyze generates the SEO report for a YouTube URL.
func (s *Service) Analyze(ctx context.Context, url, language string) (*engine.SEOAnalyzeOutput, error) {
	engine.IncrAnalyzeRequests()
	url = strings.TrimSpace(url)
	videoID, ok := sources.ExtractVideoID(url)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	language = engine.NormLang(language)

	pool, _, err := s.Store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load key pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, rotation.NoCredentials()
	}

	details, err := s.FetchDetails(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	res, err := run(ctx, s.Store, "analyze", s.Analysis(s.Backend, details, language))
	if err != nil {
		return nil, err
	}

	item := engine.HistoryItem{
		URL:        url,
		Title:      details.Title,
		VideoID:    videoID,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Store.AddHistory(ctx, item, s.HistoryLimit); err != nil {
		slog.Warn("seo: history not recorded", slog.String("video_id", videoID), slog.Any("error", err))
	}

	return &engine.SEOAnalyzeOutput{
		VideoID:      videoID,
		Title:        details.Title,
		ChannelTitle: details.ChannelTitle,
		ThumbnailURL: sources.ThumbnailURL(videoID),
		Language:     language,
		Report:       res.Value,
		KeyIndex:     res.Index,
	}, nil
}

// RecreateThumbnail downloads the reference image once, then asks the image
// model for a new thumbnail with the rotation executor.
func (s *Service) RecreateThumbnail(ctx context.Context, in engine.ThumbnailRecreateInput) (*engine.ThumbnailRecreateOutput, error) {
	engine.IncrThumbnailRequests()
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}

	source := strings.TrimSpace(in.ImageURL)
	if id := strings.TrimSpace(in.VideoID); id != "" {
		if vid, ok := sources.ExtractVideoID(id); ok {
			id = vid
		}
		source = sources.ThumbnailURL(id)
	}
	if source == "" {
		return nil, ErrNoReference
	}

	image, mime, err := s.FetchImage(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("download reference image: %w", err)
	}

	res, err := run(ctx, s.Store, "thumbnail", s.Thumbnail(image, mime, prompt))
	if err != nil {
		return nil, err
	}
	return &engine.ThumbnailRecreateOutput{Image: res.Value, Source: source, KeyIndex: res.Index}, nil
}

// run executes op over the stored pool starting at the stored cursor and
// persists the index that succeeded.
func run[T any](ctx context.Context, st store.Store, name string, op rotation.Operation[T]) (rotation.Result[T], error) {
	pool, cursor, err := st.Keys(ctx)
	if err != nil {
		return rotation.Result[T]{}, fmt.Errorf("load key pool: %w", err)
	}

	var res rotation.Result[T]
	err = engine.TrackOperation(ctx, name, func(ctx context.Context) error {
		var err error
		res, err = rotation.Execute(ctx, pool, cursor, op)
		return err
	})
	if err != nil {
		var f *rotation.Failure
		if errors.As(err, &f) {
			switch f.Kind {
			case rotation.KindQuotaExhausted:
				engine.AddKeyRotations(f.Attempts)
				engine.IncrPoolExhausted()
			case rotation.KindOperationError:
				engine.AddKeyRotations(f.Attempts - 1)
			}
			slog.Warn("seo: rotation failed", slog.String("op", name),
				slog.String("kind", f.Kind.String()), slog.Int("attempts", f.Attempts),
				slog.Int("start", cursor), slog.Int("pool_size", len(pool)))
		}
		return res, err
	}

	engine.AddKeyRotations(res.Attempts - 1)
	if res.Index != cursor {
		if err := st.SaveCursor(ctx, res.Index); err != nil {
			slog.Warn("seo: cursor not persisted", slog.Int("index", res.Index), slog.Any("error", err))
		}
	}
	slog.Info("seo: gemini call succeeded", slog.String("op", name),
		slog.Int("key_index", res.Index), slog.Int("attempts", res.Attempts))
	return res, nil
}

// UserMessage maps a Service error to the text shown to the user.
func UserMessage(err error) string {
	switch rotation.KindOf(err) {
	case rotation.KindInvalidInput:
		return "no Gemini API keys configured; add keys with gemini_keys_set"
	case rotation.KindQuotaExhausted:
		return "all Gemini API keys have exhausted their quota or are invalid; check the key configuration"
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
