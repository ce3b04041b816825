package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/rotation"
	"google.golang.org/genai"
)

// AnalysisOperation returns the report generation call for one video.
// The prompt is rendered once; each attempt only swaps the credential.
func AnalysisOperation(backend string, d *engine.VideoDetails, language string) rotation.Operation[string] {
	prompt := engine.BuildAnalysisPrompt(d, language)
	if backend == engine.BackendOpenAI {
		return openAIAnalysis(prompt)
	}
	return genaiAnalysis(prompt)
}

func genaiAnalysis(prompt string) rotation.Operation[string] {
	return func(ctx context.Context, apiKey string) (string, error) {
		engine.IncrGeminiCalls()
		client, err := newClient(ctx, apiKey)
		if err != nil {
			engine.IncrGeminiErrors()
			return "", fmt.Errorf("gemini client: %w", err)
		}

		gc := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(engine.Cfg.LLMTemperature)),
		}
		if n := engine.Cfg.LLMMaxTokens; n > 0 {
			gc.MaxOutputTokens = int32(n)
		}
		resp, err := client.Models.GenerateContent(ctx, engine.Cfg.AnalysisModel, genai.Text(prompt), gc)
		if err != nil {
			engine.IncrGeminiErrors()
			return "", fmt.Errorf("generate report: %w", err)
		}
		return reportText(resp.Text())
	}
}

func openAIAnalysis(prompt string) rotation.Operation[string] {
	return func(ctx context.Context, apiKey string) (string, error) {
		engine.IncrGeminiCalls()
		client := llm.NewClient(engine.Cfg.LLMAPIBase, apiKey, engine.Cfg.AnalysisModel,
			llm.WithMaxTokens(engine.Cfg.LLMMaxTokens),
			llm.WithTemperature(engine.Cfg.LLMTemperature),
			llm.WithHTTPClient(&http.Client{Timeout: engine.Cfg.GeminiTimeout}),
		)
		text, err := client.Complete(ctx, "", prompt)
		if err != nil {
			engine.IncrGeminiErrors()
			return "", fmt.Errorf("generate report: %w", err)
		}
		return reportText(text)
	}
}

func reportText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		engine.IncrGeminiErrors()
		return "", rotation.NotQuota(ErrEmptyResponse)
	}
	slog.Debug("gemini: report generated", slog.Int("chars", len(text)))
	return text, nil
}
