package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/rotation"
	"google.golang.org/genai"
)

// ThumbnailOperation returns the image edit call: reference image + instruction in,
// one generated image out. The image bytes are shared across attempts.
func ThumbnailOperation(image []byte, mimeType, prompt string) rotation.Operation[engine.GeneratedImage] {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	gc := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	return func(ctx context.Context, apiKey string) (engine.GeneratedImage, error) {
		engine.IncrGeminiCalls()
		client, err := newClient(ctx, apiKey)
		if err != nil {
			engine.IncrGeminiErrors()
			return engine.GeneratedImage{}, fmt.Errorf("gemini client: %w", err)
		}
		resp, err := client.Models.GenerateContent(ctx, engine.Cfg.ImageModel, contents, gc)
		if err != nil {
			engine.IncrGeminiErrors()
			return engine.GeneratedImage{}, fmt.Errorf("generate image: %w", err)
		}
		img, err := extractImage(resp)
		if err != nil {
			engine.IncrGeminiErrors()
			return engine.GeneratedImage{}, rotation.NotQuota(err)
		}
		return img, nil
	}
}

// extractImage returns the first inline image of the first candidate as a data URI.
func extractImage(resp *genai.GenerateContentResponse) (engine.GeneratedImage, error) {
	if resp == nil {
		return engine.GeneratedImage{}, ErrNoImage
	}
	if len(resp.Candidates) == 0 {
		if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
			return engine.GeneratedImage{}, fmt.Errorf("%w: %s", ErrBlocked, pf.BlockReason)
		}
		return engine.GeneratedImage{}, ErrNoImage
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return engine.GeneratedImage{}, ErrNoImage
	}
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil {
			continue
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return engine.GeneratedImage{
				MIMEType: mime,
				DataURI:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.InlineData.Data),
			}, nil
		}
		text.WriteString(p.Text)
	}
	if t := strings.TrimSpace(text.String()); t != "" {
		return engine.GeneratedImage{}, fmt.Errorf("model returned text instead of an image: %s",
			engine.TruncateRunes(t, 300, "…"))
	}
	return engine.GeneratedImage{}, ErrNoImage
}
