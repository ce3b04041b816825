// Package gemini builds the credential-scoped operations run by the key
// rotation executor: SEO report generation and thumbnail recreation.
//
// Every operation creates its client from the credential it is handed and
// returns provider errors unchanged (wrapped with %w), so the executor's
// quota predicate sees the provider status. Failures decided by the response
// content are wrapped with rotation.NotQuota and never rotate.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/duongtho001/Youseo/internal/engine"
	"google.golang.org/genai"
)

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrNoImage       = errors.New("model returned no image")
	ErrBlocked       = errors.New("request blocked by safety filters")
)

// baseURL overrides the Gemini API endpoint; empty uses the SDK default.
var baseURL string

func newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: engine.Cfg.GeminiTimeout},
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	return genai.NewClient(ctx, cc)
}
