package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/rotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	textReply  = `{"candidates":[{"content":{"role":"model","parts":[{"text":"## I. RAW SEO\nreport body"}]},"finishReason":"STOP"}]}`
	emptyReply = `{"candidates":[{"content":{"role":"model","parts":[{"text":"   "}]},"finishReason":"STOP"}]}`
	quotaReply = `{"error":{"code":429,"message":"You exceeded your current quota","status":"RESOURCE_EXHAUSTED"}}`
	badReply   = `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`
)

// fakeGemini answers generateContent per API key.
type fakeGemini struct {
	replies map[string]fakeReply
	keys    []string
	bodies  []string
	paths   []string
}

type fakeReply struct {
	status int
	body   string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("x-goog-api-key")
	if key == "" {
		key = r.URL.Query().Get("key")
	}
	body, _ := io.ReadAll(r.Body)
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, string(body))
	f.paths = append(f.paths, r.URL.Path)

	reply, ok := f.replies[key]
	if !ok {
		reply = fakeReply{http.StatusBadRequest, badReply}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	w.Write([]byte(reply.body))
}

func setupGemini(t *testing.T, f *fakeGemini) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{LLMTemperature: 0.7, LLMMaxTokens: 1024, GeminiTimeout: 5 * time.Second})
	baseURL = srv.URL + "/"
	t.Cleanup(func() { baseURL = "" })
}

func sampleDetails() *engine.VideoDetails {
	return &engine.VideoDetails{
		VideoID:      "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		ChannelID:    "UC123",
		ChannelTitle: "Rick Astley",
		ViewCount:    "1500000000",
		Duration:     "03:33",
	}
}

func TestAnalysisOperationGenAI(t *testing.T) {
	f := &fakeGemini{replies: map[string]fakeReply{"key-1": {http.StatusOK, textReply}}}
	setupGemini(t, f)

	op := AnalysisOperation(engine.BackendGenAI, sampleDetails(), "en")
	report, err := op(context.Background(), "key-1")
	require.NoError(t, err)

	assert.Equal(t, "## I. RAW SEO\nreport body", report)
	require.Len(t, f.paths, 1)
	assert.True(t, strings.HasSuffix(f.paths[0], "models/gemini-2.5-pro:generateContent"), f.paths[0])
	assert.Contains(t, f.bodies[0], "Never Gonna Give You Up")
	assert.Contains(t, f.bodies[0], "English")
}

func TestAnalysisOperationEmptyResponse(t *testing.T) {
	f := &fakeGemini{replies: map[string]fakeReply{"key-1": {http.StatusOK, emptyReply}}}
	setupGemini(t, f)

	_, err := AnalysisOperation(engine.BackendGenAI, sampleDetails(), "vi")(context.Background(), "key-1")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.False(t, rotation.IsQuotaExhaustion(err))
}

func TestAnalysisOperationErrorsKeepStatus(t *testing.T) {
	f := &fakeGemini{replies: map[string]fakeReply{
		"burned": {http.StatusTooManyRequests, quotaReply},
		"broken": {http.StatusBadRequest, badReply},
	}}
	setupGemini(t, f)
	op := AnalysisOperation(engine.BackendGenAI, sampleDetails(), "vi")

	_, err := op(context.Background(), "burned")
	require.Error(t, err)
	assert.True(t, rotation.IsQuotaExhaustion(err), "429 must classify as quota: %v", err)

	_, err = op(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, rotation.IsQuotaExhaustion(err), "400 must not classify as quota: %v", err)
}

func TestAnalysisRotatesPastBurnedKeys(t *testing.T) {
	f := &fakeGemini{replies: map[string]fakeReply{
		"burned-1": {http.StatusTooManyRequests, quotaReply},
		"burned-2": {http.StatusTooManyRequests, quotaReply},
		"good":     {http.StatusOK, textReply},
	}}
	setupGemini(t, f)

	pool := []string{"burned-1", "burned-2", "good"}
	res, err := rotation.Execute(context.Background(), pool, 0,
		AnalysisOperation(engine.BackendGenAI, sampleDetails(), "vi"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Index)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, pool, f.keys)
}

func TestAnalysisAbortsOnNonQuotaError(t *testing.T) {
	f := &fakeGemini{replies: map[string]fakeReply{
		"broken": {http.StatusBadRequest, badReply},
		"good":   {http.StatusOK, textReply},
	}}
	setupGemini(t, f)

	_, err := rotation.Execute(context.Background(), []string{"broken", "good"}, 0,
		AnalysisOperation(engine.BackendGenAI, sampleDetails(), "vi"))
	require.Error(t, err)

	assert.Equal(t, rotation.KindOperationError, rotation.KindOf(err))
	assert.Equal(t, []string{"broken"}, f.keys)
}
