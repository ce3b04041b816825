package engine

import (
	"net/http"
	"time"
)

// Analysis backends for the report generation call.
const (
	BackendGenAI  = "genai"  // google.golang.org/genai, native Gemini API
	BackendOpenAI = "openai" // OpenAI-compatible endpoint via go-kit/llm
)

// Model and timeout defaults.
const (
	DefaultAnalysisModel = "gemini-2.5-pro"
	DefaultImageModel    = "gemini-2.5-flash-image"
	DefaultGeminiTimeout = 120 * time.Second
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeAPIKey string
	YouTubeRPS    float64

	GeminiAPIKeys   []string // seeds the key pool when the store is empty
	AnalysisBackend string
	LLMAPIBase      string
	AnalysisModel   string
	ImageModel      string
	LLMTemperature  float64
	LLMMaxTokens    int
	GeminiTimeout   time.Duration

	FetchTimeout  time.Duration
	MaxImageBytes int64

	DatabaseURL  string // postgres; empty selects SQLite
	SQLitePath   string
	HistoryLimit int

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, gemini).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = 10 << 20
	}
	if c.AnalysisBackend == "" {
		c.AnalysisBackend = BackendGenAI
	}
	if c.AnalysisModel == "" {
		c.AnalysisModel = DefaultAnalysisModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.GeminiTimeout <= 0 {
		c.GeminiTimeout = DefaultGeminiTimeout
	}
	cfg = c
	Cfg = &cfg
}
