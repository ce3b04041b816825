package engine

// DefaultHistoryLimit caps the analysis history, newest first.
const DefaultHistoryLimit = 15

// --- Domain types ---

// VideoDetails is the video + channel metadata fed into the analysis prompt.
// Counters stay strings, as the YouTube Data API reports them.
type VideoDetails struct {
	VideoID          string   `json:"video_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ChannelID        string   `json:"channel_id"`
	ChannelTitle     string   `json:"channel_title"`
	Tags             []string `json:"tags"`
	ViewCount        string   `json:"view_count"`
	LikeCount        string   `json:"like_count"`
	CommentCount     string   `json:"comment_count"`
	Duration         string   `json:"duration"` // HH:MM:SS or MM:SS
	HasCaptions      bool     `json:"has_captions"`
	VideoPublishedAt string   `json:"video_published_at"`
	VideoTopics      []string `json:"video_topics"`

	SubscriberCount      string   `json:"subscriber_count"`
	ChannelDescription   string   `json:"channel_description"`
	ChannelPublishedAt   string   `json:"channel_published_at"`
	ChannelViewCount     string   `json:"channel_view_count"`
	ChannelVideoCount    string   `json:"channel_video_count"`
	ChannelKeywords      []string `json:"channel_keywords"`
	ChannelCountry       string   `json:"channel_country"`
	ChannelIsMadeForKids bool     `json:"channel_is_made_for_kids"`
	ChannelTopics        []string `json:"channel_topics"`
}

// GeneratedImage is an image returned by the image model.
type GeneratedImage struct {
	MIMEType string `json:"mime_type"`
	DataURI  string `json:"data_uri"`
}

// HistoryItem is one entry in the analysis history.
type HistoryItem struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	VideoID    string `json:"video_id"`
	AnalyzedAt string `json:"analyzed_at,omitempty"`
}

// --- Tool input types ---

type SEOAnalyzeInput struct {
	URL      string `json:"url" jsonschema:"YouTube video URL (watch, youtu.be, shorts, embed)"`
	Language string `json:"language,omitempty" jsonschema:"Report language code: vi (default), en, es, fr, de, ja, ko"`
}

type ThumbnailRecreateInput struct {
	VideoID  string `json:"video_id,omitempty" jsonschema:"YouTube video ID whose thumbnail is the reference image"`
	ImageURL string `json:"image_url,omitempty" jsonschema:"Reference image URL (used when video_id is empty)"`
	Prompt   string `json:"prompt" jsonschema:"Description of the thumbnail to create"`
}

type HistoryDeleteInput struct {
	VideoID string `json:"video_id" jsonschema:"Video ID of the history entry to remove"`
}

type KeysSetInput struct {
	Keys []string `json:"keys,omitempty" jsonschema:"Gemini API keys in priority order"`
	Text string   `json:"text,omitempty" jsonschema:"Alternative: keys separated by newlines"`
}

type EmptyInput struct{}

// --- Tool output types ---

type SEOAnalyzeOutput struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Language     string `json:"language"`
	Report       string `json:"report"` // Markdown
	KeyIndex     int    `json:"key_index"`
}

type ThumbnailRecreateOutput struct {
	Image    GeneratedImage `json:"image"`
	Source   string         `json:"source"`
	KeyIndex int            `json:"key_index"`
}

type HistoryOutput struct {
	Items []HistoryItem `json:"items"`
	Total int           `json:"total"`
}

type KeyStatusOutput struct {
	Count  int      `json:"count"`
	Cursor int      `json:"cursor"`
	Keys   []string `json:"keys"` // masked
}

type MessageOutput struct {
	Message string `json:"message"`
}
