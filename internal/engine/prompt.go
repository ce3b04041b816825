package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LLM prompt templates and the data that fills them.

// ReportLanguages maps supported report language codes to their display names.
var ReportLanguages = map[string]string{
	"vi": "Tiếng Việt",
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"ja": "日本語",
	"ko": "한국어",
}

// DefaultReportLanguage is used when the caller leaves the language empty.
const DefaultReportLanguage = "vi"

// LanguageName returns the display name for a report language code.
func LanguageName(code string) string {
	if name, ok := ReportLanguages[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return "the specified language"
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ChannelURL returns the canonical channel URL for a channel ID.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// analysisPrompt is the SEO report prompt with a fixed Markdown skeleton.
// Args in order: language, metadata block, language, video URL (x2), title,
// channel title (x2), channel URL, channel title.
const analysisPrompt = `You are a YouTube SEO assistant that works point by point. Produce an in-depth SEO analysis report in Markdown for the video below. The report MUST be written in **%s** and follow the structure and tone of the template exactly.

Use the extra signals to sharpen the analysis:
- Publish date: judge performance over time.
- Topics: how YouTube classifies this content.
- Channel country: who the target audience is.
- "Made for kids" status: it limits features and ads.

**Video & channel data:**
%s

---

**REQUIRED Markdown report structure (written in %s):**

Hello, I am your point-by-point YouTube SEO assistant. Below is an in-depth SEO analysis of the competitor video you provided, with strategic suggestions to replicate its success on your channel.

Video URL: [%s](%s)
Original title: ` + "`%s`" + `
Channel: ` + "`%s`" + `

-----

## I. RAW SEO

Core elements of the video:

| Element | Information / Suggestion |
| :--- | :--- |
| **Main keyword** | **[Infer the single most important keyword from the original title and description. Keep the original language.]** |
| **Channel name** | %s |
| **Channel URL** | %s |

-----

## II. ON-TOP SEO (replication strategy)

Build the title and description around the main keyword **"[repeat the main keyword here]"**.

### 1. Title containing the keyword

**Suggested title (SEO optimised):**

> [A new SEO-optimised title in the original language. It MUST be based on the original title, keep its core meaning and contain the main keyword.]

### 2. Description (SEO optimised)

| Description part | Details |
| :--- | :--- |
| **Main keyword 5 times** | [Rewrite a detailed, engaging description in the original language that mentions the main keyword exactly 5 times.] |
| **Timestamps containing the keyword** | [Plausible timestamps based on the video duration. At least one must contain the main keyword.] |
| **Hashtags, keyword first** | [Related hashtags; the first one is the main keyword without accents or spaces.] |

### 3. Keyword set (tags)

  * **Main keyword:** ` + "`[main keyword]`" + `
  * **Keyword 1:** ` + "`[related keyword 1]`" + `
  * **Keyword 2:** ` + "`[related keyword 2]`" + `
  * **Keyword 3:** ` + "`[related keyword 3]`" + `
  * **Keyword 4:** ` + "`[related keyword 4]`" + `
  * **Channel name:** ` + "`%s`" + `

-----

## III. COMPETITOR THUMBNAIL REPLICATION
`

// BuildAnalysisPrompt renders the SEO report prompt for one video.
func BuildAnalysisPrompt(d *VideoDetails, language string) string {
	lang := LanguageName(language)
	videoURL := WatchURL(d.VideoID)
	channelURL := ChannelURL(d.ChannelID)
	return fmt.Sprintf(analysisPrompt,
		lang,
		metadataBlock(d),
		lang,
		videoURL, videoURL,
		d.Title, d.ChannelTitle,
		d.ChannelTitle, channelURL,
		d.ChannelTitle,
	)
}

// metadataBlock lists every metadata field as a bullet, video first then channel.
func metadataBlock(d *VideoDetails) string {
	var sb strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&sb, "- %s: %s\n", label, value)
	}
	line("Video URL", quote(WatchURL(d.VideoID)))
	line("Original title", quote(d.Title))
	line("Channel name", quote(d.ChannelTitle))
	line("Channel URL", quote(ChannelURL(d.ChannelID)))
	line("Original description", quote(d.Description))
	line("Original tags", joinOrNone(d.Tags))
	line("Views", FormatCount(d.ViewCount))
	line("Likes", FormatCount(d.LikeCount))
	line("Comments", FormatCount(d.CommentCount))
	line("Duration", d.Duration)
	line("Captions", yesNo(d.HasCaptions))
	line("Published", FormatDate(d.VideoPublishedAt))
	line("Video topics (from YouTube)", joinOrNone(d.VideoTopics))
	sb.WriteString("---\n")
	line("Channel subscribers", FormatCount(d.SubscriberCount))
	line("Channel total views", FormatCount(d.ChannelViewCount))
	line("Channel video count", FormatCount(d.ChannelVideoCount))
	line("Channel created", FormatDate(d.ChannelPublishedAt))
	line("Channel country", d.ChannelCountry)
	line("Channel made for kids", yesNo(d.ChannelIsMadeForKids))
	line("Channel keywords", joinOrNone(d.ChannelKeywords))
	line("Channel topics (from YouTube)", joinOrNone(d.ChannelTopics))
	return strings.TrimRight(sb.String(), "\n")
}

// FormatCount groups digits of a numeric string with commas: "1234567" → "1,234,567".
// Non-numeric input is returned unchanged.
func FormatCount(s string) string {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return s
	}
	digits := strconv.FormatUint(n, 10)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// FormatDate renders an RFC 3339 timestamp as DD/MM/YYYY; other input is returned as is.
func FormatDate(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

func quote(s string) string { return `"` + s + `"` }

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
