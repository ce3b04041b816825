package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Pure parsers for YouTube URLs and Data API v3 payload fields.

var (
	youtubeURLRE = regexp.MustCompile(`^(https?://)?(www\.|m\.)?(youtube\.com|youtu\.?be)/.+$`)
	videoIDRE    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|v/|shorts/|live/)|youtu\.?be/)([A-Za-z0-9_-]{11})`)
	durationRE   = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
	keywordRE    = regexp.MustCompile(`"[^"]+"|[^"\s]+`)
)

// IsValidYouTubeURL reports whether raw looks like a YouTube link.
func IsValidYouTubeURL(raw string) bool {
	return youtubeURLRE.MatchString(strings.TrimSpace(raw))
}

// ExtractVideoID pulls the 11-char video ID from any supported YouTube URL format.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if !IsValidYouTubeURL(raw) {
		return "", false
	}
	m := videoIDRE.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// FormatDuration converts an ISO 8601 duration ("PT1H2M3S") to HH:MM:SS,
// or MM:SS when under an hour. Unparsable input yields "00:00".
func FormatDuration(iso string) string {
	m := durationRE.FindStringSubmatch(iso)
	if m == nil {
		return "00:00"
	}
	num := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	h, mnt, s := num(m[1]), num(m[2]), num(m[3])
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%02d:%02d", mnt, s)
}

// ParseChannelKeywords splits the brandingSettings keyword string.
// Double-quoted phrases stay whole with the quotes removed.
func ParseChannelKeywords(raw string) []string {
	matches := keywordRE.FindAllString(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if k := strings.Trim(m, `"`); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ParseTopics turns topicCategories Wikipedia URLs into readable names:
// "https://en.wikipedia.org/wiki/Role-playing_video_game" → "Role-playing video game".
func ParseTopics(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		seg := raw
		if i := strings.LastIndex(raw, "/"); i >= 0 {
			seg = raw[i+1:]
		}
		if dec, err := url.PathUnescape(seg); err == nil {
			seg = dec
		}
		if name := strings.TrimSpace(strings.ReplaceAll(seg, "_", " ")); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ThumbnailURL returns the highest-resolution thumbnail URL for a video.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/" + thumbMaxRes
}
