package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// NormLang normalises a report language field: empty string → DefaultReportLanguage.
func NormLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return DefaultReportLanguage
	}
	return lang
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Vietnamese, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// ParseKeyList splits pasted key text on newlines, commas and whitespace,
// trimming each entry and dropping blanks. Order is preserved.
func ParseKeyList(text string) []string {
	return CleanKeys(strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ',' || r == ' ' || r == '\t'
	}))
}

// CleanKeys trims every key and drops empty ones.
func CleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
