// Package lang holds the language heuristics used to pick between Chinese
// and English subtitle tracks and transcription hints.
package lang

import "strings"

// Output language modes.
const (
	ModeAuto = "auto"
	ModeZH   = "zh"
	ModeEN   = "en"
)

// Subtitle language preference orders. Chinese tracks are tried first in
// the default mode, English tracks first when English is preferred.
var (
	PreferredLangs = []string{"zh-Hans", "zh", "zh-Hant", "yue"}
	EnglishLangs   = []string{"en", "en-us", "en-gb"}
)

// NormalizeMode maps arbitrary input onto one of the supported modes,
// defaulting to auto.
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeZH:
		return ModeZH
	case ModeEN:
		return ModeEN
	default:
		return ModeAuto
	}
}

// IsChinese reports whether a language code or name denotes Chinese.
func IsChinese(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "zh") ||
		strings.HasPrefix(lower, "chinese") ||
		strings.HasPrefix(lower, "yue")
}

// IsEnglish reports whether a language code or name denotes English.
func IsEnglish(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "en") || strings.Contains(lower, "english")
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

// ContainsChinese reports whether text contains any CJK ideograph.
func ContainsChinese(text string) bool {
	for _, r := range text {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// LooksLikeEnglish applies an ASCII-letter ratio check: at least 60% of
// the letters must be ASCII and CJK letters must stay below half the ASCII
// count.
func LooksLikeEnglish(text string) bool {
	if text == "" {
		return false
	}
	var ascii, cjk int
	for _, r := range text {
		switch {
		case r < 128 && ((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')):
			ascii++
		case isCJK(r):
			cjk++
		}
	}
	if ascii == 0 {
		return false
	}
	total := ascii + cjk
	if total == 0 {
		total = len(text)
	}
	return float64(ascii)/float64(total) >= 0.6 && cjk < ascii/2
}

// PreferEnglish decides whether English output should be preferred.
// Priority: explicit mode, then the audio-language hint, then analysis of
// the given texts (title, description), then fallback.
func PreferEnglish(mode string, texts []string, fallback bool, audioLanguage string) bool {
	switch NormalizeMode(mode) {
	case ModeEN:
		return true
	case ModeZH:
		return false
	}

	if audioLanguage != "" {
		if IsEnglish(audioLanguage) {
			return true
		}
		if IsChinese(audioLanguage) {
			return false
		}
	}

	for _, text := range texts {
		if LooksLikeEnglish(text) {
			return true
		}
	}
	return fallback
}

// SubtitleLangOrder returns the language codes to try, most preferred
// first. When English is preferred and fallback is disallowed, only the
// English codes are returned.
func SubtitleLangOrder(preferEnglish, allowFallback bool) []string {
	if preferEnglish {
		if allowFallback {
			return dedupe(append(append([]string{}, EnglishLangs...), PreferredLangs...))
		}
		return append([]string{}, EnglishLangs...)
	}
	return dedupe(append(append([]string{}, PreferredLangs...), EnglishLangs...))
}

func dedupe(langs []string) []string {
	seen := make(map[string]struct{}, len(langs))
	out := langs[:0]
	for _, l := range langs {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
