package domain

import (
	"regexp"
	"strings"
)

// Platform identifies the video site a reference belongs to.
type Platform string

const (
	PlatformBilibili Platform = "bilibili"
	PlatformYouTube  Platform = "youtube"
	PlatformUnknown  Platform = ""
)

var bvidRe = regexp.MustCompile(`(?i)bv[0-9a-z]+`)

// DetectPlatform guesses the platform from a URL or a bare video reference
// (a BV number counts as Bilibili, a watch URL or youtu.be link as YouTube).
func DetectPlatform(ref string) Platform {
	lowered := strings.ToLower(ref)
	if strings.Contains(lowered, "bilibili.com") || strings.Contains(lowered, "b23.tv") || bvidRe.MatchString(ref) {
		return PlatformBilibili
	}
	if strings.Contains(lowered, "youtube.com") || strings.Contains(lowered, "youtu.be") {
		return PlatformYouTube
	}
	return PlatformUnknown
}
