// Package subtitle parses WebVTT/SRT subtitle text into transcript
// segments and provides the timestamp helpers shared by the pipelines.
package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"vidscribe/internal/core/domain"
)

var (
	timecodeRe   = regexp.MustCompile(`(?P<start>\d{1,2}:\d{2}:\d{2}(?:[.,]\d{3})?)\s*-->\s*(?P<end>\d{1,2}:\d{2}:\d{2}(?:[.,]\d{3})?)`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeText collapses runs of whitespace into single spaces and trims.
func NormalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ParseTimestamp converts "hh:mm:ss.mmm" (or comma milliseconds, or a
// shorter mm:ss form) into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.ReplaceAll(value, ",", ".")
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	nums := make([]float64, 0, 3)
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q: %w", value, err)
		}
		nums = append(nums, n)
	}
	for len(nums) < 3 {
		nums = append([]float64{0}, nums...)
	}
	return nums[0]*3600 + nums[1]*60 + nums[2], nil
}

// FormatTimestamp renders seconds as hh:mm:ss, rounding to whole seconds.
// Negative or NaN input renders as "unknown".
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		return "unknown"
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Parse extracts cue segments from WebVTT or SRT text. Markup tags are
// stripped, cue payload lines are joined with spaces, numeric cue
// identifiers and WEBVTT/NOTE/STYLE/REGION blocks are skipped.
func Parse(text string) []domain.Segment {
	var (
		segments   []domain.Segment
		start, end float64
		inCue      bool
		buffer     []string
	)

	flush := func() {
		if !inCue || len(buffer) == 0 {
			return
		}
		combined := NormalizeText(tagRe.ReplaceAllString(strings.Join(buffer, " "), ""))
		if combined != "" {
			e := end
			if e <= start {
				e = start + 1
			}
			segments = append(segments, domain.Segment{Start: start, End: e, Text: combined})
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)
		if line == "" || strings.HasPrefix(upper, "WEBVTT") || strings.HasPrefix(upper, "NOTE") ||
			strings.HasPrefix(upper, "STYLE") || strings.HasPrefix(upper, "REGION") {
			flush()
			inCue = false
			buffer = buffer[:0]
			continue
		}

		if m := timecodeRe.FindStringSubmatch(line); m != nil {
			flush()
			s, err1 := ParseTimestamp(m[1])
			e, err2 := ParseTimestamp(m[2])
			if err1 != nil || err2 != nil {
				inCue = false
				buffer = buffer[:0]
				continue
			}
			start, end = s, e
			inCue = true
			buffer = buffer[:0]
			continue
		}

		if isDigits(line) {
			continue
		}
		buffer = append(buffer, line)
	}
	flush()

	return segments
}

// PlainText joins segment texts with newlines, dropping empty segments.
func PlainText(segments []domain.Segment) string {
	var lines []string
	for _, seg := range segments {
		if seg.Text != "" {
			lines = append(lines, seg.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
