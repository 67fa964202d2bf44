// Package markdownstore writes transcript artifacts: Markdown files with a
// YAML front matter block, laid out as <root>/<platform>/<uploader>/.
package markdownstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"vidscribe/internal/core/domain"
	"vidscribe/internal/subtitle"
)

// Store persists transcripts under a root directory.
type Store struct {
	Root string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

var (
	unsafeRe     = regexp.MustCompile(`[\\/:*?"<>|]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Slugify makes a string safe for use in a filename. Empty results fall
// back to the given fallback.
func Slugify(value, fallback string) string {
	value = unsafeRe.ReplaceAllString(value, "_")
	value = whitespaceRe.ReplaceAllString(value, "_")
	value = strings.Trim(value, "._")
	if value == "" {
		return fallback
	}
	return value
}

// ArtifactPath returns where the Markdown transcript for meta lives.
func (s *Store) ArtifactPath(meta domain.VideoMeta) string {
	return filepath.Join(s.dir(meta), s.baseName(meta)+".md")
}

// Exists reports whether the transcript for meta has already been written.
func (s *Store) Exists(meta domain.VideoMeta) (string, bool) {
	path := s.ArtifactPath(meta)
	_, err := os.Stat(path)
	return path, err == nil
}

type frontMatter struct {
	Platform         string   `yaml:"platform"`
	VideoID          string   `yaml:"video_id"`
	Title            string   `yaml:"title"`
	Uploader         string   `yaml:"uploader"`
	UploadDate       string   `yaml:"upload_date"`
	Source           string   `yaml:"source"`
	Language         string   `yaml:"language"`
	OriginalLanguage string   `yaml:"original_language"`
	Duration         string   `yaml:"duration"`
	Tags             []string `yaml:"tags"`
	ProcessedAt      string   `yaml:"processed_at"`
}

// WriteTranscript renders and writes the Markdown artifact. If the file
// already exists it is left untouched and its path returned, so re-running
// a batch is idempotent.
func (s *Store) WriteTranscript(meta domain.VideoMeta, segments []domain.Segment) (string, error) {
	path, ok := s.Exists(meta)
	if ok {
		return path, nil
	}
	if err := os.MkdirAll(s.dir(meta), 0o755); err != nil {
		return "", domain.LocalIOErrorf("creating output directory: %w", err)
	}

	fm := frontMatter{
		Platform:         string(meta.Platform),
		VideoID:          meta.VideoID,
		Title:            meta.Title,
		Uploader:         meta.Uploader,
		UploadDate:       meta.UploadDate,
		Source:           meta.Source,
		Language:         meta.Language,
		OriginalLanguage: meta.OriginalLanguage,
		Duration:         meta.Duration,
		Tags:             meta.Tags,
		ProcessedAt:      meta.ProcessedAt.Format("2006-01-02"),
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", domain.InternalErrorf("marshaling front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmBytes)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", meta.Title)
	b.WriteString("## Metadata\n\n")
	fmt.Fprintf(&b, "- Platform: %s\n", meta.Platform)
	fmt.Fprintf(&b, "- URL: %s\n", meta.URL)
	fmt.Fprintf(&b, "- Video ID: %s\n", meta.VideoID)
	fmt.Fprintf(&b, "- Uploader: %s\n", meta.Uploader)
	fmt.Fprintf(&b, "- Upload date: %s\n", meta.UploadDate)
	fmt.Fprintf(&b, "- Transcript source: %s\n", meta.Source)
	fmt.Fprintf(&b, "- Processed at: %s\n", fm.ProcessedAt)
	fmt.Fprintf(&b, "- Duration: %s\n", meta.Duration)
	b.WriteString("\n---\n\n")
	b.WriteString("## Summary\n\n(left blank for later annotation)\n\n---\n\n")
	b.WriteString("## Transcript\n\n")

	for _, seg := range sortedByStart(segments) {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "### [%s → %s]\n%s\n\n",
			subtitle.FormatTimestamp(seg.Start), subtitle.FormatTimestamp(seg.End), text)
	}

	content := strings.TrimRight(b.String(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", domain.LocalIOErrorf("writing transcript: %w", err)
	}
	return path, nil
}

// WritePlainText writes the timestamp-free sidecar next to the Markdown
// artifact.
func (s *Store) WritePlainText(meta domain.VideoMeta, segments []domain.Segment) (string, error) {
	if err := os.MkdirAll(s.dir(meta), 0o755); err != nil {
		return "", domain.LocalIOErrorf("creating output directory: %w", err)
	}
	path := filepath.Join(s.dir(meta), s.baseName(meta)+".txt")
	content := subtitle.PlainText(segments)
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", domain.LocalIOErrorf("writing plain text: %w", err)
	}
	return path, nil
}

func (s *Store) dir(meta domain.VideoMeta) string {
	uploader := Slugify(meta.Uploader, "unknown_creator")
	return filepath.Join(s.Root, string(meta.Platform), uploader)
}

func (s *Store) baseName(meta domain.VideoMeta) string {
	return meta.VideoID + "_" + Slugify(meta.Title, "video")
}

func sortedByStart(segments []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
