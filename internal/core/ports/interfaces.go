package ports

import (
	"context"

	"vidscribe/internal/core/domain"
)

// MetadataProvider resolves a video reference into its descriptive
// metadata without downloading any media.
type MetadataProvider interface {
	ExtractInfo(ctx context.Context, videoURL string) (*domain.VideoInfo, error)
}

// SubtitleSource fetches officially published subtitles for one video.
type SubtitleSource interface {
	// FetchSubtitles returns the subtitle segments and the subtitle
	// language, or (nil, "", nil) when the video has no usable subtitle
	// track. preferEnglish flips the language preference order.
	FetchSubtitles(ctx context.Context, videoURL string, preferEnglish bool) ([]domain.Segment, string, error)
}

// MediaDownloader fetches the audio track of a video to local disk for
// transcription.
type MediaDownloader interface {
	// DownloadAudio writes the best audio stream under dir using baseName
	// and returns the path of the downloaded file. The caller removes the
	// file when done.
	DownloadAudio(ctx context.Context, videoURL, dir, baseName string) (string, error)
}

// Transcriber converts an audio file into timestamped text segments.
type Transcriber interface {
	// Transcribe runs speech-to-text over audioPath. langHint is an ISO
	// 639-1 code ("zh", "en") or empty for auto-detection.
	Transcribe(ctx context.Context, audioPath, modelName, langHint string) ([]domain.Segment, error)
}

// TranscriptStore persists transcript artifacts.
type TranscriptStore interface {
	// Exists reports whether the artifact for meta has already been
	// written, and its path.
	Exists(meta domain.VideoMeta) (string, bool)

	// WriteTranscript renders and writes the Markdown artifact, returning
	// its path. Writing is idempotent: an existing artifact is left
	// untouched.
	WriteTranscript(meta domain.VideoMeta, segments []domain.Segment) (string, error)

	// WritePlainText writes the no-timestamp sidecar next to the Markdown
	// artifact.
	WritePlainText(meta domain.VideoMeta, segments []domain.Segment) (string, error)
}

// CatalogLister resolves a creator page or collection reference into the
// ordered list of video URLs it contains.
type CatalogLister interface {
	ListVideos(ctx context.Context, catalogURL string) ([]string, string, error)
}

// JobRunner is the capability the fan-out scheduler is polymorphic over:
// process exactly one job and always terminate with an outcome.
type JobRunner interface {
	Run(ctx context.Context, job domain.Job) domain.Outcome
}

// JobRunnerFunc adapts a function to the JobRunner interface.
type JobRunnerFunc func(ctx context.Context, job domain.Job) domain.Outcome

// Run calls f.
func (f JobRunnerFunc) Run(ctx context.Context, job domain.Job) domain.Outcome {
	return f(ctx, job)
}
