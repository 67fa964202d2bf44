package domain

import "time"

// Segment is one timestamped slice of transcript text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// VideoMeta holds everything the transcript writer needs to know about a
// video. It is assembled once by the platform pipeline and never mutated.
type VideoMeta struct {
	Platform         Platform  `json:"platform"`
	VideoID          string    `json:"video_id"`
	Title            string    `json:"title"`
	Uploader         string    `json:"uploader"`
	UploadDate       string    `json:"upload_date"`
	Source           string    `json:"source"` // official_subtitle, whisper or skipped
	URL              string    `json:"url"`
	Duration         string    `json:"duration"`
	ProcessedAt      time.Time `json:"processed_at"`
	Language         string    `json:"language"`
	OriginalLanguage string    `json:"original_language"`
	Tags             []string  `json:"tags,omitempty"`
}

// VideoInfo is the raw metadata a provider returns for one video before
// the pipeline shapes it into VideoMeta.
type VideoInfo struct {
	ID            string
	Title         string
	Uploader      string
	UploadDate    string
	Description   string
	WebpageURL    string
	DurationSec   float64
	Language      string
	AudioLanguage string
	Tags          []string
}

// Transcript sources.
const (
	SourceOfficialSubtitle = "official_subtitle"
	SourceWhisper          = "whisper"
	SourceSkipped          = "skipped"
)

// ProcessResult is one written transcript artifact. A single job can yield
// several of these (a Bilibili video with multiple pages exports one file
// per page).
type ProcessResult struct {
	Meta         VideoMeta
	MarkdownPath string
	TextPath     string
}

// Job describes one video to process, together with the per-batch
// configuration it was submitted with. Created once per batch item; owned
// by the scheduler until handed to a worker.
type Job struct {
	ID           string
	URL          string
	Platform     Platform
	ModelName    string
	LanguageMode string
	WriteText    bool
	CreatedAt    time.Time
}

// Outcome is the terminal result of exactly one Job. Immutable after the
// worker that produced it returns.
type Outcome struct {
	Job     Job
	Status  JobStatus
	Results []ProcessResult
	Kind    FailureKind
	Message string
}

// ArtifactPath returns the path of the last written transcript, or "" for
// a failed job.
func (o Outcome) ArtifactPath() string {
	if len(o.Results) == 0 {
		return ""
	}
	return o.Results[len(o.Results)-1].MarkdownPath
}

// BatchSummary aggregates the outcomes of one batch invocation. Outcomes
// are kept in input order.
type BatchSummary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
}

// Add folds one outcome into the summary counters.
func (s *BatchSummary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusSucceeded:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Failures returns the failure descriptions, one line per failed job.
func (s *BatchSummary) Failures() []string {
	var out []string
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o.Job.URL+" -> "+o.Message)
		}
	}
	return out
}
