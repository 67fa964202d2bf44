// Package service coordinates the transcription workflow: the per-video
// pipeline, catalog resolution, and the bounded fan-out batch scheduler.
package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"vidscribe/internal/adapters/bilibili"
	"vidscribe/internal/adapters/youtube"
	"vidscribe/internal/core/domain"
	"vidscribe/internal/core/ports"
	"vidscribe/internal/lang"
	"vidscribe/internal/logging"
	"vidscribe/internal/subtitle"
)

// Orchestrator runs the end-to-end pipeline for one video: metadata,
// official subtitles, speech-to-text fallback, artifact write.
type Orchestrator struct {
	bili  *bilibili.Client
	meta  ports.MetadataProvider
	subs  ports.SubtitleSource
	audio ports.MediaDownloader
	stt   ports.Transcriber
	store ports.TranscriptStore
	log   *logging.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	bili *bilibili.Client,
	meta ports.MetadataProvider,
	subs ports.SubtitleSource,
	audio ports.MediaDownloader,
	stt ports.Transcriber,
	store ports.TranscriptStore,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		bili:  bili,
		meta:  meta,
		subs:  subs,
		audio: audio,
		stt:   stt,
		store: store,
		log:   log,
	}
}

// ProcessVideo processes one job and returns the written artifacts. A
// multi-part Bilibili video yields one result per part.
func (o *Orchestrator) ProcessVideo(ctx context.Context, job domain.Job) ([]domain.ProcessResult, error) {
	switch job.Platform {
	case domain.PlatformBilibili:
		return o.processBilibili(ctx, job)
	case domain.PlatformYouTube:
		return o.processYouTube(ctx, job)
	default:
		return nil, domain.UnsupportedErrorf("unrecognized platform for %q", job.URL)
	}
}

func (o *Orchestrator) processBilibili(ctx context.Context, job domain.Job) ([]domain.ProcessResult, error) {
	bvid, err := bilibili.ExtractBVID(job.URL)
	if err != nil {
		return nil, err
	}
	view, err := o.bili.FetchView(ctx, bvid)
	if err != nil {
		return nil, err
	}

	uploader := view.Owner.Name
	if uploader == "" {
		uploader = "unknown_creator"
	}
	uploadDate := epochToDate(view.PubDate)
	baseDuration := subtitle.FormatTimestamp(float64(view.Duration))

	preferEnglish := lang.PreferEnglish(
		job.LanguageMode,
		[]string{view.Title, view.Desc, view.Dynamic},
		false,
		audioHintFromTags(view.Tags),
	)

	pages := view.CollectPages()
	if len(pages) == 0 {
		return nil, domain.UnsupportedErrorf("%s has no processable parts", bvid)
	}

	videoTitle := view.Title
	if videoTitle == "" {
		videoTitle = bvid
	}
	baseURL := "https://www.bilibili.com/video/" + bvid

	var results []domain.ProcessResult
	for idx, page := range pages {
		pageNumber := page.Page
		if pageNumber == 0 {
			pageNumber = idx + 1
		}
		videoID := bvid
		fullTitle := videoTitle
		if len(pages) > 1 {
			videoID = fmt.Sprintf("%s-P%02d", bvid, pageNumber)
			part := page.Part
			if part == "" {
				part = fmt.Sprintf("P%d", pageNumber)
			}
			fullTitle = fmt.Sprintf("%s|P%02d %s", videoTitle, pageNumber, part)
		}
		pageURL := fmt.Sprintf("%s?p=%d", baseURL, pageNumber)
		duration := baseDuration
		if page.Duration > 0 {
			duration = subtitle.FormatTimestamp(float64(page.Duration))
		}

		meta := domain.VideoMeta{
			Platform:         domain.PlatformBilibili,
			VideoID:          videoID,
			Title:            fullTitle,
			Uploader:         uploader,
			UploadDate:       uploadDate,
			URL:              pageURL,
			Duration:         duration,
			ProcessedAt:      time.Now().UTC(),
			Language:         "Unknown",
			OriginalLanguage: "Unknown",
		}

		if path, ok := o.store.Exists(meta); ok {
			o.log.Infof("skip (exists): %s", path)
			meta.Source = domain.SourceSkipped
			results = append(results, domain.ProcessResult{Meta: meta, MarkdownPath: path})
			continue
		}

		entry, err := o.bili.FetchSubtitleEntry(ctx, bvid, page.CID, preferEnglish, !preferEnglish)
		if err != nil {
			return nil, err
		}

		var segments []domain.Segment
		if entry != nil {
			segments, err = o.bili.DownloadSubtitle(ctx, entry)
			if err != nil {
				return nil, err
			}
		}

		if len(segments) > 0 {
			o.log.Infof("official subtitle found (%s), skipping transcription: %s", entry.Lan, videoID)
			meta.Source = domain.SourceOfficialSubtitle
			meta.Language = languageName(lang.IsChinese(entry.Lan))
			meta.OriginalLanguage = meta.Language
		} else {
			o.log.Infof("no official subtitle, transcribing audio: %s", videoID)
			segments, err = o.transcribeFallback(ctx, pageURL, videoID, job.ModelName, preferEnglish)
			if err != nil {
				return nil, err
			}
			meta.Source = domain.SourceWhisper
			meta.Language = languageName(!preferEnglish)
			meta.OriginalLanguage = languageName(!preferEnglish)
		}

		if len(segments) == 0 {
			return nil, domain.UnsupportedErrorf("part %d of %s produced no transcript text", pageNumber, bvid)
		}

		result, err := o.writeArtifacts(meta, segments, job.WriteText)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) processYouTube(ctx context.Context, job domain.Job) ([]domain.ProcessResult, error) {
	videoURL := youtube.NormalizeURL(job.URL)
	info, err := o.meta.ExtractInfo(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = "Unknown Channel"
	}
	pageURL := info.WebpageURL
	if pageURL == "" {
		pageURL = videoURL
	}
	title := info.Title
	if title == "" {
		title = info.ID
	}

	meta := domain.VideoMeta{
		Platform:         domain.PlatformYouTube,
		VideoID:          info.ID,
		Title:            title,
		Uploader:         uploader,
		UploadDate:       info.UploadDate,
		URL:              pageURL,
		Duration:         subtitle.FormatTimestamp(info.DurationSec),
		ProcessedAt:      time.Now().UTC(),
		Language:         "Unknown",
		OriginalLanguage: info.Language,
		Tags:             info.Tags,
	}
	if meta.OriginalLanguage == "" {
		meta.OriginalLanguage = "unknown"
	}

	if path, ok := o.store.Exists(meta); ok {
		o.log.Infof("skip (exists): %s", path)
		meta.Source = domain.SourceSkipped
		return []domain.ProcessResult{{Meta: meta, MarkdownPath: path}}, nil
	}

	preferEnglish := lang.PreferEnglish(
		job.LanguageMode,
		[]string{info.Title, info.Description},
		lang.IsEnglish(info.Language),
		info.AudioLanguage,
	)

	segments, subLang, err := o.subs.FetchSubtitles(ctx, videoURL, preferEnglish)
	if err != nil {
		o.log.Warnf("subtitle download failed, falling back to transcription: %v", err)
		segments = nil
	}

	if len(segments) > 0 {
		o.log.Infof("official subtitle found (%s), skipping transcription: %s", subLang, info.ID)
		meta.Source = domain.SourceOfficialSubtitle
		meta.Language = languageName(lang.IsChinese(subLang))
	} else {
		o.log.Infof("no official subtitle, transcribing audio: %s", info.ID)
		segments, err = o.transcribeFallback(ctx, videoURL, info.ID, job.ModelName, preferEnglish)
		if err != nil {
			return nil, err
		}
		meta.Source = domain.SourceWhisper
		meta.Language = languageName(!preferEnglish)
	}
	if preferEnglish {
		meta.OriginalLanguage = "English"
	}

	if len(segments) == 0 {
		return nil, domain.UnsupportedErrorf("%s produced no transcript text", info.ID)
	}

	result, err := o.writeArtifacts(meta, segments, job.WriteText)
	if err != nil {
		return nil, err
	}
	return []domain.ProcessResult{result}, nil
}

// transcribeFallback downloads the audio track to a temp dir, runs
// speech-to-text over it, and removes the audio afterwards.
func (o *Orchestrator) transcribeFallback(ctx context.Context, videoURL, videoID, modelName string, preferEnglish bool) ([]domain.Segment, error) {
	tmpDir, err := os.MkdirTemp("", "vidscribe-audio-")
	if err != nil {
		return nil, domain.LocalIOErrorf("creating audio temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath, err := o.audio.DownloadAudio(ctx, videoURL, tmpDir, videoID)
	if err != nil {
		return nil, err
	}

	hint := "zh"
	if preferEnglish {
		hint = "en"
	}
	return o.stt.Transcribe(ctx, audioPath, modelName, hint)
}

func (o *Orchestrator) writeArtifacts(meta domain.VideoMeta, segments []domain.Segment, writeText bool) (domain.ProcessResult, error) {
	mdPath, err := o.store.WriteTranscript(meta, segments)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	result := domain.ProcessResult{Meta: meta, MarkdownPath: mdPath}
	if writeText {
		txtPath, err := o.store.WritePlainText(meta, segments)
		if err != nil {
			return domain.ProcessResult{}, err
		}
		result.TextPath = txtPath
	}
	return result, nil
}

// VideoRunner adapts the Orchestrator to the scheduler's JobRunner
// capability: every invocation terminates with an Outcome.
type VideoRunner struct {
	orc *Orchestrator
}

// NewVideoRunner creates a VideoRunner.
func NewVideoRunner(orc *Orchestrator) *VideoRunner {
	return &VideoRunner{orc: orc}
}

// Run processes one job and converts any failure into the outcome instead
// of propagating it.
func (r *VideoRunner) Run(ctx context.Context, job domain.Job) domain.Outcome {
	results, err := r.orc.ProcessVideo(ctx, job)
	if err != nil {
		return domain.Outcome{
			Job:     job,
			Status:  domain.StatusFailed,
			Kind:    domain.ClassifyFailure(err),
			Message: err.Error(),
		}
	}

	status := domain.StatusSucceeded
	if len(results) > 0 {
		allSkipped := true
		for _, res := range results {
			if res.Meta.Source != domain.SourceSkipped {
				allSkipped = false
				break
			}
		}
		if allSkipped {
			status = domain.StatusSkipped
		}
	}
	return domain.Outcome{Job: job, Status: status, Results: results}
}

func epochToDate(epoch int64) string {
	if epoch == 0 {
		return "unknown"
	}
	return time.Unix(epoch, 0).UTC().Format("2006-01-02")
}

func languageName(chinese bool) string {
	if chinese {
		return "Chinese"
	}
	return "English"
}

// audioHintFromTags infers the audio language from uploader tags.
func audioHintFromTags(tags []string) string {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if strings.Contains(lower, "english") || strings.Contains(tag, "英语") {
			return "en"
		}
		if strings.Contains(tag, "中文") || strings.Contains(lower, "chinese") {
			return "zh"
		}
	}
	return ""
}
