// Package whisper runs the local whisper CLI to transcribe audio files.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vidscribe/internal/core/domain"
	"vidscribe/internal/subtitle"
)

// Transcriber invokes the whisper binary and parses its JSON output.
type Transcriber struct {
	binaryPath string
}

// NewTranscriber creates a Transcriber for the given binary. An empty path
// falls back to "whisper" on PATH.
func NewTranscriber(binaryPath string) *Transcriber {
	if binaryPath == "" {
		binaryPath = "whisper"
	}
	return &Transcriber{binaryPath: binaryPath}
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs speech-to-text over audioPath with the given model tier
// and optional language hint, returning timestamped segments.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, modelName, langHint string) ([]domain.Segment, error) {
	outDir, err := os.MkdirTemp("", "vidscribe-whisper-")
	if err != nil {
		return nil, domain.LocalIOErrorf("creating whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", modelName,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if langHint != "" {
		args = append(args, "--language", langHint)
	}

	cmd := exec.CommandContext(ctx, t.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, domain.InternalErrorf("whisper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	raw, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, domain.InternalErrorf("whisper produced no output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.InternalErrorf("decoding whisper output: %w", err)
	}

	var segments []domain.Segment
	for _, seg := range out.Segments {
		text := subtitle.NormalizeText(seg.Text)
		if text == "" {
			continue
		}
		end := seg.End
		if end < seg.Start {
			end = seg.Start
		}
		segments = append(segments, domain.Segment{Start: seg.Start, End: end, Text: text})
	}

	if len(segments) == 0 {
		// Some whisper builds emit only the flat text for very short clips.
		text := subtitle.NormalizeText(out.Text)
		if text == "" {
			return nil, domain.UnsupportedErrorf("whisper returned no text for %s", filepath.Base(audioPath))
		}
		segments = append(segments, domain.Segment{Text: text})
	}
	return segments, nil
}
