// Package youtube adapts yt-dlp (via go-ytdlp) for metadata extraction,
// subtitle download, audio download, and channel catalog listing. The
// audio path also works for Bilibili URLs, which yt-dlp supports natively.
package youtube

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"vidscribe/internal/core/domain"
	"vidscribe/internal/lang"
	"vidscribe/internal/subtitle"
)

// Client wraps yt-dlp invocations. The zero value works; CookieFile is
// optional and only consulted if the file exists.
type Client struct {
	CookieFile string
}

// NewClient creates a Client. cookieFile may be empty.
func NewClient(cookieFile string) *Client {
	return &Client{CookieFile: cookieFile}
}

// NormalizeURL turns a bare video id into a watch URL.
func NormalizeURL(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if strings.HasPrefix(trimmed, "http") {
		return trimmed
	}
	return "https://www.youtube.com/watch?v=" + trimmed
}

type videoInfoJSON struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Uploader         string   `json:"uploader"`
	Channel          string   `json:"channel"`
	UploadDate       string   `json:"upload_date"`
	Description      string   `json:"description"`
	WebpageURL       string   `json:"webpage_url"`
	Duration         float64  `json:"duration"`
	Language         string   `json:"language"`
	OriginalLanguage string   `json:"original_language"`
	AudioLanguage    string   `json:"audio_language"`
	Tags             []string `json:"tags"`
}

// ExtractInfo fetches video metadata without downloading anything.
func (c *Client) ExtractInfo(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	cmd := c.base().
		SkipDownload().
		NoPlaylist().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, videoURL)
	if err != nil {
		return nil, domain.NetworkErrorf("extracting video info: %w", err)
	}

	var info videoInfoJSON
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, domain.NetworkErrorf("decoding video info: %w", err)
	}
	if info.ID == "" {
		return nil, domain.UnsupportedErrorf("no video info returned for %s", videoURL)
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}
	language := info.Language
	if language == "" {
		language = info.OriginalLanguage
	}
	audioLang := info.AudioLanguage
	if audioLang == "" {
		audioLang = language
	}

	return &domain.VideoInfo{
		ID:            info.ID,
		Title:         info.Title,
		Uploader:      uploader,
		UploadDate:    formatUploadDate(info.UploadDate),
		Description:   info.Description,
		WebpageURL:    info.WebpageURL,
		DurationSec:   info.Duration,
		Language:      language,
		AudioLanguage: audioLang,
		Tags:          info.Tags,
	}, nil
}

// FetchSubtitles downloads official or auto-generated subtitles into a
// temp directory and returns the parsed segments of the best-matching
// language. A video with no subtitles returns (nil, "", nil).
func (c *Client) FetchSubtitles(ctx context.Context, videoURL string, preferEnglish bool) ([]domain.Segment, string, error) {
	tmpDir, err := os.MkdirTemp("", "vidscribe-subs-")
	if err != nil {
		return nil, "", domain.LocalIOErrorf("creating subtitle temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	requested := lang.SubtitleLangOrder(preferEnglish, true)
	cmd := c.base().
		SkipDownload().
		NoPlaylist().
		WriteSubs().
		WriteAutoSubs().
		SubFormat("vtt").
		SubLangs(strings.Join(requested, ",")).
		Output(filepath.Join(tmpDir, "%(id)s"))

	// yt-dlp exits non-zero when some requested languages are missing;
	// any track that did land in the temp dir is still usable.
	_, _ = cmd.Run(ctx, videoURL)

	files, err := filepath.Glob(filepath.Join(tmpDir, "*.vtt"))
	if err != nil || len(files) == 0 {
		return nil, "", nil
	}

	// Filenames are <id>.<lang>.vtt.
	byLang := make(map[string]string, len(files))
	for _, file := range files {
		parts := strings.Split(filepath.Base(file), ".")
		if len(parts) < 3 {
			continue
		}
		byLang[strings.ToLower(parts[len(parts)-2])] = file
	}

	order := lang.SubtitleLangOrder(preferEnglish, !preferEnglish)
	for _, want := range order {
		file, ok := byLang[strings.ToLower(want)]
		if !ok {
			continue
		}
		raw, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		segments := subtitle.Parse(string(raw))
		if len(segments) > 0 {
			return segments, want, nil
		}
	}
	return nil, "", nil
}

// DownloadAudio fetches the best audio stream into dir using baseName and
// returns the downloaded file path.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, dir, baseName string) (string, error) {
	cmd := c.base().
		NoPlaylist().
		Format("bestaudio/best").
		Output(filepath.Join(dir, baseName+".%(ext)s"))

	if _, err := cmd.Run(ctx, videoURL); err != nil {
		return "", domain.NetworkErrorf("downloading audio: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, baseName+".*"))
	if err != nil || len(matches) == 0 {
		return "", domain.LocalIOErrorf("audio file missing after download for %s", videoURL)
	}
	return matches[0], nil
}

type flatEntryJSON struct {
	Type       string          `json:"_type"`
	ID         string          `json:"id"`
	URL        string          `json:"url"`
	WebpageURL string          `json:"webpage_url"`
	Entries    []flatEntryJSON `json:"entries"`
}

// ListVideos resolves a channel or playlist page into its video URLs plus
// the page title, walking nested playlists (YouTube channel tabs).
func (c *Client) ListVideos(ctx context.Context, catalogURL string) ([]string, string, error) {
	cmd := c.base().
		SkipDownload().
		FlatPlaylist().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, catalogURL)
	if err != nil {
		return nil, "", domain.NetworkErrorf("listing catalog %s: %w", catalogURL, err)
	}

	var root struct {
		Title      string          `json:"title"`
		WebpageURL string          `json:"webpage_url"`
		Entries    []flatEntryJSON `json:"entries"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &root); err != nil {
		return nil, "", domain.NetworkErrorf("decoding catalog listing: %w", err)
	}

	platform := domain.DetectPlatform(catalogURL)
	var urls []string
	var walk func(entries []flatEntryJSON)
	walk = func(entries []flatEntryJSON) {
		for _, entry := range entries {
			if entry.Type == "playlist" {
				walk(entry.Entries)
				continue
			}
			u := entry.WebpageURL
			if u == "" {
				u = entry.URL
			}
			if u == "" {
				u = entry.ID
			}
			if u == "" {
				continue
			}
			if !strings.HasPrefix(u, "http") {
				if platform == domain.PlatformBilibili {
					u = "https://www.bilibili.com/video/" + u
				} else {
					u = "https://www.youtube.com/watch?v=" + u
				}
			}
			urls = append(urls, u)
		}
	}
	walk(root.Entries)

	if len(urls) == 0 && root.WebpageURL != "" {
		urls = append(urls, root.WebpageURL)
	}

	return dedupe(urls), root.Title, nil
}

func (c *Client) base() *ytdlp.Command {
	cmd := ytdlp.New().Quiet().NoWarnings()
	if c.CookieFile != "" {
		if _, err := os.Stat(c.CookieFile); err == nil {
			cmd = cmd.Cookies(c.CookieFile)
		}
	}
	return cmd
}

// formatUploadDate converts yt-dlp's YYYYMMDD form into YYYY-MM-DD.
func formatUploadDate(date string) string {
	if len(date) != 8 {
		return date
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return date
		}
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:]
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
