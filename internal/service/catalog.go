package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidscribe/internal/adapters/bilibili"
	"vidscribe/internal/core/domain"
	"vidscribe/internal/core/ports"
	"vidscribe/internal/lang"
	"vidscribe/internal/logging"
)

// Catalog resolves creator pages, favorites folders, series, and seasons
// into flat lists of video URLs.
type Catalog struct {
	bili   *bilibili.Client
	lister ports.CatalogLister
	log    *logging.Logger
}

// NewCatalog creates a Catalog.
func NewCatalog(bili *bilibili.Client, lister ports.CatalogLister, log *logging.Logger) *Catalog {
	return &Catalog{bili: bili, lister: lister, log: log}
}

// Resolve expands a catalog reference into video URLs plus a display name.
// limit <= 0 means no cap.
func (c *Catalog) Resolve(ctx context.Context, catalogURL string, limit int) ([]string, string, error) {
	platform := domain.DetectPlatform(catalogURL)

	var (
		urls  []string
		title string
		err   error
	)
	switch platform {
	case domain.PlatformBilibili:
		urls, title, err = c.resolveBilibili(ctx, catalogURL)
	case domain.PlatformYouTube:
		urls, title, err = c.lister.ListVideos(ctx, catalogURL)
	default:
		return nil, "", domain.UnsupportedErrorf("unrecognized catalog URL %q", catalogURL)
	}
	if err != nil {
		return nil, "", err
	}
	if len(urls) == 0 {
		return nil, "", domain.UnsupportedErrorf("no videos found at %s", catalogURL)
	}

	if limit > 0 && len(urls) > limit {
		c.log.Infof("limiting %d videos to the latest %d", len(urls), limit)
		urls = urls[:limit]
	}
	return urls, title, nil
}

func (c *Catalog) resolveBilibili(ctx context.Context, catalogURL string) ([]string, string, error) {
	if ref := bilibili.DetectCollection(catalogURL); ref != nil {
		return c.resolveCollection(ctx, ref)
	}

	// An uploader space page. The REST listing is preferred; yt-dlp is the
	// fallback when the space API rejects the request.
	mid, err := c.bili.ResolveMid(ctx, catalogURL)
	if err == nil {
		urls, err := c.bili.FetchUploaderVideos(ctx, mid)
		if err == nil && len(urls) > 0 {
			return urls, "uploader " + mid, nil
		}
		if err != nil {
			c.log.Warnf("space listing failed for mid %s, trying yt-dlp: %v", mid, err)
		}
	}
	return c.lister.ListVideos(ctx, catalogURL)
}

func (c *Catalog) resolveCollection(ctx context.Context, ref *bilibili.CollectionRef) ([]string, string, error) {
	switch ref.Kind {
	case bilibili.CollectionFav:
		return c.bili.FetchFavVideos(ctx, ref.ID)
	case bilibili.CollectionSeries:
		return c.bili.FetchSeriesVideos(ctx, ref.ID)
	case bilibili.CollectionSeason:
		return c.bili.FetchSeasonVideos(ctx, ref.ID)
	default:
		return nil, "", domain.UnsupportedErrorf("unknown collection kind %q", ref.Kind)
	}
}

// ExpandVideoCollection returns the URLs of the collection a single video
// belongs to, when the reference carries a collection id or the video is
// part of a ugc season. A standalone video expands to just itself.
func (c *Catalog) ExpandVideoCollection(ctx context.Context, rawRef, videoURL string) ([]string, error) {
	if domain.DetectPlatform(rawRef) != domain.PlatformBilibili {
		return []string{videoURL}, nil
	}

	if ref := bilibili.DetectCollection(rawRef); ref != nil {
		urls, title, err := c.resolveCollection(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.log.Infof("expanded collection %q into %d videos", title, len(urls))
		return urls, nil
	}

	bvid, err := bilibili.ExtractBVID(rawRef)
	if err != nil {
		return []string{videoURL}, nil
	}
	if seasonID := c.bili.FetchSeasonID(ctx, bvid); seasonID != "" {
		urls, title, err := c.bili.FetchSeasonVideos(ctx, seasonID)
		if err == nil && len(urls) > 0 {
			c.log.Infof("video belongs to season %q, expanding to %d videos", title, len(urls))
			return urls, nil
		}
	}
	return []string{videoURL}, nil
}

// NewJobs mints one Job per URL, preserving input order.
func NewJobs(urls []string, modelName, languageMode string, writeText bool) []domain.Job {
	jobs := make([]domain.Job, 0, len(urls))
	now := time.Now().UTC()
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		jobs = append(jobs, domain.Job{
			ID:           uuid.New().String(),
			URL:          u,
			Platform:     domain.DetectPlatform(u),
			ModelName:    modelName,
			LanguageMode: lang.NormalizeMode(languageMode),
			WriteText:    writeText,
			CreatedAt:    now,
		})
	}
	return jobs
}
