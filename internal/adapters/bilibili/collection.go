package bilibili

import (
	"net/url"
	"regexp"
)

// CollectionKind distinguishes the three catalog container types Bilibili
// exposes.
type CollectionKind string

const (
	CollectionFav    CollectionKind = "fav"
	CollectionSeries CollectionKind = "series"
	CollectionSeason CollectionKind = "ugc_season"
)

// CollectionRef identifies one favorites folder, series, or ugc season.
type CollectionRef struct {
	Kind CollectionKind
	ID   string
}

var (
	favListRe    = regexp.MustCompile(`/list/ml(\d+)`)
	seriesListRe = regexp.MustCompile(`/list/series/(\d+)`)

	favQueryKeys    = []string{"fid", "media_id", "mlid"}
	seasonQueryKeys = []string{"collection_id", "sid", "season_id", "playlist_id"}
)

// DetectCollection recognizes favorites-folder, series, and ugc-season
// references in a URL. It returns nil when the URL is a plain video or
// uploader link.
func DetectCollection(rawURL string) *CollectionRef {
	if rawURL == "" {
		return nil
	}
	if m := favListRe.FindStringSubmatch(rawURL); m != nil {
		return &CollectionRef{Kind: CollectionFav, ID: m[1]}
	}
	if m := seriesListRe.FindStringSubmatch(rawURL); m != nil {
		return &CollectionRef{Kind: CollectionSeries, ID: m[1]}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	qs := parsed.Query()
	for _, key := range favQueryKeys {
		if v := qs.Get(key); v != "" {
			return &CollectionRef{Kind: CollectionFav, ID: v}
		}
	}
	if v := qs.Get("series_id"); v != "" {
		return &CollectionRef{Kind: CollectionSeries, ID: v}
	}
	for _, key := range seasonQueryKeys {
		if v := qs.Get(key); v != "" {
			return &CollectionRef{Kind: CollectionSeason, ID: v}
		}
	}
	return nil
}
