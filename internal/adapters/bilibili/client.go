// Package bilibili is a thin client for the Bilibili web API: video
// metadata, official subtitle tracks, and the paginated catalog endpoints
// (uploader space, favorites folders, series, ugc seasons).
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vidscribe/internal/core/domain"
	"vidscribe/internal/lang"
	"vidscribe/internal/subtitle"
)

const (
	defaultBaseURL = "https://api.bilibili.com"
	defaultWWWURL  = "https://www.bilibili.com"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// Pagination guards: the space API serves 50 items per page, so 200
	// pages covers 10k videos before we bail out.
	maxCatalogPages = 200
)

var (
	bvidRe     = regexp.MustCompile(`(?i)(BV[0-9A-Za-z]+)`)
	spaceMidRe = regexp.MustCompile(`space\.bilibili\.com/(\d+)`)
	pageMidRe  = regexp.MustCompile(`"mid"\s*:\s*(\d+)`)
)

// Client talks to the Bilibili web API.
type Client struct {
	baseURL string
	wwwURL  string
	cookie  string
	client  *http.Client
}

// NewClient creates a Client against the public API hosts.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		wwwURL:  defaultWWWURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBaseURL creates a Client against a custom host, used by
// tests to point at a local server.
func NewClientWithBaseURL(base string) *Client {
	c := NewClient()
	c.baseURL = base
	c.wwwURL = base
	return c
}

// LoadCookies reads a Netscape-format cookie export and sends its pairs
// with every request. Some catalog endpoints reject anonymous callers. A
// missing or unreadable file is ignored.
func (c *Client) LoadCookies(path string) {
	if path == "" {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var pairs []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		pairs = append(pairs, fields[5]+"="+fields[6])
	}
	c.cookie = strings.Join(pairs, "; ")
}

// ExtractBVID pulls the BV identifier out of a URL or bare reference.
func ExtractBVID(value string) (string, error) {
	m := bvidRe.FindStringSubmatch(value)
	if m == nil {
		return "", domain.UnsupportedErrorf("no BV id found in %q", value)
	}
	return m[1], nil
}

// Page is one part (分P) of a multi-part video.
type Page struct {
	CID      int64  `json:"cid"`
	Page     int    `json:"page"`
	Part     string `json:"part"`
	Duration int64  `json:"duration"`
}

// View is the subset of the view API response the pipelines use.
type View struct {
	BVID     string `json:"bvid"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Dynamic  string `json:"dynamic"`
	PubDate  int64  `json:"pubdate"`
	Duration int64  `json:"duration"`
	CID      int64  `json:"cid"`
	Owner    struct {
		Name string `json:"name"`
	} `json:"owner"`
	Pages []Page   `json:"pages"`
	Tags  []string `json:"tags"`
}

// CollectPages returns the video's parts, synthesizing a single page from
// the top-level cid when the pages array is empty.
func (v *View) CollectPages() []Page {
	if len(v.Pages) > 0 {
		return v.Pages
	}
	if v.CID == 0 {
		return nil
	}
	return []Page{{CID: v.CID, Page: 1, Part: v.Title, Duration: v.Duration}}
}

// FetchView fetches video metadata for a BV id.
func (c *Client) FetchView(ctx context.Context, bvid string) (*View, error) {
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    *View  `json:"data"`
	}
	params := url.Values{"bvid": {bvid}}
	if err := c.getJSON(ctx, "/x/web-interface/view", params, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.NetworkErrorf("view API returned no data for %s (code %d: %s)", bvid, resp.Code, resp.Message)
	}
	return resp.Data, nil
}

// SubtitleEntry is one officially published subtitle track.
type SubtitleEntry struct {
	Lan         string `json:"lan"`
	LanDoc      string `json:"lan_doc"`
	SubtitleURL string `json:"subtitle_url"`
}

// FetchSubtitleEntry lists the subtitle tracks for one page and picks the
// best match by language preference. It returns nil when the page has no
// usable track (not an error: the caller falls back to transcription).
func (c *Client) FetchSubtitleEntry(ctx context.Context, bvid string, cid int64, preferEnglish, allowFallback bool) (*SubtitleEntry, error) {
	var resp struct {
		Data struct {
			Subtitle struct {
				Subtitles []SubtitleEntry `json:"subtitles"`
			} `json:"subtitle"`
		} `json:"data"`
	}
	params := url.Values{"bvid": {bvid}, "cid": {strconv.FormatInt(cid, 10)}}
	if err := c.getJSON(ctx, "/x/player/v2", params, &resp); err != nil {
		return nil, err
	}
	subtitles := resp.Data.Subtitle.Subtitles
	if len(subtitles) == 0 {
		return nil, nil
	}

	for _, want := range lang.SubtitleLangOrder(preferEnglish, false) {
		for i := range subtitles {
			if strings.EqualFold(subtitles[i].Lan, want) {
				return &subtitles[i], nil
			}
		}
	}
	if allowFallback {
		return &subtitles[0], nil
	}
	return nil, nil
}

// DownloadSubtitle fetches the subtitle body of an entry and converts it
// into transcript segments.
func (c *Client) DownloadSubtitle(ctx context.Context, entry *SubtitleEntry) ([]domain.Segment, error) {
	u := entry.SubtitleURL
	if u == "" {
		return nil, nil
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}

	body, err := c.getBody(ctx, u)
	if err != nil {
		return nil, domain.NetworkErrorf("downloading subtitle: %w", err)
	}

	var payload struct {
		Body []struct {
			From    float64 `json:"from"`
			To      float64 `json:"to"`
			Content string  `json:"content"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NetworkErrorf("decoding subtitle body: %w", err)
	}

	var segments []domain.Segment
	for _, item := range payload.Body {
		text := subtitle.NormalizeText(item.Content)
		if text == "" {
			continue
		}
		end := item.To
		if end < item.From {
			end = item.From
		}
		segments = append(segments, domain.Segment{Start: item.From, End: end, Text: text})
	}
	return segments, nil
}

// ResolveMid resolves an uploader id from a space URL, a bare numeric id,
// or by scraping the page for the embedded mid.
func (c *Client) ResolveMid(ctx context.Context, ref string) (string, error) {
	if m := spaceMidRe.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if isDigits(ref) {
		return ref, nil
	}
	body, err := c.getBody(ctx, ref)
	if err != nil {
		return "", domain.NetworkErrorf("resolving uploader id: %w", err)
	}
	if m := pageMidRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", domain.UnsupportedErrorf("no uploader id found at %s", ref)
}

// FetchUploaderVideos pages through the space archive API and returns the
// uploader's video URLs, newest first.
func (c *Client) FetchUploaderVideos(ctx context.Context, mid string) ([]string, error) {
	var urls []string
	const ps = 50
	for pn := 1; pn <= maxCatalogPages; pn++ {
		var resp struct {
			Data struct {
				List struct {
					VList []struct {
						BVID string `json:"bvid"`
					} `json:"vlist"`
				} `json:"list"`
				Page struct {
					Count int `json:"count"`
				} `json:"page"`
			} `json:"data"`
		}
		params := url.Values{
			"mid":   {mid},
			"ps":    {strconv.Itoa(ps)},
			"tid":   {"0"},
			"pn":    {strconv.Itoa(pn)},
			"order": {"pubdate"},
			"jsonp": {"json"},
		}
		if err := c.getJSON(ctx, "/x/space/arc/search", params, &resp); err != nil {
			return nil, err
		}
		if len(resp.Data.List.VList) == 0 {
			break
		}
		for _, item := range resp.Data.List.VList {
			if item.BVID != "" {
				urls = append(urls, videoURL(item.BVID))
			}
		}
		if len(urls) >= resp.Data.Page.Count {
			break
		}
	}
	return urls, nil
}

// FetchFavVideos returns all video URLs of a favorites folder plus the
// folder title.
func (c *Client) FetchFavVideos(ctx context.Context, mediaID string) ([]string, string, error) {
	var urls []string
	title := "fav-" + mediaID
	for pn := 1; pn <= maxCatalogPages; pn++ {
		var resp struct {
			Data struct {
				Info struct {
					Title string `json:"title"`
				} `json:"info"`
				Medias []struct {
					BVID string `json:"bvid"`
				} `json:"medias"`
				HasMore bool `json:"has_more"`
			} `json:"data"`
		}
		params := url.Values{
			"media_id": {mediaID},
			"pn":       {strconv.Itoa(pn)},
			"ps":       {"20"},
			"platform": {"web"},
			"order":    {"mtime"},
		}
		if err := c.getJSON(ctx, "/x/v3/fav/resource/list", params, &resp); err != nil {
			return nil, "", err
		}
		if resp.Data.Info.Title != "" {
			title = resp.Data.Info.Title
		}
		if len(resp.Data.Medias) == 0 {
			break
		}
		for _, item := range resp.Data.Medias {
			if strings.HasPrefix(strings.ToLower(item.BVID), "bv") {
				urls = append(urls, videoURL(item.BVID))
			}
		}
		if !resp.Data.HasMore {
			break
		}
	}
	return urls, title, nil
}

// FetchSeriesVideos returns all video URLs of a series plus its name. The
// archives API needs the owning uploader's mid, which is scraped from the
// series page.
func (c *Client) FetchSeriesVideos(ctx context.Context, seriesID string) ([]string, string, error) {
	mid, err := c.ResolveMid(ctx, c.wwwURL+"/list/series/"+seriesID)
	if err != nil {
		return nil, "", err
	}

	var urls []string
	title := "series-" + seriesID
	const ps = 100
	for pn := 1; pn <= maxCatalogPages; pn++ {
		var resp struct {
			Data struct {
				Meta struct {
					Name string `json:"name"`
				} `json:"meta"`
				Archives []struct {
					BVID string `json:"bvid"`
				} `json:"archives"`
			} `json:"data"`
		}
		params := url.Values{
			"mid":         {mid},
			"series_id":   {seriesID},
			"only_normal": {"true"},
			"pn":          {strconv.Itoa(pn)},
			"ps":          {strconv.Itoa(ps)},
		}
		if err := c.getJSON(ctx, "/x/series/archives", params, &resp); err != nil {
			return nil, "", err
		}
		if resp.Data.Meta.Name != "" {
			title = resp.Data.Meta.Name
		}
		if len(resp.Data.Archives) == 0 {
			break
		}
		for _, a := range resp.Data.Archives {
			if a.BVID != "" {
				urls = append(urls, videoURL(a.BVID))
			}
		}
		if len(resp.Data.Archives) < ps {
			break
		}
	}
	return urls, title, nil
}

// FetchSeasonVideos returns all video URLs of a ugc season plus its title.
func (c *Client) FetchSeasonVideos(ctx context.Context, seasonID string) ([]string, string, error) {
	detail, err := c.fetchViewDetail(ctx, url.Values{"season_id": {seasonID}})
	if err != nil {
		return nil, "", err
	}
	season := detail.View.UgcSeason
	title := season.Title
	if title == "" {
		title = "season-" + seasonID
	}
	var urls []string
	for _, section := range season.Sections {
		for _, ep := range section.Episodes {
			if ep.BVID != "" {
				urls = append(urls, videoURL(ep.BVID))
			}
		}
	}
	if len(urls) == 0 {
		return nil, "", domain.UnsupportedErrorf("season %s contains no videos", seasonID)
	}
	return urls, title, nil
}

// FetchSeasonID returns the ugc season a video belongs to, or "" when it
// is not part of one.
func (c *Client) FetchSeasonID(ctx context.Context, bvid string) string {
	detail, err := c.fetchViewDetail(ctx, url.Values{"bvid": {bvid}})
	if err != nil {
		return ""
	}
	if detail.View.UgcSeason.ID != 0 {
		return strconv.FormatInt(detail.View.UgcSeason.ID, 10)
	}
	return ""
}

type viewDetail struct {
	View struct {
		UgcSeason struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Sections []struct {
				Episodes []struct {
					BVID string `json:"bvid"`
				} `json:"episodes"`
			} `json:"sections"`
		} `json:"ugc_season"`
	} `json:"View"`
}

func (c *Client) fetchViewDetail(ctx context.Context, params url.Values) (*viewDetail, error) {
	var resp struct {
		Data viewDetail `json:"data"`
	}
	if err := c.getJSON(ctx, "/x/web-interface/view/detail", params, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	body, err := c.getBody(ctx, u)
	if err != nil {
		return domain.NetworkErrorf("bilibili API %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NetworkErrorf("decoding bilibili API %s: %w", path, err)
	}
	return nil
}

func (c *Client) getBody(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func videoURL(bvid string) string {
	return "https://www.bilibili.com/video/" + bvid
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
