package bilibili

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBVID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BV1xx411c7mD", "BV1xx411c7mD"},
		{"https://www.bilibili.com/video/BV1xx411c7mD?p=2", "BV1xx411c7mD"},
		{"https://b23.tv/BV1xx411c7mD", "BV1xx411c7mD"},
	}
	for _, tt := range tests {
		got, err := ExtractBVID(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ExtractBVID("https://www.youtube.com/watch?v=abc")
	assert.Error(t, err)
}

func TestCollectPages(t *testing.T) {
	multi := &View{
		Title: "t",
		Pages: []Page{{CID: 1, Page: 1}, {CID: 2, Page: 2}},
	}
	assert.Len(t, multi.CollectPages(), 2)

	single := &View{Title: "t", CID: 99, Duration: 10}
	pages := single.CollectPages()
	require.Len(t, pages, 1)
	assert.Equal(t, int64(99), pages[0].CID)
	assert.Equal(t, "t", pages[0].Part)

	empty := &View{Title: "t"}
	assert.Empty(t, empty.CollectPages())
}

func TestFetchView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/web-interface/view", r.URL.Path)
		require.Equal(t, "BV1test", r.URL.Query().Get("bvid"))
		fmt.Fprint(w, `{"code":0,"data":{"bvid":"BV1test","title":"标题","pubdate":1700000000,"duration":120,"cid":555,"owner":{"name":"up主"}}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	view, err := c.FetchView(context.Background(), "BV1test")
	require.NoError(t, err)
	assert.Equal(t, "标题", view.Title)
	assert.Equal(t, "up主", view.Owner.Name)
	assert.Equal(t, int64(555), view.CID)
}

func TestFetchViewNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-404,"message":"啥都木有"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	_, err := c.FetchView(context.Background(), "BV1gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-404")
}

func TestFetchSubtitleEntryPrefersLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/player/v2", r.URL.Path)
		fmt.Fprint(w, `{"data":{"subtitle":{"subtitles":[
			{"lan":"en","lan_doc":"English","subtitle_url":"//sub/en.json"},
			{"lan":"zh-Hans","lan_doc":"中文","subtitle_url":"//sub/zh.json"}
		]}}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)

	entry, err := c.FetchSubtitleEntry(context.Background(), "BV1test", 555, false, true)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "zh-Hans", entry.Lan)

	entry, err = c.FetchSubtitleEntry(context.Background(), "BV1test", 555, true, false)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "en", entry.Lan)
}

func TestFetchSubtitleEntryFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"subtitle":{"subtitles":[{"lan":"ja","subtitle_url":"//sub/ja.json"}]}}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)

	entry, err := c.FetchSubtitleEntry(context.Background(), "BV1test", 555, false, true)
	require.NoError(t, err)
	require.NotNil(t, entry, "fallback picks the only available track")
	assert.Equal(t, "ja", entry.Lan)

	entry, err = c.FetchSubtitleEntry(context.Background(), "BV1test", 555, false, false)
	require.NoError(t, err)
	assert.Nil(t, entry, "no fallback means no match")
}

func TestDownloadSubtitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"body":[
			{"from":0,"to":2.5,"content":"  第一句  "},
			{"from":2.5,"to":5,"content":"second"},
			{"from":5,"to":6,"content":"   "}
		]}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	segments, err := c.DownloadSubtitle(context.Background(), &SubtitleEntry{Lan: "zh-Hans", SubtitleURL: srv.URL + "/sub.json"})
	require.NoError(t, err)
	require.Len(t, segments, 2, "blank cues are dropped")
	assert.Equal(t, "第一句", segments[0].Text)
	assert.InDelta(t, 2.5, segments[0].End, 1e-9)
}

func TestLoadCookies(t *testing.T) {
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	content := "# Netscape HTTP Cookie File\n" +
		".bilibili.com\tTRUE\t/\tTRUE\t0\tSESSDATA\tsecret\n" +
		".bilibili.com\tTRUE\t/\tFALSE\t0\tbuvid3\tabc\n"
	require.NoError(t, os.WriteFile(cookieFile, []byte(content), 0o644))

	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		fmt.Fprint(w, `{"code":0,"data":{"bvid":"BV1test","cid":1}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	c.LoadCookies(cookieFile)
	_, err := c.FetchView(context.Background(), "BV1test")
	require.NoError(t, err)
	assert.Equal(t, "SESSDATA=secret; buvid3=abc", gotCookie)

	// Missing files are ignored.
	c2 := NewClientWithBaseURL(srv.URL)
	c2.LoadCookies(filepath.Join(t.TempDir(), "absent.txt"))
	_, err = c2.FetchView(context.Background(), "BV1test")
	require.NoError(t, err)
}

func TestResolveMid(t *testing.T) {
	mid, err := (&Client{}).ResolveMid(context.Background(), "https://space.bilibili.com/123456/video")
	require.NoError(t, err)
	assert.Equal(t, "123456", mid)

	mid, err = (&Client{}).ResolveMid(context.Background(), "987654")
	require.NoError(t, err)
	assert.Equal(t, "987654", mid)
}

func TestResolveMidScrapesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><script>window.__INITIAL_STATE__={"mid": 424242}</script></html>`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	mid, err := c.ResolveMid(context.Background(), srv.URL+"/list/series/77")
	require.NoError(t, err)
	assert.Equal(t, "424242", mid)
}

func TestFetchUploaderVideosPaginates(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/space/arc/search", r.URL.Path)
		page++
		switch r.URL.Query().Get("pn") {
		case "1":
			fmt.Fprint(w, `{"data":{"list":{"vlist":[{"bvid":"BV1aaa"},{"bvid":"BV1bbb"}]},"page":{"count":3}}}`)
		default:
			fmt.Fprint(w, `{"data":{"list":{"vlist":[{"bvid":"BV1ccc"}]},"page":{"count":3}}}`)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	urls, err := c.FetchUploaderVideos(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, urls, 3)
	assert.Equal(t, "https://www.bilibili.com/video/BV1aaa", urls[0])
	assert.Equal(t, 2, page)
}

func TestFetchFavVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/v3/fav/resource/list", r.URL.Path)
		switch r.URL.Query().Get("pn") {
		case "1":
			fmt.Fprint(w, `{"data":{"info":{"title":"收藏夹"},"medias":[{"bvid":"BV1aaa"},{"bvid":"av123"}],"has_more":true}}`)
		default:
			fmt.Fprint(w, `{"data":{"medias":[{"bvid":"BV1bbb"}],"has_more":false}}`)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	urls, title, err := c.FetchFavVideos(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "收藏夹", title)
	require.Len(t, urls, 2, "non-BV entries are skipped")
	assert.Equal(t, "https://www.bilibili.com/video/BV1bbb", urls[1])
}

func TestFetchSeriesVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list/series/9":
			fmt.Fprint(w, `<html>{"mid": 777}</html>`)
		case "/x/series/archives":
			require.Equal(t, "777", r.URL.Query().Get("mid"))
			fmt.Fprint(w, `{"data":{"meta":{"name":"系列"},"archives":[{"bvid":"BV1aaa"},{"bvid":"BV1bbb"}]}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	urls, title, err := c.FetchSeriesVideos(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "系列", title)
	assert.Len(t, urls, 2)
}

func TestFetchSeasonVideosAndSeasonID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/web-interface/view/detail", r.URL.Path)
		fmt.Fprint(w, `{"data":{"View":{"ugc_season":{"id":31,"title":"合集",
			"sections":[{"episodes":[{"bvid":"BV1aaa"},{"bvid":"BV1bbb"}]}]}}}}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)

	urls, title, err := c.FetchSeasonVideos(context.Background(), "31")
	require.NoError(t, err)
	assert.Equal(t, "合集", title)
	assert.Len(t, urls, 2)

	assert.Equal(t, "31", c.FetchSeasonID(context.Background(), "BV1aaa"))
}
