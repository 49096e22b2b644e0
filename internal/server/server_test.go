package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzhsun/movie-championship/internal/config"
	"github.com/hanzhsun/movie-championship/internal/store"
)

func newTestServer(t *testing.T, doubanURL string) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Options{
		DataDir:       t.TempDir(),
		Config:        config.Config{UserID: "u1", Cookies: map[string]string{"dbcl2": "x"}},
		DoubanBaseURL: doubanURL,
	})
	// 测试里不走线上节奏
	s.crawler.PageDelay = -1
	s.crawler.RetryDelay = -1

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, "")
	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestWatched_AbsentFieldsAreNull(t *testing.T) {
	s, ts := newTestServer(t, "")
	table := store.Table{
		Columns: store.EnrichedColumns,
		Rows: []map[string]string{
			{"id": "1", "title": "七武士", "rating": "5", "runtime": "207"},
		},
	}
	require.NoError(t, store.Save(s.watchedPath(), table))

	var body []map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/movies/watched", &body))
	require.Len(t, body, 1)
	row := body[0]
	assert.Equal(t, "七武士", row["title"])
	assert.Equal(t, 5.0, row["rating"])
	assert.Equal(t, 207.0, row["runtime"])
	assert.Nil(t, row["genres"], "缺失字段必须是 null")
	assert.Nil(t, row["imdb_id"])
}

func TestFetchLocal_Counts(t *testing.T) {
	s, ts := newTestServer(t, "")
	require.NoError(t, store.Save(s.watchedPath(), store.Table{
		Columns: store.WatchedColumns,
		Rows:    []map[string]string{{"id": "1", "title": "a"}, {"id": "2", "title": "b"}},
	}))

	var body map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/movies/fetch-local", &body))
	assert.Equal(t, 2.0, body["watched_count"])
	assert.Equal(t, 0.0, body["tags_count"])
	assert.Equal(t, true, body["success"])
}

func TestPoster_ContentTypeAnd404(t *testing.T) {
	s, ts := newTestServer(t, "")
	dir := filepath.Join(s.dataDir, "posters")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42.png"), []byte("png-bytes"), 0o644))

	resp, err := http.Get(ts.URL + "/api/posters/42")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	missing, err := http.Get(ts.URL + "/api/posters/99")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

const listingItem = `
<div class="item" data-subject="%s">
  <div class="pic"><img src="http://127.0.0.1:1/p%s.jpg"></div>
  <div class="info"><ul>
    <li class="title"><a href="https://movie.douban.com/subject/%s/"><em>%s</em></a></li>
    <li><span class="rating4-t"></span><span class="date">2024-03-01</span></li>
  </ul></div>
</div>`

func doubanListing(items ...[2]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") != "0" {
			fmt.Fprint(w, `<html><body></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><head><title>看过</title></head><body>`)
		for _, it := range items {
			fmt.Fprintf(w, listingItem, it[0], it[0], it[0], it[1])
		}
		fmt.Fprint(w, `</body></html>`)
	})
}

func TestUpdateDouban_MergesWithoutDataLoss(t *testing.T) {
	douban := httptest.NewServer(doubanListing([2]string{"100", "新片"}))
	defer douban.Close()
	s, ts := newTestServer(t, douban.URL)

	// 既有表里已有一条带富化字段的旧记录
	require.NoError(t, store.Save(s.watchedPath(), store.Table{
		Columns: store.EnrichedColumns,
		Rows: []map[string]string{
			{"id": "900", "title": "旧片", "genres": "动作", "tags": "动作"},
		},
	}))

	var body map[string]any
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/movies/update-douban", &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 2.0, body["total"])
	assert.Equal(t, 1.0, body["new_count"])

	table, err := store.Load(s.watchedPath(), store.EnrichedColumns)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "100", store.Get(table.Rows[0], "id"), "新记录应排在最前")
	assert.Equal(t, "900", store.Get(table.Rows[1], "id"))
	assert.Equal(t, "动作", store.Get(table.Rows[1], "genres"), "旧行的富化字段不能丢")
}

func TestUpdateDouban_BlockedReturns502WithDebug(t *testing.T) {
	douban := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>登录豆瓣</title></head><body>captcha</body></html>`)
	}))
	defer douban.Close()
	_, ts := newTestServer(t, douban.URL)

	var body map[string]any
	require.Equal(t, http.StatusBadGateway, postJSON(t, ts.URL+"/api/movies/update-douban", &body))
	require.Contains(t, body, "debug")
	debug := body["debug"].(map[string]any)
	assert.Equal(t, "登录豆瓣", debug["title"])
	assert.Equal(t, true, debug["captcha_hint"])
	assert.NotZero(t, debug["html_len"])
}

func TestUpdate_BusyReturns409(t *testing.T) {
	s, ts := newTestServer(t, "")
	require.True(t, s.acquire())
	defer s.release()

	var body map[string]any
	assert.Equal(t, http.StatusConflict, postJSON(t, ts.URL+"/api/movies/update-douban", &body))
	assert.Equal(t, http.StatusConflict, postJSON(t, ts.URL+"/api/movies/update-imdb", &body))
}

func TestUpdateIMDB_SSEStream(t *testing.T) {
	s, ts := newTestServer(t, "")
	// 全部记录已完整富化：一次离线运行，不触网
	require.NoError(t, store.Save(s.watchedPath(), store.Table{
		Columns: store.EnrichedColumns,
		Rows: []map[string]string{{
			"id": "1", "title": "完整", "genres": "动作", "language": "英语",
			"runtime": "100", "year": "2000", "imdb_id": "tt0000001",
			"imdb_tags": "Epic", "tags": "动作",
		}},
	}))

	resp, err := http.Post(ts.URL+"/api/movies/update-imdb", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var frames []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		frames = append(frames, e)
	}
	require.NotEmpty(t, frames)

	last := frames[len(frames)-1]
	assert.Equal(t, true, last["success"], "终帧必须带成功标记")
	assert.Equal(t, 1.0, last["total_count"])
	assert.NotEmpty(t, last["last_update"])
	for _, f := range frames[:len(frames)-1] {
		_, terminal := f["success"]
		assert.False(t, terminal, "终态事件只能是最后一帧")
	}

	// 运行结束后槽位已释放
	assert.True(t, s.acquire())
	s.release()
}
