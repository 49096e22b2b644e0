// Package imdb 从 IMDb 影片页提取 interests 标签（英文原文）。
// 翻译与合并在 tags 包里做，这里只负责抓取与筛选。
package imdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultBaseURL = "https://www.imdb.com"

// 语言名会和影片的语言字段重复，对兴趣标签没有信息量；"Drama" 同理，几乎人人都有。
var droppedTags = map[string]struct{}{
	"English": {}, "Spanish": {}, "French": {}, "German": {}, "Italian": {},
	"Japanese": {}, "Chinese": {}, "Korean": {}, "Russian": {}, "Hindi": {},
	"Drama": {},
}

// Fetcher 抓取 IMDb 影片页。零值不可用：Client 必须来自 httpx.NewIMDBClient。
type Fetcher struct {
	Client *http.Client

	// BaseURL 仅用于测试替换；为空时使用线上域名。
	BaseURL string
}

func (f *Fetcher) baseURL() string {
	if u := strings.TrimSpace(f.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

// FetchTags 返回逗号分隔的英文标签串（如 "Action Epic, Cyberpunk"）。
// 富化是尽力而为的：任何失败（传输、非 200、页面没有标签区）都返回空串，
// 不返回错误，调用方据此保持该字段缺失。
func (f *Fetcher) FetchTags(ctx context.Context, imdbID string) string {
	if f.Client == nil {
		return ""
	}
	id := strings.TrimSpace(imdbID)
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, "tt") {
		id = "tt" + id
	}

	pageURL := fmt.Sprintf("%s/title/%s/", f.baseURL(), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return parseTags(b)
}

// parseTags 定位标签芯片容器并收集芯片文本。
// 容器定位走兜底链：interests 区块内的滚动容器 -> 区块本身 -> 页面任意滚动容器。
func parseTags(htmlBytes []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return ""
	}

	container := doc.Find("section[data-testid='interests'], div[data-testid='interests']").First()
	if container.Length() > 0 {
		if scroller := container.Find("div.ipc-chip-list__scroller").First(); scroller.Length() > 0 {
			container = scroller
		}
	} else {
		container = doc.Find("div.ipc-chip-list__scroller").First()
	}
	if container.Length() == 0 {
		return ""
	}

	var tags []string
	seen := map[string]struct{}{}
	container.Find("span.ipc-chip__text").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		if _, drop := droppedTags[text]; drop {
			return
		}
		tags = append(tags, text)
	})
	return strings.Join(tags, ", ")
}
