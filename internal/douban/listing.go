// Package douban 实现豆瓣侧的页面抓取与 HTML 解析：用户“看过”列表的分页爬取，
// 以及电影详情页的字段提取。
//
// 约束：
// - 解析必须防御性降级：字段在不同页面版本间会挪位/消失，取不到就留空
// - 限速（页间延时）与有界重试是契约的一部分，不是实现细节
package douban

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hanzhsun/movie-championship/internal/domain"
)

const (
	defaultBaseURL = "https://movie.douban.com"

	// 列表页固定每页 15 条。
	pageSize = 15

	defaultPageDelay  = 1 * time.Second
	defaultRetryDelay = 2 * time.Second
	maxPageRetries    = 3
)

var (
	subjectHrefRE = regexp.MustCompile(`/subject/(\d+)/`)
	watchDateRE   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	totalCountRE  = regexp.MustCompile(`/\s*(\d+)`)
	ratingClassRE = regexp.MustCompile(`^rating(\d)-t$`)
)

// ProgressFunc 在每个被检视的条目后调用（不只是新条目）。
// total 为 0 表示第一页没有汇总元素、总数未知。
type ProgressFunc func(processed, total, newCount int)

// PosterFunc 对新条目触发一次同步、尽力而为的海报下载；失败不影响记录创建。
type PosterFunc func(ctx context.Context, posterURL, movieID string)

// Crawler 分页爬取一个用户的“看过”列表。
//
// 零值不可用：Client 必须是携带会话 cookie 的豆瓣 client（见 httpx.NewDoubanClient）。
type Crawler struct {
	Client *http.Client

	// BaseURL 仅用于测试替换（httptest server）；为空时使用线上域名。
	BaseURL string

	// Poster 为 nil 时跳过海报下载。
	Poster PosterFunc

	// 延时：0 表示默认值（页间 1s、重试间隔 2s），负值表示禁用（测试用）。
	PageDelay  time.Duration
	RetryDelay time.Duration
}

func (c *Crawler) baseURL() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

// 延时字段：0 表示使用默认值；负值表示禁用（测试用）。
func (c *Crawler) pageDelay() time.Duration {
	if c.PageDelay != 0 {
		return c.PageDelay
	}
	return defaultPageDelay
}

func (c *Crawler) retryDelay() time.Duration {
	if c.RetryDelay != 0 {
		return c.RetryDelay
	}
	return defaultRetryDelay
}

// Crawl 从 offset 0 开始逐页抓取。
//
// 终止条件：
// - 某页结构上没有任何条目（列表到头）；第一页就为空则按 BlockedError 处理
// - 增量模式（forceFull=false）下，整页没有产出新记录（后续页默认都已知）
//
// 返回新发现的记录（按页面出现顺序）与新增数。
func (c *Crawler) Crawl(ctx context.Context, userID string, existing map[string]struct{}, forceFull bool, progress ProgressFunc) ([]domain.MovieRecord, int, error) {
	if c.Client == nil {
		return nil, 0, errors.New("http client 不能为空")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, 0, errors.New("userID 不能为空")
	}
	if existing == nil {
		existing = map[string]struct{}{}
	}

	var (
		records    []domain.MovieRecord
		newCount   int
		processed  int
		totalKnown int
		start      = 0
	)

	for {
		pageURL := fmt.Sprintf("%s/people/%s/collect?start=%d&sort=time&mode=grid&type=movie",
			c.baseURL(), userID, start)

		html, status, finalURL, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, 0, err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
		if err != nil {
			return nil, 0, err
		}

		// 总数只在第一页读一次；汇总元素缺失时保持未知（0）。
		if start == 0 {
			totalKnown = parseTotalCount(doc)
		}

		items := doc.Find("div.item")
		if items.Length() == 0 {
			if start == 0 {
				return nil, 0, firstPageEmptyError(doc, html, status, finalURL)
			}
			break
		}

		pageFoundNew := false
		items.Each(func(_ int, item *goquery.Selection) {
			processed++
			if progress != nil {
				progress(processed, totalKnown, newCount)
			}

			id := extractItemID(item)
			if id == "" {
				return
			}
			if !forceFull {
				if _, known := existing[id]; known {
					return
				}
			}
			pageFoundNew = true

			rec := extractItemFields(item, id)
			if c.Poster != nil && rec.PosterURL != "" {
				c.Poster(ctx, rec.PosterURL, id)
			}
			records = append(records, rec)
			newCount++
		})

		if !pageFoundNew && !forceFull {
			break
		}
		start += pageSize
		sleepCtx(ctx, c.pageDelay())
	}

	return records, newCount, nil
}

// fetchPage 带有界重试地抓取一页：传输错误最多重试 3 次（固定退避），
// 非 200 状态码立即失败（重试大概率还是被拦）。
func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (body []byte, status int, finalURL string, err error) {
	var lastErr error
	for attempt := 0; attempt < maxPageRetries; attempt++ {
		if attempt > 0 {
			sleepCtx(ctx, c.retryDelay())
		}

		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if rerr != nil {
			return nil, 0, "", rerr
		}
		resp, derr := c.Client.Do(req)
		if derr != nil {
			lastErr = derr
			if ctx.Err() != nil {
				return nil, 0, "", lastErr
			}
			continue
		}

		b, rerr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if rerr != nil {
			lastErr = rerr
			continue
		}

		final := pageURL
		if resp.Request != nil && resp.Request.URL != nil {
			final = resp.Request.URL.String()
		}
		if resp.StatusCode != http.StatusOK {
			return nil, 0, "", &HTTPStatusError{URL: final, StatusCode: resp.StatusCode}
		}
		return b, resp.StatusCode, final, nil
	}
	return nil, 0, "", fmt.Errorf("抓取列表页失败（重试 %d 次后放弃）：%w", maxPageRetries, lastErr)
}

func firstPageEmptyError(doc *goquery.Document, html []byte, status int, finalURL string) error {
	lowerURL := strings.ToLower(finalURL)
	lowerHTML := strings.ToLower(string(html))
	return &BlockedError{
		Status:  status,
		URL:     finalURL,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		HTMLLen: len(html),
		LoginHint: strings.Contains(lowerURL, "login") ||
			strings.Contains(lowerURL, "passport") ||
			strings.Contains(lowerURL, "accounts"),
		CaptchaHint: strings.Contains(lowerHTML, "captcha") ||
			strings.Contains(lowerHTML, "verify") ||
			strings.Contains(lowerHTML, "security check"),
	}
}

func parseTotalCount(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find("span.subject-num").First().Text())
	if m := totalCountRE.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// extractItemID 按优先级提取 subject id：
// 1) 条目自身的 data-subject 属性
// 2) 子节点上的 data-subject 属性
// 3) 详情页链接里的 /subject/<id>/ 片段
func extractItemID(item *goquery.Selection) string {
	if id, ok := item.Attr("data-subject"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	if id, ok := item.Find("[data-subject]").First().Attr("data-subject"); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	var id string
	item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if m := subjectHrefRE.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id
}

// extractItemFields 逐字段走兜底链；任何字段取不到就留空，不影响其余字段。
func extractItemFields(item *goquery.Selection, id string) domain.MovieRecord {
	rec := domain.MovieRecord{ID: id}

	titleSel := item.Find("li.title a").First()
	if titleSel.Length() == 0 {
		titleSel = item.Find("a.title").First()
	}
	if titleSel.Length() == 0 {
		item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if href, _ := a.Attr("href"); subjectHrefRE.MatchString(href) {
				titleSel = a
				return false
			}
			return true
		})
	}
	if titleSel.Length() > 0 {
		rec.Link, _ = titleSel.Attr("href")
		// 标题元素内通常是 <em>中文名 / 外文名</em>：只保留主名。
		if em := titleSel.Find("em").First(); em.Length() > 0 {
			emText := strings.TrimSpace(em.Text())
			if primary := strings.TrimSpace(strings.SplitN(emText, "/", 2)[0]); primary != "" {
				rec.Title = primary
			} else {
				rec.Title = emText
			}
		} else {
			rec.Title = normSpace(titleSel.Text())
		}
	}

	infoText := normSpace(item.Find("li.intro").First().Text())

	rec.Date = strings.TrimSpace(item.Find("span.date").First().Text())
	if rec.Date == "" {
		if m := watchDateRE.FindStringSubmatch(infoText); m != nil {
			rec.Date = m[1]
		}
	}

	if txt := strings.TrimSpace(item.Find("span.rating_nums").First().Text()); txt != "" {
		if f, err := strconv.ParseFloat(txt, 64); err == nil {
			rec.Rating = f
		}
	}
	if rec.Rating == 0 {
		// 星级以 class 形式出现（rating4-t 等，1~5 星）。
		item.Find("span[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			cls, _ := s.Attr("class")
			for _, c := range strings.Fields(cls) {
				if m := ratingClassRE.FindStringSubmatch(c); m != nil {
					n, _ := strconv.Atoi(m[1])
					rec.Rating = float64(n)
					return false
				}
			}
			return true
		})
	}

	img := item.Find("div.pic img").First()
	if img.Length() == 0 {
		img = item.Find("img").First()
	}
	if img.Length() > 0 {
		if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
			rec.PosterURL = strings.TrimSpace(src)
		} else if src, ok := img.Attr("data-src"); ok {
			rec.PosterURL = strings.TrimSpace(src)
		}
	}

	return rec
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
