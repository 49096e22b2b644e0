package httpx

import (
	"errors"
	"net/http"
	"time"
)

// 每次调用的固定超时；运行整体不设 deadline（由调用方顺序执行 + 限速决定时长）。
const defaultTimeout = 10 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// doubanHeaders 是完整的浏览器头集合：豆瓣的反爬对缺头的请求更敏感。
var doubanHeaders = map[string]string{
	"User-Agent":                userAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
	"Referer":                   "https://movie.douban.com/",
	"DNT":                       "1",
}

var imageHeaders = map[string]string{
	"User-Agent": userAgent,
	"Accept":     "image/avif,image/webp,image/apng,image/*,*/*;q=0.8",
	"Referer":    "https://movie.douban.com/",
}

var imdbHeaders = map[string]string{
	"User-Agent":      userAgent,
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Transport 把“默认请求头 + 会话 cookie”固化为统一策略。
//
// 这里不做重试：页面级重试属于 crawler 的契约（3 次 + 2 秒退避），
// 其余调用点一律失败即降级。
type Transport struct {
	Base    http.RoundTripper
	Headers map[string]string
	Cookies map[string]string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Clone 避免在 RoundTripper 内部污染调用方的 request。
	r := req.Clone(req.Context())
	for k, v := range t.Headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	for name, value := range t.Cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return base.RoundTrip(r)
}

// NewDoubanClient 构造抓取豆瓣页面（列表页/详情页）的 HTTP client。
func NewDoubanClient(cookies map[string]string) *http.Client {
	return newClient(doubanHeaders, cookies)
}

// NewImageClient 构造下载海报图片的 HTTP client。
func NewImageClient(cookies map[string]string) *http.Client {
	return newClient(imageHeaders, cookies)
}

// NewIMDBClient 构造抓取 IMDb 页面的 HTTP client（不携带豆瓣 cookie）。
func NewIMDBClient() *http.Client {
	return newClient(imdbHeaders, nil)
}

func newClient(headers map[string]string, cookies map[string]string) *http.Client {
	return &http.Client{
		Transport: &Transport{
			Base:    http.DefaultTransport,
			Headers: headers,
			Cookies: cookies,
		},
		Timeout: defaultTimeout,
	}
}
