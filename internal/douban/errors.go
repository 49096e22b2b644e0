package douban

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d url=%s", e.StatusCode, e.URL)
}

// BlockedError 表示列表页第一页就没有任何条目：对真实账号来说这几乎不可能，
// 最常见原因是 cookie 失效（被重定向到登录页）或触发了反爬验证页。
// 诊断字段原样透出给调用方，便于用户自查。
type BlockedError struct {
	Status      int    // HTTP 状态码
	URL         string // 重定向后最终落到的 URL
	Title       string // 页面 <title>
	HTMLLen     int    // 响应体字节数
	LoginHint   bool   // URL 疑似登录/鉴权跳转
	CaptchaHint bool   // 页面内容疑似验证码/安全校验
}

func (e *BlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	var hints []string
	if e.LoginHint {
		hints = append(hints, "疑似需要登录")
	}
	if e.CaptchaHint {
		hints = append(hints, "疑似触发验证")
	}
	msg := fmt.Sprintf("第一页未解析到任何条目（status=%d url=%s html_len=%d）", e.Status, e.URL, e.HTMLLen)
	if len(hints) > 0 {
		msg += "：" + strings.Join(hints, "；")
	}
	return msg
}

// Debug 返回可直接序列化进错误响应的诊断信息。
func (e *BlockedError) Debug() map[string]any {
	return map[string]any{
		"status":       e.Status,
		"url":          e.URL,
		"title":        e.Title,
		"html_len":     e.HTMLLen,
		"login_hint":   e.LoginHint,
		"captcha_hint": e.CaptchaHint,
	}
}
