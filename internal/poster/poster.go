// Package poster 把豆瓣海报图落到本地资产目录，文件名为 <movieID>.<ext>。
// 下载是尽力而为的：失败只意味着没有本地海报，不影响任何上层流程。
package poster

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hanzhsun/movie-championship/internal/infra/fsx"
)

// 按检查顺序排列；Lookup 和缓存命中都按这个顺序找。
var knownExts = []string{".jpg", ".jpeg", ".png", ".webp"}

var extContentType = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Store 管理本地海报资产目录。
type Store struct {
	// Dir 是海报目录；不存在时按需创建。
	Dir string

	// Client 必须携带豆瓣会话与图片请求头（见 httpx.NewImageClient）。
	Client *http.Client
}

// Fetch 确保 movieID 的海报在本地存在，返回本地路径。
// 已缓存（任一已知扩展名）时直接命中，不发请求。
//
// 豆瓣图床的 .webp 地址通常有同名 .jpg 变体且兼容性更好，优先尝试；
// 候选 URL 逐个尝试，单个失败静默推进，全部失败返回 ok=false。
func (s *Store) Fetch(ctx context.Context, posterURL, movieID string) (string, bool) {
	if s.Client == nil || strings.TrimSpace(posterURL) == "" || strings.TrimSpace(movieID) == "" {
		return "", false
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", false
	}
	if path, _, ok := s.Lookup(movieID); ok {
		return path, true
	}

	candidates := []string{posterURL}
	if strings.HasSuffix(posterURL, ".webp") {
		candidates = []string{strings.TrimSuffix(posterURL, ".webp") + ".jpg", posterURL}
	}

	for _, u := range candidates {
		body, contentType, ok := s.download(ctx, u)
		if !ok {
			continue
		}
		ext := extFromContentType(contentType)
		if ext == "" {
			ext = extFromURL(u)
		}
		name := movieID + ext
		if err := fsx.WriteFileAtomicReplace(s.Dir, name, body); err != nil {
			continue
		}
		return filepath.Join(s.Dir, name), true
	}
	return "", false
}

func (s *Store) download(ctx context.Context, u string) (body []byte, contentType string, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", false
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", false
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil || len(b) == 0 {
		return nil, "", false
	}
	return b, resp.Header.Get("Content-Type"), true
}

// FetchFunc 把 Fetch 适配成爬虫需要的回调形状（忽略结果，纯尽力而为）。
func (s *Store) FetchFunc() func(ctx context.Context, posterURL, movieID string) {
	return func(ctx context.Context, posterURL, movieID string) {
		_, _ = s.Fetch(ctx, posterURL, movieID)
	}
}

// Lookup 按已知扩展名顺序查找本地海报，返回路径和对应 MIME 类型。
func (s *Store) Lookup(movieID string) (path, contentType string, ok bool) {
	if strings.TrimSpace(movieID) == "" {
		return "", "", false
	}
	for _, ext := range knownExts {
		p := filepath.Join(s.Dir, movieID+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, extContentType[ext], true
		}
	}
	return "", "", false
}

func extFromContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func extFromURL(u string) string {
	path := strings.SplitN(u, "?", 2)[0]
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".png", ".webp":
		return ext
	case ".jpeg":
		return ".jpg"
	}
	return ".jpg"
}
