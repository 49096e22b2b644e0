// Package tags 实现标签翻译与合并：把 IMDb 的外语词表标签翻译/过滤为中文词表，
// 与豆瓣 genres 合并为最终的 tags 字段，并提供 tag -> 影片 ID 的派生索引。
//
// 包内函数全部是纯函数；翻译字典是进程级不可变数据。
package tags

import (
	"strings"

	"github.com/hanzhsun/movie-championship/internal/domain"
)

// Translate 翻译单个 IMDb 标签，返回零个、一个或多个中文标签。
//
// 规则按顺序：
// 1) 语言名噪音标签 -> 丢弃
// 2) 字典命中 -> 原样返回映射列表（组合标签在这里拆分）
// 3) 已含中文字符 -> 原样透传（单元素列表）
// 4) 其余未知外语标签 -> 丢弃（保持输出词表封闭，不透传未翻译的英文）
func Translate(tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	if _, ok := languageNames[tag]; ok {
		return nil
	}
	if out, ok := translation[tag]; ok {
		return out
	}
	if containsCJK(tag) {
		return []string{tag}
	}
	return nil
}

// SplitAndTranslate 把逗号分隔的 imdb_tags 字符串拆开逐个翻译并展平。
func SplitAndTranslate(imdbTags string) []string {
	var out []string
	for _, t := range strings.Split(imdbTags, ",") {
		out = append(out, Translate(t)...)
	}
	return out
}

// Merge 合并 genres 与翻译后的 IMDb 标签：去重、保序（genres 优先），'/' 连接。
// 相同输入必然产生相同输出（tags 字段的幂等性依赖于此）。
func Merge(genres, translated []string) string {
	seen := make(map[string]struct{}, len(genres)+len(translated))
	out := make([]string, 0, len(genres)+len(translated))
	appendAll := func(list []string) {
		for _, t := range list {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	appendAll(genres)
	appendAll(translated)
	return strings.Join(out, "/")
}

// Derive 从一条记录的 genres + imdb_tags 推导最终 tags 字符串。
func Derive(genres, imdbTags string) string {
	return Merge(splitList(genres), SplitAndTranslate(imdbTags))
}

// BuildMapping 生成 tag -> 影片 ID 列表 的派生索引（纯投影，可随时重建）。
// 每个 tag 下的 ID 顺序与记录集的插入顺序一致。
func BuildMapping(records []domain.MovieRecord) map[string][]string {
	mapping := make(map[string][]string)
	for _, m := range records {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		for _, t := range strings.Split(m.Tags, "/") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			mapping[t] = append(mapping[t], m.ID)
		}
	}
	return mapping
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}
