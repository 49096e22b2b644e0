package store

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hanzhsun/movie-championship/internal/domain"
	"github.com/hanzhsun/movie-championship/internal/infra/fsx"
)

// RecordsFromTable 把表行转换为 MovieRecord（保持行顺序）。
// 无 id 的行被丢弃：id 是持久化的前提。
func RecordsFromTable(t Table) []domain.MovieRecord {
	out := make([]domain.MovieRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := Get(row, "id")
		if id == "" {
			continue
		}
		out = append(out, domain.MovieRecord{
			ID:        id,
			Title:     Get(row, "title"),
			Link:      Get(row, "link"),
			Date:      Get(row, "date"),
			Rating:    parseFloat(Get(row, "rating")),
			PosterURL: Get(row, "poster_url"),
			Genres:    Get(row, "genres"),
			Language:  Get(row, "language"),
			Runtime:   parseInt(Get(row, "runtime")),
			Year:      parseInt(Get(row, "year")),
			IMDBID:    Get(row, "imdb_id"),
			IMDBTags:  Get(row, "imdb_tags"),
			Tags:      Get(row, "tags"),
		})
	}
	return out
}

// TableFromRecords 把记录集写回表行（保持插入顺序）。
// 缺失的富化字段写空串，而不是 "0" 之类的占位值。
func TableFromRecords(records []domain.MovieRecord, columns []string) Table {
	t := Table{Columns: append([]string(nil), columns...), Rows: make([]map[string]string, 0, len(records))}
	for _, m := range records {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		row := map[string]string{
			"id":         m.ID,
			"title":      m.Title,
			"link":       m.Link,
			"date":       m.Date,
			"rating":     formatFloat(m.Rating),
			"poster_url": m.PosterURL,
			"genres":     m.Genres,
			"language":   m.Language,
			"runtime":    formatInt(m.Runtime),
			"year":       formatInt(m.Year),
			"imdb_id":    m.IMDBID,
			"imdb_tags":  m.IMDBTags,
			"tags":       m.Tags,
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// MergeRecords 把新爬到的记录并入既有记录：新记录按页面顺序放前面
// （列表按标记时间倒序，新条目天然最新），旧行保持原顺序。
// force-full 下同一 id 会同时出现在两边：基础字段取爬到的版本，
// 既有行上已富化的字段原样带过来，不因重爬而丢失。
func MergeRecords(existing, fresh []domain.MovieRecord) []domain.MovieRecord {
	byID := make(map[string]domain.MovieRecord, len(existing))
	for _, m := range existing {
		byID[m.ID] = m
	}

	seen := make(map[string]struct{}, len(existing)+len(fresh))
	out := make([]domain.MovieRecord, 0, len(existing)+len(fresh))
	for _, m := range fresh {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		if old, ok := byID[m.ID]; ok {
			copyEnrichment(&m, old)
		}
		out = append(out, m)
	}
	for _, m := range existing {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func copyEnrichment(dst *domain.MovieRecord, src domain.MovieRecord) {
	if !dst.HasGenres() {
		dst.Genres = src.Genres
	}
	if !dst.HasLanguage() {
		dst.Language = src.Language
	}
	if !dst.HasRuntime() {
		dst.Runtime = src.Runtime
	}
	if !dst.HasYear() {
		dst.Year = src.Year
	}
	if !dst.HasIMDBID() {
		dst.IMDBID = src.IMDBID
	}
	if !dst.HasIMDBTags() {
		dst.IMDBTags = src.IMDBTags
	}
	if !dst.HasTags() {
		dst.Tags = src.Tags
	}
}

// 数字列可能以 "142"、"142.0" 两种形态出现（历史文件由表格软件写过）。
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func atomicWrite(path string, data []byte) error {
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), data)
}
