package domain

import (
	"regexp"
	"strings"
)

// MovieRecord 是一条“看过的电影”记录。
//
// 约束：
// - ID 是豆瓣 subject id（字符串），一旦观测到就永久不变，也是海报文件名的词干
// - 列表页只填充前六个字段；富化字段由 enrich 流程补齐
// - 富化字段要么缺失（空串/0），要么非空；禁止用空串占位表示“已尝试”
// - Tags 是派生字段（genres + imdb_tags 翻译合并），不允许手工设置
type MovieRecord struct {
	ID        string
	Title     string
	Link      string // 详情页 URL
	Date      string // 标记日期，自由格式（通常 yyyy-mm-dd）
	Rating    float64
	PosterURL string

	Genres   string // 逗号分隔，豆瓣词表
	Language string
	Runtime  int // 分钟；0 表示缺失
	Year     int // 0 表示缺失
	IMDBID   string // 形如 tt1234567
	IMDBTags string // 逗号分隔，IMDb 原始词表
	Tags     string // '/' 分隔，去重保序，目标词表
}

var imdbIDRE = regexp.MustCompile(`^tt\d+$`)

// ValidIMDBID 校验 imdb_id 的形态（tt + 数字）。
func ValidIMDBID(s string) bool { return imdbIDRE.MatchString(strings.TrimSpace(s)) }

func notBlank(s string) bool { return strings.TrimSpace(s) != "" }

func (m MovieRecord) HasGenres() bool   { return notBlank(m.Genres) }
func (m MovieRecord) HasLanguage() bool { return notBlank(m.Language) }
func (m MovieRecord) HasRuntime() bool  { return m.Runtime > 0 }
func (m MovieRecord) HasYear() bool     { return m.Year > 0 }
func (m MovieRecord) HasIMDBID() bool   { return notBlank(m.IMDBID) }
func (m MovieRecord) HasIMDBTags() bool { return notBlank(m.IMDBTags) }
func (m MovieRecord) HasTags() bool     { return notBlank(m.Tags) }

// FullyEnriched 表示七个富化维度全部就绪，enrich 流程可以直接跳过该记录。
func (m MovieRecord) FullyEnriched() bool {
	return m.HasGenres() && m.HasLanguage() && m.HasRuntime() && m.HasYear() &&
		m.HasIMDBID() && m.HasIMDBTags() && m.HasTags()
}
