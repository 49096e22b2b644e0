package douban

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Detail 是详情页提取结果；所有字段彼此独立可缺失。
type Detail struct {
	IMDBID         string
	Genres         []string
	Language       string
	RuntimeMinutes int
	Year           int
}

// defaultGenre 几乎出现在每部影片上，等于没有信息量，提取时剔除。
const defaultGenre = "剧情"

var (
	imdbTTRE  = regexp.MustCompile(`(tt\d+)`)
	runtimeRE = regexp.MustCompile(`(\d+)\s*分钟`)
	yearRE    = regexp.MustCompile(`(\d{4})`)
)

// Extractor 抓取并解析电影详情页。
type Extractor struct {
	Client *http.Client
}

// Extract 提取详情页字段。永不返回错误：传输或解析失败一律得到零值 Detail，
// 由上层按“本条记录保持部分富化”处理。
func (e *Extractor) Extract(ctx context.Context, pageURL string) Detail {
	if e.Client == nil || strings.TrimSpace(pageURL) == "" {
		return Detail{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Detail{}
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return Detail{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Detail{}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Detail{}
	}
	return parseDetail(b)
}

// parseDetail 是纯函数：相同 HTML 必然得到相同 Detail。
// 每个字段走独立的策略链（结构化属性 -> 标签文本 -> 正则），互不影响。
func parseDetail(htmlBytes []byte) Detail {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return Detail{}
	}

	info := doc.Find("div#info").First()
	if info.Length() == 0 {
		return Detail{}
	}

	var d Detail

	// IMDb：标签 "IMDb"/"IMDb:" 后的文本；拿不到再对整个 info 块做模式扫描。
	if v := labelValue(info, "IMDb"); v != "" {
		if m := imdbTTRE.FindStringSubmatch(v); m != nil {
			d.IMDBID = m[1]
		}
	}
	if d.IMDBID == "" {
		if m := imdbTTRE.FindStringSubmatch(info.Text()); m != nil {
			d.IMDBID = m[1]
		}
	}

	// 类型：优先语义化标注 v:genre；剔除无信息量的默认类型。
	info.Find("span[property='v:genre']").Each(func(_ int, s *goquery.Selection) {
		g := strings.TrimSpace(s.Text())
		if g != "" && g != defaultGenre {
			d.Genres = append(d.Genres, g)
		}
	})
	if len(d.Genres) == 0 {
		for _, g := range splitValues(labelValue(info, "类型")) {
			if g != defaultGenre {
				d.Genres = append(d.Genres, g)
			}
		}
	}

	// 语言：多语言条目很常见，只保留第一个。
	if vals := splitValues(labelValue(info, "语言")); len(vals) > 0 {
		d.Language = vals[0]
	}

	// 片长：优先结构化属性 v:runtime 的 content；兜底从标签文本里抠“N 分钟”。
	if rt := info.Find("span[property='v:runtime']").First(); rt.Length() > 0 {
		if content, ok := rt.Attr("content"); ok {
			d.RuntimeMinutes = firstInt(content)
		}
		if d.RuntimeMinutes == 0 {
			d.RuntimeMinutes = firstInt(rt.Text())
		}
	}
	if d.RuntimeMinutes == 0 {
		if m := runtimeRE.FindStringSubmatch(labelValue(info, "片长")); m != nil {
			d.RuntimeMinutes, _ = strconv.Atoi(m[1])
		}
	}

	// 年份：标题旁的专用元素，四位数字。
	if m := yearRE.FindStringSubmatch(doc.Find("span.year").First().Text()); m != nil {
		d.Year, _ = strconv.Atoi(m[1])
	}

	return d
}

// labelValue 查找 info 块内文本为 label 的标签元素（span.pl，冒号可有可无、
// 全角半角均可），然后沿后续兄弟节点收集文本直到 <br> 边界，用空格连接。
// 标签值常被拆在多个行内节点里（文本 + <a> 混排），必须整段收集。
func labelValue(info *goquery.Selection, label string) string {
	var out string
	info.Find("span.pl").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if normLabel(s.Text()) != label {
			return true
		}
		if len(s.Nodes) == 0 {
			return false
		}
		var parts []string
		for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode && n.Data == "br" {
				break
			}
			if t := normSpace(nodeText(n)); t != "" {
				parts = append(parts, t)
			}
		}
		out = strings.Join(parts, " ")
		return false
	})
	return out
}

func normLabel(s string) string {
	s = normSpace(s)
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSuffix(s, "：")
	return strings.TrimSpace(s)
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// splitValues 按常见分隔符（/ 、 , ，）拆值并去空白。
func splitValues(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '、' || r == ',' || r == '，'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstInt(s string) int {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, _ := strconv.Atoi(b.String())
	return n
}
