package douban

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const detailFixture = `<html><head><title>低俗小说 (豆瓣)</title></head><body>
<h1><span property="v:itemreviewed">低俗小说 Pulp Fiction</span>
    <span class="year">(1994)</span></h1>
<div id="info">
  <span class="pl">导演</span>: <a href="/celebrity/1/">昆汀·塔伦蒂诺</a><br/>
  <span property="v:genre">剧情</span> / <span property="v:genre">犯罪</span><br/>
  <span class="pl">制片国家/地区:</span> 美国<br/>
  <span class="pl">语言:</span> 英语 / 西班牙语 / 法语<br/>
  <span property="v:runtime" content="154">154分钟</span><br/>
  <span class="pl">IMDb:</span> tt0110912<br/>
</div>
</body></html>`

// 没有语义化标注的旧版页面：类型/片长都只能从 span.pl 标签文本兜底。
const detailFixtureLegacy = `<html><body>
<span class="year">(1954)</span>
<div id="info">
  <span class="pl">类型:</span> 动作 / 剧情 / 冒险<br/>
  <span class="pl">语言:</span> 日语<br/>
  <span class="pl">片长:</span> 207 分钟<br/>
  链接: https://www.imdb.com/title/tt0047478/
</div>
</body></html>`

func TestParseDetail_SemanticAttributes(t *testing.T) {
	d := parseDetail([]byte(detailFixture))

	if d.IMDBID != "tt0110912" {
		t.Fatalf("imdb_id=%q", d.IMDBID)
	}
	if !reflect.DeepEqual(d.Genres, []string{"犯罪"}) {
		t.Fatalf("类型应剔除默认值，实际：%v", d.Genres)
	}
	if d.Language != "英语" {
		t.Fatalf("多语言只保留第一个，实际：%q", d.Language)
	}
	if d.RuntimeMinutes != 154 {
		t.Fatalf("runtime=%d", d.RuntimeMinutes)
	}
	if d.Year != 1994 {
		t.Fatalf("year=%d", d.Year)
	}
}

func TestParseDetail_LabelFallbacks(t *testing.T) {
	d := parseDetail([]byte(detailFixtureLegacy))

	if d.IMDBID != "tt0047478" {
		t.Fatalf("IMDb 模式扫描兜底失败：%q", d.IMDBID)
	}
	if !reflect.DeepEqual(d.Genres, []string{"动作", "冒险"}) {
		t.Fatalf("genres=%v", d.Genres)
	}
	if d.Language != "日语" {
		t.Fatalf("language=%q", d.Language)
	}
	if d.RuntimeMinutes != 207 {
		t.Fatalf("片长文本兜底失败：%d", d.RuntimeMinutes)
	}
	if d.Year != 1954 {
		t.Fatalf("year=%d", d.Year)
	}
}

func TestParseDetail_MissingInfoBlock(t *testing.T) {
	d := parseDetail([]byte(`<html><body><p>页面改版了</p></body></html>`))
	if !reflect.DeepEqual(d, Detail{}) {
		t.Fatalf("缺少 #info 时应得到零值，实际：%+v", d)
	}
}

func TestParseDetail_FieldsIndependent(t *testing.T) {
	// 只有语言一个字段可提取，其它字段缺失不应相互影响。
	d := parseDetail([]byte(`<div id="info"><span class="pl">语言:</span> 韩语<br/></div>`))
	if d.Language != "韩语" {
		t.Fatalf("language=%q", d.Language)
	}
	if d.IMDBID != "" || d.Genres != nil || d.RuntimeMinutes != 0 || d.Year != 0 {
		t.Fatalf("缺失字段应保持零值：%+v", d)
	}
}

func TestExtract_NeverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	e := &Extractor{Client: srv.Client()}
	if d := e.Extract(context.Background(), srv.URL); !reflect.DeepEqual(d, Detail{}) {
		t.Fatalf("非 200 应得到零值 Detail：%+v", d)
	}
	if d := e.Extract(context.Background(), "http://127.0.0.1:0/unreachable"); !reflect.DeepEqual(d, Detail{}) {
		t.Fatalf("传输失败应得到零值 Detail：%+v", d)
	}
	if d := e.Extract(context.Background(), ""); !reflect.DeepEqual(d, Detail{}) {
		t.Fatalf("空 URL 应得到零值 Detail：%+v", d)
	}
}

func TestExtract_ParsesServedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailFixture)
	}))
	defer srv.Close()

	d := (&Extractor{Client: srv.Client()}).Extract(context.Background(), srv.URL)
	if d.IMDBID != "tt0110912" || d.Year != 1994 {
		t.Fatalf("端到端提取失败：%+v", d)
	}
}
