package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransport_AppliesHeadersAndCookies(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewDoubanClient(map[string]string{"bid": "abc"})
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if ua := got.Header.Get("User-Agent"); ua != userAgent {
		t.Fatalf("User-Agent=%q", ua)
	}
	if ref := got.Header.Get("Referer"); ref != "https://movie.douban.com/" {
		t.Fatalf("Referer=%q", ref)
	}
	ck, err := got.Cookie("bid")
	if err != nil || ck.Value != "abc" {
		t.Fatalf("cookie bid 未携带：%v %v", ck, err)
	}
}

func TestTransport_DoesNotOverrideExplicitHeader(t *testing.T) {
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c := NewIMDBClient()
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if gotAccept != "application/json" {
		t.Fatalf("显式设置的 Accept 被覆盖：%q", gotAccept)
	}
}

func TestTransport_DoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewDoubanClient(map[string]string{"bid": "abc"})
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if len(req.Header) != 0 {
		t.Fatalf("调用方 request 被污染：%v", req.Header)
	}
}
