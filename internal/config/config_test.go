package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "douban_config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写配置文件失败：%v", err)
	}
	return path
}

func TestLoad_CookiesAsMap(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"user_id":"123456","cookies":{"bid":"abc","dbcl2":"xyz"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.UserID != "123456" {
		t.Fatalf("user_id=%q", cfg.UserID)
	}
	want := Cookies{"bid": "abc", "dbcl2": "xyz"}
	if !reflect.DeepEqual(cfg.Cookies, want) {
		t.Fatalf("cookies=%v，期望 %v", cfg.Cookies, want)
	}
}

func TestLoad_CookiesAsList(t *testing.T) {
	path := writeConfig(t, t.TempDir(),
		`{"user_id":"u","cookies":[{"name":"bid","value":"abc"},{"name":"","value":"skip"},{"name":"ck","value":"1"}]}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := Cookies{"bid": "abc", "ck": "1"}
	if !reflect.DeepEqual(cfg.Cookies, want) {
		t.Fatalf("cookies=%v，期望 %v", cfg.Cookies, want)
	}
}

func TestLoad_CookiesAsString(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"user_id":"u","cookies":"bid=abc; dbcl2=xyz; malformed"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := Cookies{"bid": "abc", "dbcl2": "xyz"}
	if !reflect.DeepEqual(cfg.Cookies, want) {
		t.Fatalf("cookies=%v，期望 %v", cfg.Cookies, want)
	}
}

func TestLoad_MissingUser(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"cookies":{}}`)
	_, err := Load(path)
	if Code(err) != ErrCodeMissingUser {
		t.Fatalf("期望 %s，实际：%v", ErrCodeMissingUser, err)
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "douban_config.json"))
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %s，实际：%v", ErrCodeNotFound, err)
	}
}

func TestDiscover_FallsBackToDataDir(t *testing.T) {
	cwd := t.TempDir()
	dataDir := t.TempDir()
	writeConfig(t, dataDir, `{"user_id":"u","cookies":{}}`)

	cfg, err := Discover(cwd, dataDir)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if cfg.UserID != "u" {
		t.Fatalf("user_id=%q", cfg.UserID)
	}
}

func TestDiscover_PrimaryInvalidNotMasked(t *testing.T) {
	cwd := t.TempDir()
	writeConfig(t, cwd, `{not json`)

	// cwd 下的配置损坏时必须报错，不允许静默落到 dataDir。
	_, err := Discover(cwd, t.TempDir())
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %s，实际：%v", ErrCodeInvalid, err)
	}
}
