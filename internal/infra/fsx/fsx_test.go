package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicReplace_CreatesAndOverwrites(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomicReplace(dir, "a.json", []byte("v1")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := WriteFileAtomicReplace(dir, "a.json", []byte("v2")); err != nil {
		t.Fatalf("覆盖写失败：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("读取失败：%v", err)
	}
	if string(b) != "v2" {
		t.Fatalf("内容=%q，期望 v2", string(b))
	}
}

func TestWriteFileAtomicReplace_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFileAtomicReplace(dir, "b.csv", []byte("id\n1\n")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("读目录失败：%v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("遗留临时文件：%s", e.Name())
		}
	}
}

func TestWriteFileAtomicReplace_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "posters")
	if err := WriteFileAtomicReplace(dir, "1.jpg", []byte{0xff, 0xd8}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "1.jpg")); err != nil {
		t.Fatalf("期望文件存在：%v", err)
	}
}
