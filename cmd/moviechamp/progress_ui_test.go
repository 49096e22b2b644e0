package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hanzhsun/movie-championship/internal/domain"
)

func TestProgressUI_ThrottlesIntermediateEvents(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.minInterval = time.Hour // 本测试里只允许第一条过

	for i := 1; i <= 10; i++ {
		ui.Handle(domain.ProgressEvent{Message: "处理中", Progress: i, Total: 10, Percentage: i * 10})
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("限流后应只输出 1 行，实际 %d 行：%q", got, buf.String())
	}
}

func TestProgressUI_TerminalAlwaysPrinted(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.minInterval = time.Hour

	ui.Handle(domain.ProgressEvent{Message: "处理中", Progress: 1, Total: 2, Percentage: 50})
	ui.Handle(domain.ProgressEvent{
		Message:      "更新完成",
		Success:      domain.BoolPtr(true),
		UpdatedCount: 2,
		TotalCount:   2,
	})

	out := buf.String()
	if !strings.Contains(out, "更新完成") || !strings.Contains(out, "更新 2 / 共 2") {
		t.Fatalf("终态行缺失：%q", out)
	}
}

func TestProgressUI_FailureTerminal(t *testing.T) {
	var buf bytes.Buffer
	ui := newProgressUI(&buf)
	ui.Handle(domain.ProgressEvent{Message: "错误: 文件不可读", Success: domain.BoolPtr(false)})
	if !strings.Contains(buf.String(), "失败：错误: 文件不可读") {
		t.Fatalf("失败终态格式错误：%q", buf.String())
	}
}
