package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hanzhsun/movie-championship/internal/domain"
)

// progressUI 是富化/同步运行的终端进度输出。
//
// 设计目标：
// - 所有过程信息写 stderr，不污染 stdout 的结果输出
// - 事件驱动：运行层只发事件，CLI 决定如何展示
// - 限流：事件可能很密（每条记录一个），至多每秒刷一行
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time
	minInterval time.Duration
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:           w,
		startedAt:   time.Now(),
		minInterval: time.Second,
	}
}

// Handle 消费一个进度事件。终态事件总是立即输出。
func (u *progressUI) Handle(e domain.ProgressEvent) {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := time.Now()
	if e.Terminal() {
		elapsed := now.Sub(u.startedAt).Round(time.Second)
		if *e.Success {
			fmt.Fprintf(u.w, "%s：更新 %d / 共 %d（耗时 %s）\n", e.Message, e.UpdatedCount, e.TotalCount, elapsed)
		} else {
			fmt.Fprintf(u.w, "失败：%s（耗时 %s）\n", e.Message, elapsed)
		}
		return
	}

	if now.Sub(u.lastPrinted) < u.minInterval {
		return
	}
	u.lastPrinted = now

	if e.Total > 0 {
		fmt.Fprintf(u.w, "[%3d%%] %d/%d %s\n", e.Percentage, e.Progress, e.Total, e.Message)
		return
	}
	fmt.Fprintf(u.w, "%s\n", e.Message)
}
