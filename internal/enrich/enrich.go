// Package enrich 实现富化编排：对已看影片逐条补齐详情字段（genres/language/
// runtime/year/imdb_id）、IMDb 标签与最终 tags，然后一次性落盘。
//
// 核心约束是“只增不改”：已有的非空字段永不被覆盖，重复运行是幂等的。
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hanzhsun/movie-championship/internal/domain"
	"github.com/hanzhsun/movie-championship/internal/douban"
	"github.com/hanzhsun/movie-championship/internal/imdb"
	"github.com/hanzhsun/movie-championship/internal/store"
	"github.com/hanzhsun/movie-championship/internal/tags"
)

// IMDb 对连续请求较敏感，详情页拿到 id 后间隔半秒再去抓标签。
const defaultTagDelay = 500 * time.Millisecond

// Sink 接收进度事件。带终态标记（Success 非 nil）的事件必然是最后一个。
type Sink func(domain.ProgressEvent)

// Orchestrator 驱动一次完整的富化运行。
type Orchestrator struct {
	// WatchedPath 是输入表；OutputPath 是富化结果表。两者可相同（原地富化）。
	WatchedPath string
	OutputPath  string

	Detail *douban.Extractor
	IMDB   *imdb.Fetcher
	Logger *slog.Logger

	// TagDelay：0 表示默认半秒，负值表示禁用（测试用）。
	TagDelay time.Duration
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) tagDelay() time.Duration {
	if o.TagDelay != 0 {
		return o.TagDelay
	}
	return defaultTagDelay
}

func emit(sink Sink, e domain.ProgressEvent) {
	if sink != nil {
		sink(e)
	}
}

// Run 执行一次富化。
//
// 致命错误（输入表不可读、必需列缺失、结果落盘失败）会先通过 sink 发终态失败
// 事件再返回错误；单条记录的富化失败只记日志并跳过，不影响运行整体成功。
func (o *Orchestrator) Run(ctx context.Context, sink Sink) error {
	fail := func(err error) error {
		emit(sink, domain.ProgressEvent{
			Message: fmt.Sprintf("错误: %v", err),
			Success: domain.BoolPtr(false),
		})
		return err
	}

	table, err := store.Load(o.WatchedPath, store.EnrichedColumns)
	if err != nil {
		return fail(err)
	}
	if err := table.RequireColumns(o.WatchedPath, "id", "title"); err != nil {
		return fail(err)
	}

	records := store.RecordsFromTable(table)
	total := len(records)
	updated := 0

	log := o.logger()
	log.Info("开始富化", "total", total, "input", o.WatchedPath)
	emit(sink, domain.ProgressEvent{
		Message:    fmt.Sprintf("开始处理 %d 部电影...", total),
		Progress:   0,
		Total:      total,
		Percentage: 0,
	})

	for i := range records {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		processed := i + 1
		rec := &records[i]
		if processed == 1 || processed%5 == 0 {
			emit(sink, domain.ProgressEvent{
				Message:    fmt.Sprintf("处理: %s", rec.Title),
				Progress:   processed,
				Total:      total,
				Percentage: processed * 100 / max(total, 1),
			})
		}

		if rec.FullyEnriched() {
			log.Debug("跳过（已完整）", "title", rec.Title, "progress", processed, "total", total)
			continue
		}

		if err := o.enrichOne(ctx, rec); err != nil {
			log.Warn("单条富化失败", "title", rec.Title, "error", err)
			continue
		}
		updated++
	}

	out := store.TableFromRecords(records, store.EnrichedColumns)
	if err := store.Save(o.OutputPath, out); err != nil {
		return fail(err)
	}
	log.Info("富化完成", "updated", updated, "total", total, "output", o.OutputPath)

	emit(sink, domain.ProgressEvent{
		Message:      "更新完成",
		Success:      domain.BoolPtr(true),
		UpdatedCount: updated,
		TotalCount:   total,
		LastUpdate:   time.Now().Format(time.RFC3339),
	})
	return nil
}

// enrichOne 补齐一条记录的缺失维度。每个维度只在当前为空时写入。
func (o *Orchestrator) enrichOne(ctx context.Context, rec *domain.MovieRecord) error {
	needDetail := !(rec.HasGenres() && rec.HasIMDBID() && rec.HasLanguage() &&
		rec.HasRuntime() && rec.HasYear())
	if needDetail && rec.Link != "" && o.Detail != nil {
		d := o.Detail.Extract(ctx, rec.Link)
		if !rec.HasGenres() && len(d.Genres) > 0 {
			rec.Genres = strings.Join(d.Genres, ", ")
		}
		if !rec.HasLanguage() && d.Language != "" {
			rec.Language = d.Language
		}
		if !rec.HasRuntime() && d.RuntimeMinutes > 0 {
			rec.Runtime = d.RuntimeMinutes
		}
		if !rec.HasYear() && d.Year > 0 {
			rec.Year = d.Year
		}
		if !rec.HasIMDBID() && domain.ValidIMDBID(d.IMDBID) {
			rec.IMDBID = d.IMDBID
		}
	}

	if rec.HasIMDBID() && !rec.HasIMDBTags() && o.IMDB != nil {
		sleepCtx(ctx, o.tagDelay())
		if t := o.IMDB.FetchTags(ctx, rec.IMDBID); t != "" {
			rec.IMDBTags = t
		}
	}

	if (rec.HasGenres() || rec.HasIMDBTags()) && !rec.HasTags() {
		if merged := tags.Derive(rec.Genres, rec.IMDBTags); merged != "" {
			rec.Tags = merged
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
