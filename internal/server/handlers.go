package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hanzhsun/movie-championship/internal/domain"
	"github.com/hanzhsun/movie-championship/internal/douban"
	"github.com/hanzhsun/movie-championship/internal/store"
)

// handleUpdateDouban 同步执行一次爬取并落盘。
// 新记录并入既有表（新在前，旧行保持原顺序），绝不整表覆盖。
func (s *Server) handleUpdateDouban(c echo.Context) error {
	if !s.acquire() {
		return c.JSON(http.StatusConflict, errorPayload("已有更新任务在运行"))
	}
	defer s.release()

	if strings.TrimSpace(s.cfg.UserID) == "" {
		return c.JSON(http.StatusBadRequest, errorPayload("豆瓣配置未加载"))
	}
	forceFull := c.QueryParam("full") == "1"

	table, err := store.Load(s.watchedPath(), store.WatchedColumns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
	existing := store.RecordsFromTable(table)
	known := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		known[m.ID] = struct{}{}
	}
	s.log.Info("开始同步", "existing", len(known), "force_full", forceFull)

	fresh, newCount, err := s.crawler.Crawl(c.Request().Context(), s.cfg.UserID, known, forceFull, nil)
	if err != nil {
		var be *douban.BlockedError
		if errors.As(err, &be) {
			return c.JSON(http.StatusBadGateway, map[string]any{
				"error": be.Error(),
				"debug": be.Debug(),
			})
		}
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}

	merged := store.MergeRecords(existing, fresh)
	out := store.TableFromRecords(merged, store.EnrichedColumns)
	if err := store.Save(s.watchedPath(), out); err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}

	s.log.Info("同步完成", "total", len(merged), "new", newCount)
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"total":     len(merged),
		"new_count": newCount,
	})
}

func (s *Server) handleWatched(c echo.Context) error {
	return s.tableJSON(c, s.watchedPath())
}

func (s *Server) handleTags(c echo.Context) error {
	return s.tableJSON(c, s.tagsPath())
}

// tableJSON 把持久化表转成 JSON 列表；缺失字段输出 null 而不是空串占位。
func (s *Server) tableJSON(c echo.Context, path string) error {
	table, err := store.Load(path, store.EnrichedColumns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
	out := make([]map[string]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		obj := make(map[string]any, len(table.Columns))
		for _, col := range table.Columns {
			obj[col] = cellValue(col, store.Get(row, col))
		}
		out = append(out, obj)
	}
	return c.JSON(http.StatusOK, out)
}

// cellValue 按列类型转换：数值列转数值，空单元一律 null。
func cellValue(col, v string) any {
	if v == "" {
		return nil
	}
	switch col {
	case "rating":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case "runtime", "year":
		if n, err := strconv.Atoi(strings.TrimSuffix(v, ".0")); err == nil {
			return n
		}
	}
	return v
}

func (s *Server) handleFetchLocal(c echo.Context) error {
	watched, err := store.Load(s.watchedPath(), store.WatchedColumns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
	tags, err := store.Load(s.tagsPath(), store.EnrichedColumns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"watched_count": len(watched.Rows),
		"tags_count":    len(tags.Rows),
		"success":       true,
	})
}

func (s *Server) handlePoster(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	// 兼容带扩展名的旧式请求（/api/posters/123.jpg）。
	if dot := strings.IndexByte(id, '.'); dot > 0 {
		id = id[:dot]
	}
	path, contentType, ok := s.posters.Lookup(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorPayload("Poster not found"))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorPayload(err.Error()))
	}
	return c.Blob(http.StatusOK, contentType, b)
}

// handleUpdateIMDB 以 SSE 流式返回富化进度。
// 富化跑在后台 goroutine 上，是事件的唯一生产者；handler 是唯一消费者，
// 通道在终态事件之后关闭，流随之结束。
func (s *Server) handleUpdateIMDB(c echo.Context) error {
	if !s.acquire() {
		return c.JSON(http.StatusConflict, errorPayload("已有更新任务在运行"))
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	events := make(chan domain.ProgressEvent, 16)
	go func() {
		defer s.release()
		defer close(events)
		o := s.newOrchestrator()
		if err := o.Run(c.Request().Context(), func(e domain.ProgressEvent) { events <- e }); err != nil {
			s.log.Error("富化运行失败", "error", err)
		}
	}()

	for e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", b); err != nil {
			// 客户端断开；继续排空通道让生产者退出。
			for range events {
			}
			return nil
		}
		resp.Flush()
	}
	return nil
}
