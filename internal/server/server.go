// Package server 暴露 HTTP API：数据查询、海报资产、以及两条更新链路
// （豆瓣同步为同步 JSON，IMDb 富化为 SSE 流）。
//
// 同一时刻只允许一个更新任务在跑：busy 标志由互斥锁保护，
// 撞上的第二个请求直接拒绝（409），不排队。
package server

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hanzhsun/movie-championship/internal/config"
	"github.com/hanzhsun/movie-championship/internal/douban"
	"github.com/hanzhsun/movie-championship/internal/enrich"
	"github.com/hanzhsun/movie-championship/internal/imdb"
	"github.com/hanzhsun/movie-championship/internal/infra/httpx"
	"github.com/hanzhsun/movie-championship/internal/poster"
)

// Options 收拢 Server 的全部外部依赖。
type Options struct {
	// DataDir 下存放 watched.xlsx、tags.xlsx、tag_movies_mapping.json 和 posters/。
	DataDir string
	Config  config.Config
	Logger  *slog.Logger

	// 基址仅用于测试替换线上站点。
	DoubanBaseURL string
	IMDBBaseURL   string
}

// Server 持有路由与共享状态。
type Server struct {
	echo *echo.Echo
	log  *slog.Logger

	dataDir string
	cfg     config.Config

	crawler *douban.Crawler
	detail  *douban.Extractor
	imdb    *imdb.Fetcher
	posters *poster.Store

	mu   sync.Mutex
	busy bool
}

// New 组装全部依赖并注册路由。
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	postersDir := filepath.Join(opts.DataDir, "posters")
	posters := &poster.Store{
		Dir:    postersDir,
		Client: httpx.NewImageClient(opts.Config.Cookies),
	}

	s := &Server{
		echo:    echo.New(),
		log:     log,
		dataDir: opts.DataDir,
		cfg:     opts.Config,
		crawler: &douban.Crawler{
			Client:  httpx.NewDoubanClient(opts.Config.Cookies),
			BaseURL: opts.DoubanBaseURL,
		},
		detail: &douban.Extractor{Client: httpx.NewDoubanClient(opts.Config.Cookies)},
		imdb: &imdb.Fetcher{
			Client:  httpx.NewIMDBClient(),
			BaseURL: opts.IMDBBaseURL,
		},
		posters: posters,
	}
	s.crawler.Poster = posters.FetchFunc()

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(s.requestLogger)

	e.GET("/api/health", s.handleHealth)
	e.POST("/api/movies/update-douban", s.handleUpdateDouban)
	e.GET("/api/movies/watched", s.handleWatched)
	e.GET("/api/movies/tags", s.handleTags)
	e.GET("/api/movies/fetch-local", s.handleFetchLocal)
	e.GET("/api/posters/:id", s.handlePoster)
	e.POST("/api/movies/update-imdb", s.handleUpdateIMDB)

	return s
}

// Start 阻塞运行直到监听失败或被关闭。
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

// Handler 暴露底层 handler，测试用 httptest 直接挂。
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.log.Info("请求",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
		)
		return err
	}
}

func (s *Server) watchedPath() string { return filepath.Join(s.dataDir, "watched.xlsx") }
func (s *Server) tagsPath() string    { return filepath.Join(s.dataDir, "tags.xlsx") }

// acquire 尝试占住唯一的更新槽位。
func (s *Server) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorPayload(msg string) map[string]any { return map[string]any{"error": msg} }

func (s *Server) newOrchestrator() *enrich.Orchestrator {
	return &enrich.Orchestrator{
		WatchedPath: s.watchedPath(),
		OutputPath:  s.tagsPath(),
		Detail:      s.detail,
		IMDB:        s.imdb,
		Logger:      s.log,
	}
}
