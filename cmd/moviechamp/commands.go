package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hanzhsun/movie-championship/internal/config"
	"github.com/hanzhsun/movie-championship/internal/douban"
	"github.com/hanzhsun/movie-championship/internal/enrich"
	"github.com/hanzhsun/movie-championship/internal/imdb"
	"github.com/hanzhsun/movie-championship/internal/infra/httpx"
	"github.com/hanzhsun/movie-championship/internal/poster"
	"github.com/hanzhsun/movie-championship/internal/server"
	"github.com/hanzhsun/movie-championship/internal/store"
	"github.com/hanzhsun/movie-championship/internal/tags"
)

// commandContext 是子命令共享的环境：数据目录、配置与日志器。
type commandContext struct {
	dataDir    string
	configPath string
	verbose    bool
}

func (ctx *commandContext) logger() *slog.Logger {
	level := slog.LevelInfo
	if ctx.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (ctx *commandContext) loadConfig() (config.Config, error) {
	if ctx.configPath != "" {
		return config.Load(ctx.configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.Discover(cwd, ctx.dataDir)
}

func (ctx *commandContext) watchedPath() string { return filepath.Join(ctx.dataDir, "watched.xlsx") }
func (ctx *commandContext) tagsPath() string    { return filepath.Join(ctx.dataDir, "tags.xlsx") }
func (ctx *commandContext) mappingPath() string {
	return filepath.Join(ctx.dataDir, "tag_movies_mapping.json")
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}
	root := &cobra.Command{
		Use:           "moviechamp",
		Short:         "豆瓣观影记录的抓取、富化与查询服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&ctx.dataDir, "data-dir", "data", "数据目录")
	root.PersistentFlags().StringVar(&ctx.configPath, "config", "", "豆瓣配置文件路径（默认自动探测 douban_config.json）")
	root.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(newServeCommand(ctx))
	root.AddCommand(newSyncCommand(ctx))
	root.AddCommand(newEnrichCommand(ctx))
	root.AddCommand(newMergeCommand(ctx))
	return root
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := ctx.logger()
			cfg, err := ctx.loadConfig()
			if err != nil {
				// 没有配置也能提供只读查询；更新接口会返回 400。
				log.Warn("豆瓣配置未加载", "error", err)
			}
			s := server.New(server.Options{
				DataDir: ctx.dataDir,
				Config:  cfg,
				Logger:  log,
			})
			log.Info("启动服务", "addr", addr, "data_dir", ctx.dataDir)
			return s.Start(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "监听地址")
	return cmd
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "爬取“看过”列表并并入本地表",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := ctx.logger()
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			table, err := store.Load(ctx.watchedPath(), store.WatchedColumns)
			if err != nil {
				return err
			}
			existing := store.RecordsFromTable(table)
			known := make(map[string]struct{}, len(existing))
			for _, m := range existing {
				known[m.ID] = struct{}{}
			}

			posters := &poster.Store{
				Dir:    filepath.Join(ctx.dataDir, "posters"),
				Client: httpx.NewImageClient(cfg.Cookies),
			}
			crawler := &douban.Crawler{
				Client: httpx.NewDoubanClient(cfg.Cookies),
				Poster: posters.FetchFunc(),
			}

			log.Info("开始同步", "existing", len(known), "force_full", full)
			fresh, newCount, err := crawler.Crawl(cmd.Context(), cfg.UserID, known, full,
				func(processed, total, newSoFar int) {
					if processed == 1 || processed%15 == 0 {
						log.Info("抓取进度", "processed", processed, "total", total, "new", newSoFar)
					}
				})
			if err != nil {
				return err
			}

			merged := store.MergeRecords(existing, fresh)
			if err := store.Save(ctx.watchedPath(), store.TableFromRecords(merged, store.EnrichedColumns)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "同步完成：共 %d 条，新增 %d 条\n", len(merged), newCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "强制完整扫描（忽略已知 id）")
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "补齐详情字段、IMDb 标签与 tags，控制台输出进度",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := ctx.logger()
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			o := &enrich.Orchestrator{
				WatchedPath: ctx.watchedPath(),
				OutputPath:  ctx.tagsPath(),
				Detail:      &douban.Extractor{Client: httpx.NewDoubanClient(cfg.Cookies)},
				IMDB:        &imdb.Fetcher{Client: httpx.NewIMDBClient()},
				Logger:      log,
			}
			ui := newProgressUI(cmd.ErrOrStderr())
			return o.Run(cmd.Context(), ui.Handle)
		},
	}
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "离线重算 tags 列并重建 tag -> 影片映射",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := store.Load(ctx.tagsPath(), store.EnrichedColumns)
			if err != nil {
				return err
			}
			records := store.RecordsFromTable(table)
			// 全量重算：merge 是纯投影，重复执行结果一致。
			for i := range records {
				records[i].Tags = tags.Derive(records[i].Genres, records[i].IMDBTags)
			}
			if err := store.Save(ctx.tagsPath(), store.TableFromRecords(records, store.EnrichedColumns)); err != nil {
				return err
			}
			mapping := tags.BuildMapping(records)
			if err := store.SaveMapping(ctx.mappingPath(), mapping); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "重算完成：%d 条记录，%d 个不同 tag\n", len(records), len(mapping))
			return nil
		},
	}
}
