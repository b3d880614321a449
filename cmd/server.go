package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donghua-tracker/app/aliases"
	"donghua-tracker/app/config"
	"donghua-tracker/app/database"
	"donghua-tracker/app/invidious"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/matcher"
	"donghua-tracker/app/server"
	"donghua-tracker/app/service"
	"donghua-tracker/app/tmdb"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动服务器",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		// 创建日志器
		log := logger.New(cfg.Log)
		defer log.Sync()

		// 匹配算法参数
		if cfg.Matcher.NgramSize > 0 {
			matcher.NgramSize = cfg.Matcher.NgramSize
		}
		if cfg.Matcher.CollectionMaxDuration > 0 {
			matcher.CollectionMaxDuration = cfg.Matcher.CollectionMaxDuration
		}

		// 初始化数据库
		if err := database.Init(cfg, log); err != nil {
			log.Fatalf("数据库初始化失败: %v", err)
		}

		// 别名词典，文件变化时热更新
		dict := aliases.New(cfg.Aliases.Path, log)
		if err := dict.Watch(); err != nil {
			log.Warnf("别名词典监听失败: %v", err)
		}
		defer dict.Close()

		// 上游客户端
		inv := invidious.New(cfg.Invidious, log)
		if !inv.Probe() {
			log.Warnf("Invidious 实例探活失败，搜索时将自动切换实例")
		}
		tmdbClient := tmdb.New(cfg.TMDB, log)
		if !tmdbClient.IsConfigured() {
			log.Warnf("TMDB API Key 未配置，系列元数据补全不可用")
		}

		// 视频源查找服务
		store := service.NewSourceStore(database.GetDB(), log)
		finder := service.NewSourceFinder(cfg, log, store, inv, dict)

		srv := server.New(cfg, log, inv, tmdbClient, finder)

		// 在协程中启动服务器
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("启动服务器失败: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("收到关闭信号，正在关闭服务器...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("服务器关闭失败: %v", err)
		}
		log.Info("服务器已退出")
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
