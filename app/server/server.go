package server

import (
	"context"
	"net/http"

	"donghua-tracker/app/config"
	"donghua-tracker/app/database"
	"donghua-tracker/app/handler"
	"donghua-tracker/app/invidious"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/service"
	"donghua-tracker/app/tmdb"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config *config.Config
	Logger *logger.Logger
	gin    *gin.Engine
	http   *http.Server

	invidious *invidious.Client
	finder    *service.SourceFinder
	tmdb      *tmdb.Client
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger, inv *invidious.Client, tmdbClient *tmdb.Client, finder *service.SourceFinder) *Server {
	router := gin.Default()

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config:    cfg,
		Logger:    log,
		invidious: inv,
		finder:    finder,
		tmdb:      tmdbClient,
	}

	// 设置路由
	s.setupRoutes()

	return s
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// 关闭数据库连接
	if err := database.Close(); err != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", err)
	}
	return s.http.Shutdown(ctx)
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes() {
	// 创建处理器实例
	seriesHandler := handler.NewSeriesHandler(s.Logger, s.tmdb)
	sourceHandler := handler.NewSourceHandler(s.Logger, s.finder)
	ruleHandler := handler.NewRuleHandler()
	trustedHandler := handler.NewTrustedChannelHandler()

	api := s.gin.Group("/api")

	// 健康检查，含上游实例探活
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "ok",
			"invidious_online": s.invidious.Probe(),
		})
	})

	// TMDB 搜索（创建系列时选择关联用）
	api.GET("/tmdb/search", seriesHandler.SearchTmdb)

	// 系列相关路由
	series := api.Group("/series")
	{
		series.POST("/", seriesHandler.CreateSeries)
		series.GET("/", seriesHandler.GetSeriesList)
		series.GET("/:id", seriesHandler.GetSeries)
		series.PUT("/:id", seriesHandler.UpdateSeries)
		series.DELETE("/:id", seriesHandler.DeleteSeries)

		// 别名管理
		series.POST("/:id/aliases", seriesHandler.AddAlias)
		series.DELETE("/:id/aliases/:aliasId", seriesHandler.DeleteAlias)

		// 视频源查找与同步
		series.GET("/:id/episodes/:ep/sources", sourceHandler.FindSources)
		series.POST("/:id/sync", sourceHandler.SyncSeries)
		series.GET("/:id/sync-logs", sourceHandler.GetSyncLogs)

		// 搜索规则
		series.GET("/:id/rules", ruleHandler.GetRule)
		series.PUT("/:id/rules", ruleHandler.PutRule)
		series.DELETE("/:id/rules", ruleHandler.DeleteRule)
	}

	// 信任频道
	channels := api.Group("/trusted-channels")
	{
		channels.GET("/", trustedHandler.GetChannels)
		channels.POST("/", trustedHandler.AddChannel)
		channels.DELETE("/:channelId", trustedHandler.DeleteChannel)
	}
}
