package handler

import (
	"net/http"
	"strconv"

	"donghua-tracker/app/database"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/model"
	"donghua-tracker/app/service"

	"github.com/gin-gonic/gin"
)

// SourceHandler 视频源查找与同步处理器
type SourceHandler struct {
	log    *logger.Logger
	finder *service.SourceFinder
}

// NewSourceHandler 创建视频源处理器
func NewSourceHandler(log *logger.Logger, finder *service.SourceFinder) *SourceHandler {
	return &SourceHandler{log: log, finder: finder}
}

// FindSources 查找某集的视频源。
// force=true 时跳过缓存重新搜索。
func (h *SourceHandler) FindSources(c *gin.Context) {
	seriesID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的系列ID"})
		return
	}
	episodeNum, err := strconv.Atoi(c.Param("ep"))
	if err != nil || episodeNum < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的集数"})
		return
	}
	force := c.Query("force") == "true"

	sources, err := h.finder.FindSources(uint(seriesID), episodeNum, force)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(sources))
	for _, s := range sources {
		out = append(out, gin.H{
			"id":            s.ID,
			"video_id":      s.VideoID,
			"title":         s.Title,
			"channel_name":  s.ChannelName,
			"duration":      s.Duration,
			"view_count":    s.ViewCount,
			"match_score":   s.MatchScore,
			"watch_url":     s.WatchURL(),
			"thumbnail_url": s.ThumbnailURL(),
		})
	}
	success(c, out, "查找完成")
}

// SyncSeries 同步整部系列的视频源
func (h *SourceHandler) SyncSeries(c *gin.Context) {
	seriesID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的系列ID"})
		return
	}

	result, err := h.finder.SyncSeries(uint(seriesID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	success(c, result, "同步完成")
}

// GetSyncLogs 获取系列的同步历史
func (h *SourceHandler) GetSyncLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var logs []model.SyncLog
	err := database.DB.Where("series_id = ?", c.Param("id")).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取同步日志失败"})
		return
	}
	success(c, logs, "")
}
