package handler

import (
	"net/http"
	"strconv"

	"donghua-tracker/app/database"
	"donghua-tracker/app/logger"
	"donghua-tracker/app/model"
	"donghua-tracker/app/tmdb"

	"github.com/gin-gonic/gin"
)

// SeriesHandler 系列管理处理器
type SeriesHandler struct {
	log  *logger.Logger
	tmdb *tmdb.Client
}

// NewSeriesHandler 创建系列处理器
func NewSeriesHandler(log *logger.Logger, tmdbClient *tmdb.Client) *SeriesHandler {
	return &SeriesHandler{log: log, tmdb: tmdbClient}
}

// createSeriesRequest 创建系列的请求体
type createSeriesRequest struct {
	Title         string `json:"title" binding:"required"`
	TmdbID        *int64 `json:"tmdb_id"`
	TotalEpisodes int    `json:"total_episodes"`
}

// CreateSeries 创建追踪系列。
// 关联 TMDB 时自动补全简介、封面与总集数；手动系列按请求集数建集。
func (h *SeriesHandler) CreateSeries(c *gin.Context) {
	var req createSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series := model.Series{
		Title:         req.Title,
		TmdbID:        req.TmdbID,
		TotalEpisodes: req.TotalEpisodes,
		Status:        model.SeriesWatching,
	}

	// TMDB 关联系列补全元数据
	if req.TmdbID != nil && h.tmdb.IsConfigured() {
		if detail, err := h.tmdb.GetTVDetail(*req.TmdbID); err != nil {
			h.log.Warnf("获取 TMDB 详情失败: %v", err)
		} else {
			series.OriginalTitle = detail.OriginalName
			series.Overview = detail.Overview
			series.PosterURL = tmdb.PosterURL(detail.PosterPath)
			if detail.NumberOfEpisodes > 0 {
				series.TotalEpisodes = detail.NumberOfEpisodes
			}
		}
	}

	if err := database.DB.Create(&series).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建系列失败"})
		return
	}

	// 按总集数预建集数记录
	for i := 1; i <= series.TotalEpisodes; i++ {
		episode := model.Episode{
			SeriesID:    series.ID,
			AbsoluteNum: i,
			SeasonNum:   1,
			EpisodeNum:  i,
		}
		if err := database.DB.Create(&episode).Error; err != nil {
			h.log.Warnf("创建集数记录失败: ep=%d - %v", i, err)
		}
	}

	c.JSON(http.StatusCreated, series)
}

// GetSeriesList 获取系列列表
func (h *SeriesHandler) GetSeriesList(c *gin.Context) {
	query := database.DB.Model(&model.Series{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		search = "%" + search + "%"
		query = query.Where("title LIKE ? OR original_title LIKE ?", search, search)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var total int64
	query.Count(&total)

	var list []model.Series
	if err := query.Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取系列列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetSeries 获取单个系列（含集数与别名）
func (h *SeriesHandler) GetSeries(c *gin.Context) {
	var series model.Series
	if err := database.DB.Preload("Episodes").Preload("Aliases").
		First(&series, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "系列不存在"})
		return
	}
	c.JSON(http.StatusOK, series)
}

// updateSeriesRequest 更新系列的请求体
type updateSeriesRequest struct {
	Title         *string `json:"title"`
	Status        *string `json:"status"`
	TotalEpisodes *int    `json:"total_episodes"`
	PosterURL     *string `json:"poster_url"`
}

// UpdateSeries 更新系列
func (h *SeriesHandler) UpdateSeries(c *gin.Context) {
	var series model.Series
	if err := database.DB.First(&series, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "系列不存在"})
		return
	}

	var req updateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Status != nil {
		if *req.Status != model.SeriesWatching &&
			*req.Status != model.SeriesFinished &&
			*req.Status != model.SeriesPaused {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的追踪状态"})
			return
		}
		updates["status"] = *req.Status
	}
	if req.TotalEpisodes != nil {
		updates["total_episodes"] = *req.TotalEpisodes
	}
	if req.PosterURL != nil {
		updates["poster_url"] = *req.PosterURL
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&series).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新系列失败"})
			return
		}
	}

	database.DB.First(&series, series.ID)
	c.JSON(http.StatusOK, series)
}

// DeleteSeries 删除系列（软删除）
func (h *SeriesHandler) DeleteSeries(c *gin.Context) {
	if err := database.DB.Delete(&model.Series{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除系列失败"})
		return
	}
	success(c, nil, "系列已删除")
}

// AddAlias 为系列添加自定义别名
func (h *SeriesHandler) AddAlias(c *gin.Context) {
	seriesID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的系列ID"})
		return
	}

	var req struct {
		Alias string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alias := model.SeriesAlias{SeriesID: uint(seriesID), Alias: req.Alias}
	if err := database.DB.Create(&alias).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "别名已存在"})
		return
	}
	c.JSON(http.StatusCreated, alias)
}

// DeleteAlias 删除自定义别名
func (h *SeriesHandler) DeleteAlias(c *gin.Context) {
	err := database.DB.
		Where("series_id = ? AND id = ?", c.Param("id"), c.Param("aliasId")).
		Delete(&model.SeriesAlias{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除别名失败"})
		return
	}
	success(c, nil, "别名已删除")
}

// SearchTmdb 按名称搜索 TMDB 剧集，供创建系列时选择关联
func (h *SeriesHandler) SearchTmdb(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询参数 q"})
		return
	}

	results, err := h.tmdb.SearchTV(query)
	if err != nil {
		if err == tmdb.ErrNotConfigured {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "TMDB 未配置"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "TMDB 搜索失败"})
		return
	}
	success(c, results, "搜索完成")
}
