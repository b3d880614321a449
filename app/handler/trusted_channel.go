package handler

import (
	"net/http"

	"donghua-tracker/app/database"
	"donghua-tracker/app/model"

	"github.com/gin-gonic/gin"
)

// TrustedChannelHandler 信任频道处理器
type TrustedChannelHandler struct{}

// NewTrustedChannelHandler 创建信任频道处理器
func NewTrustedChannelHandler() *TrustedChannelHandler {
	return &TrustedChannelHandler{}
}

// GetChannels 获取信任频道列表
func (h *TrustedChannelHandler) GetChannels(c *gin.Context) {
	var channels []model.TrustedChannel
	if err := database.DB.Order("created_at DESC").Find(&channels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取信任频道失败"})
		return
	}
	success(c, channels, "")
}

// AddChannel 添加信任频道
func (h *TrustedChannelHandler) AddChannel(c *gin.Context) {
	var req struct {
		ChannelID string `json:"channel_id" binding:"required"`
		Name      string `json:"name"`
		Note      string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := model.TrustedChannel{
		ChannelID: req.ChannelID,
		Name:      req.Name,
		Note:      req.Note,
	}
	if err := database.DB.Create(&channel).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "频道已在信任列表中"})
		return
	}
	c.JSON(http.StatusCreated, channel)
}

// DeleteChannel 移除信任频道
func (h *TrustedChannelHandler) DeleteChannel(c *gin.Context) {
	err := database.DB.Where("channel_id = ?", c.Param("channelId")).
		Delete(&model.TrustedChannel{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "移除信任频道失败"})
		return
	}
	success(c, nil, "已移除信任频道")
}
