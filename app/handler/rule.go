package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"donghua-tracker/app/database"
	"donghua-tracker/app/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RuleHandler 系列搜索规则处理器
type RuleHandler struct{}

// NewRuleHandler 创建规则处理器
func NewRuleHandler() *RuleHandler {
	return &RuleHandler{}
}

// ruleRequest 规则请求体，四个列表均可省略
type ruleRequest struct {
	AllowKeywords []string `json:"allow_keywords"`
	DenyKeywords  []string `json:"deny_keywords"`
	AllowChannels []string `json:"allow_channels"`
	DenyChannels  []string `json:"deny_channels"`
}

// GetRule 获取系列的搜索规则
func (h *RuleHandler) GetRule(c *gin.Context) {
	var rule model.SourceRule
	err := database.DB.Where("series_id = ?", c.Param("id")).First(&rule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			success(c, ruleRequest{}, "未配置规则")
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取规则失败"})
		return
	}

	parsed := rule.Parse()
	success(c, ruleRequest{
		AllowKeywords: parsed.AllowKeywords,
		DenyKeywords:  parsed.DenyKeywords,
		AllowChannels: parsed.AllowChannels,
		DenyChannels:  parsed.DenyChannels,
	}, "")
}

// PutRule 设置系列的搜索规则，整体覆盖
func (h *RuleHandler) PutRule(c *gin.Context) {
	seriesID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的系列ID"})
		return
	}

	var series model.Series
	if err := database.DB.First(&series, seriesID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "系列不存在"})
		return
	}

	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := model.SourceRule{
		SeriesID:      uint(seriesID),
		AllowKeywords: marshalList(req.AllowKeywords),
		DenyKeywords:  marshalList(req.DenyKeywords),
		AllowChannels: marshalList(req.AllowChannels),
		DenyChannels:  marshalList(req.DenyChannels),
	}

	var existing model.SourceRule
	err = database.DB.Where("series_id = ?", seriesID).First(&existing).Error
	if err == nil {
		rule.ID = existing.ID
		err = database.DB.Model(&existing).Updates(map[string]any{
			"allow_keywords": rule.AllowKeywords,
			"deny_keywords":  rule.DenyKeywords,
			"allow_channels": rule.AllowChannels,
			"deny_channels":  rule.DenyChannels,
		}).Error
	} else if err == gorm.ErrRecordNotFound {
		err = database.DB.Create(&rule).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存规则失败"})
		return
	}
	success(c, req, "规则已保存")
}

// DeleteRule 删除系列的搜索规则
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	err := database.DB.Where("series_id = ?", c.Param("id")).
		Delete(&model.SourceRule{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除规则失败"})
		return
	}
	success(c, nil, "规则已删除")
}

func marshalList(list []string) string {
	if len(list) == 0 {
		return ""
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(raw)
}
