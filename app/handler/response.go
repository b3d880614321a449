package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApiResponse 通用响应结构
type ApiResponse struct {
	Code    int    `json:"code"`    // 状态码，0表示成功
	Message string `json:"message"` // 响应消息
	Data    any    `json:"data"`    // 响应数据
}

// success 创建成功响应
func success(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, ApiResponse{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// fail 创建错误响应
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, ApiResponse{
		Code:    status,
		Message: message,
	})
}
