package handler

import (
	"errors"
	"net/http"
	"speaker-negotiator/internal/repository"
	"speaker-negotiator/internal/service"
	"speaker-negotiator/pkg/log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// queryInt 读取一个正整数查询参数，缺失或非法时使用默认值，并限制上限。
func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// adminError 把 service 层的错误映射为 HTTP 状态码。
func adminError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrAuditDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": "审计功能未启用", "data": nil})
	case errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在或已过期", "data": nil})
	default:
		log.Error(op+": failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": op + " 失败", "data": nil})
	}
}

// ListRecords 处理分页获取议价记录的请求，支持按 rule 过滤。
func (h *AdminHandler) ListRecords(c *gin.Context) {
	page := queryInt(c, "page", 1, 0)
	size := queryInt(c, "size", 20, maxPageSize)

	records, err := h.adminService.ListRecords(page, size, c.Query("rule"))
	if err != nil {
		adminError(c, "ListRecords", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}

// SearchTurns 处理议价轮次的全文检索请求。
func (h *AdminHandler) SearchTurns(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "查询参数 q 不能为空", "data": nil})
		return
	}
	size := queryInt(c, "size", 10, maxPageSize)

	results, err := h.adminService.SearchTurns(c.Request.Context(), query, size)
	if err != nil {
		adminError(c, "SearchTurns", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": results})
}

// ExportTranscript 把会话记录导出到对象存储并返回下载链接。
func (h *AdminHandler) ExportTranscript(c *gin.Context) {
	export, err := h.adminService.ExportTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		adminError(c, "ExportTranscript", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": export})
}

// DeleteSession 删除一个议价会话。
func (h *AdminHandler) DeleteSession(c *gin.Context) {
	if err := h.adminService.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		adminError(c, "DeleteSession", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}
