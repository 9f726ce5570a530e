package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"TeamPulse/internal/middleware"
	"TeamPulse/internal/model"
	"TeamPulse/internal/service"

	"github.com/gin-gonic/gin"
)

// OpsHandler 管理员运维接口，只读为主
type OpsHandler struct {
	engine *service.Engine
}

func NewOpsHandler(engine *service.Engine) *OpsHandler {
	return &OpsHandler{engine: engine}
}

// Stats 仪表盘计数
func (h *OpsHandler) Stats(c *gin.Context) {
	d, err := h.engine.Search.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Leaderboard 积分榜，limit 默认 10
func (h *OpsHandler) Leaderboard(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 10)
	if !ok {
		return
	}
	list, err := h.engine.Users.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

// Search 全文检索 q，可选 kind=ideas|tasks|files
func (h *OpsHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	hits, err := h.engine.Search.Search(c.Request.Context(), c.Query("q"), model.SearchKind(c.Query("kind")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

// PollResults 投票结果
func (h *OpsHandler) PollResults(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid poll id"})
		return
	}
	res, err := h.engine.Polls.Results(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MissingStandups 最近 days 天没交站会的用户，days 默认 0 即今天
func (h *OpsHandler) MissingStandups(c *gin.Context) {
	days, ok := queryInt(c, "days", 0)
	if !ok {
		return
	}
	users, err := h.engine.Standups.UsersMissing(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SweepOverdue 手动触发逾期扫描
func (h *OpsHandler) SweepOverdue(c *gin.Context) {
	tasks, err := h.engine.Tasks.SweepOverdue(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("manual overdue sweep", "by", middleware.UserID(c), "count", len(tasks))
	c.JSON(http.StatusOK, gin.H{"count": len(tasks), "tasks": tasks})
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + key})
		return 0, false
	}
	return n, true
}
