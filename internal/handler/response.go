package handler

import (
	"log/slog"
	"net/http"

	"TeamPulse/internal/pkg"

	"github.com/gin-gonic/gin"
)

// statusOf 错误分类对应的 HTTP 状态码
func statusOf(err error) int {
	switch pkg.CodeOf(err) {
	case pkg.CodeNotFound:
		return http.StatusNotFound
	case pkg.CodeInvalidArgument, pkg.CodeInvalidTransition:
		return http.StatusBadRequest
	case pkg.CodeConstraint:
		return http.StatusConflict
	case pkg.CodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "err", err)
	}
	body := gin.H{"msg": err.Error()}
	if code := pkg.CodeOf(err); code != "" {
		body["code"] = code
	}
	c.JSON(status, body)
}
