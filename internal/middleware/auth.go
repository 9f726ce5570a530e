package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"TeamPulse/internal/pkg"

	"github.com/gin-gonic/gin"
)

const ContextUserIDKey = "user_id"

// AdminChecker 管理员判定，由 service.UserService 实现
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AuthMiddleware 校验 Bearer token，并要求 token 对应的用户是管理员
func AuthMiddleware(issuer *pkg.TokenIssuer, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}

		claims, err := issuer.Parse(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, pkg.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msg})
			return
		}

		ok, err := admins.IsAdmin(c.Request.Context(), claims.UserID)
		if err != nil {
			slog.Error("admin check failed", "user_id", claims.UserID, "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"msg": "admin check failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "admin only"})
			return
		}

		// 注入 user_id
		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID 取出鉴权后的用户 id
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserIDKey)
}
