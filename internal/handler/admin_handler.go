package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/auth"
	"go.uber.org/zap"
)

const sessionTokenKey = "token"

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 校验管理员账号并签发会话。令牌只写入 cookie 会话，不出现在响应体中，
// 这样 Logout 清除 cookie 后登录签发的凭据即告失效。
func (a *API) Login(c *gin.Context) {
	if !a.auth.Configured() {
		respondError(c, http.StatusServiceUnavailable, "authentication is not configured")
		return
	}

	var payload loginPayload
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	session, err := a.auth.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		a.respondServiceError(c, err, "login failed")
		return
	}

	store := sessions.Default(c)
	store.Set(sessionTokenKey, session.Token)
	if err := store.Save(); err != nil {
		a.logger.Error("save session", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": session.Actor, "expires_at": session.ExpiresAt})
}

// Logout 清除 cookie 会话。
func (a *API) Logout(c *gin.Context) {
	store := sessions.Default(c)
	store.Clear()
	store.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := store.Save(); err != nil {
		a.logger.Warn("clear session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AuthRequired 接受 Bearer 令牌或 cookie 会话，并把 actor 放入上下文。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.auth.Configured() {
			respondError(c, http.StatusServiceUnavailable, "authentication is not configured")
			c.Abort()
			return
		}

		token := bearerToken(c)
		if token == "" {
			if value, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
				token = value
			}
		}
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		actor, err := a.auth.Verify(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// CurrentUser 返回当前会话的 actor。
func (a *API) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": actorFrom(c)})
}
