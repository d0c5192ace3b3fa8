package handler

import (
	"errors"
	"net/http"

	"github.com/atelier/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login 校验账号并建立会话，按客户端 IP 限速。
func (a *API) Login(c *gin.Context) {
	if !a.limiter.Allow(c.ClientIP()) {
		respondError(c, http.StatusTooManyRequests, service.ErrTooManyAttempts.Error())
		return
	}

	var payload loginPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}

	user, err := a.auth.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		a.logger.Error("login failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout 清除会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "Could not clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me 返回当前登录的用户名。
func (a *API) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": currentUsername(c)})
}

// ChangePassword 修改当前用户的密码。
func (a *API) ChangePassword(c *gin.Context) {
	var payload passwordPayload
	if !bindJSON(c, &payload, "Invalid request") {
		return
	}

	userID, _ := sessions.Default(c).Get(sessionUserIDKey).(uint)
	if err := a.auth.ChangePassword(userID, payload.CurrentPassword, payload.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, service.ErrPasswordTooWeak):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "Could not change password")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// AuthRequired 拒绝没有会话的后台请求。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			respondError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUsername(c *gin.Context) string {
	username, _ := sessions.Default(c).Get(sessionUsernameKey).(string)
	return username
}
