package stubserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The account endpoints exist so the account client calls have a live target
// in integration tests. The stub keeps a single in-memory profile per viewer
// session; nothing here survives a restart.

const (
	profileSessionKeyEmail = "profile_email"
	profileSessionKeyName  = "profile_name"

	defaultProfileEmail = "viewer@example.com"

	errorValueMissingPassword = "missing_password"
)

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (server *Server) getProfile(ginContext *gin.Context) {
	session, _ := server.sessionStore.Get(ginContext.Request, viewerSessionName)
	email, _ := session.Values[profileSessionKeyEmail].(string)
	if email == "" {
		email = defaultProfileEmail
	}
	displayName, _ := session.Values[profileSessionKeyName].(string)
	ginContext.JSON(http.StatusOK, gin.H{
		"email":          email,
		"display_name":   displayName,
		"email_verified": true,
	})
}

func (server *Server) updateProfile(ginContext *gin.Context) {
	var payload updateProfileRequest
	if bindErr := ginContext.BindJSON(&payload); bindErr != nil {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	session, _ := server.sessionStore.Get(ginContext.Request, viewerSessionName)
	session.Values[profileSessionKeyName] = strings.TrimSpace(payload.DisplayName)
	_ = session.Save(ginContext.Request, ginContext.Writer)
	server.getProfile(ginContext)
}

func (server *Server) changePassword(ginContext *gin.Context) {
	var payload changePasswordRequest
	if bindErr := ginContext.BindJSON(&payload); bindErr != nil {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	if strings.TrimSpace(payload.CurrentPassword) == "" || strings.TrimSpace(payload.NewPassword) == "" {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingPassword})
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{})
}

func (server *Server) listSessions(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, gin.H{"items": []gin.H{
		{
			"id":         server.viewerID(ginContext),
			"user_agent": ginContext.Request.UserAgent(),
			"current":    true,
		},
	}})
}

func (server *Server) revokeSession(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, gin.H{})
}

func (server *Server) logoutAll(ginContext *gin.Context) {
	session, _ := server.sessionStore.Get(ginContext.Request, viewerSessionName)
	session.Options.MaxAge = -1
	_ = session.Save(ginContext.Request, ginContext.Writer)
	ginContext.JSON(http.StatusOK, gin.H{})
}

func (server *Server) resendVerification(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, gin.H{})
}
