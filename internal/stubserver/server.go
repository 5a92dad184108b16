package stubserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
)

const (
	routeFeedback         = "/api/feedback"
	routeFeedbackSummary  = "/api/feedback/summary"
	routeFeedbackComments = "/api/feedback/:id/comments"
	routeFeedbackUpvote   = "/api/feedback/:id/upvote"
	routeAttachments      = "/api/attachments"
	routeAccountProfile   = "/api/account/profile"
	routeAccountPassword  = "/api/account/password"
	routeAccountSessions  = "/api/account/sessions"
	routeAccountSession   = "/api/account/sessions/:id"
	routeAccountLogout    = "/api/account/logout-all"
	routeAccountResend    = "/api/account/resend-verification"

	viewerSessionName = "board_viewer"
	viewerSessionKey  = "viewer_id"

	corsOriginWildcard = "*"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{"Authorization", "Content-Type"}
)

// Config captures stub server construction parameters.
type Config struct {
	SessionSecret   string
	UploadDirectory string
}

// Server implements the feedback board REST API against a local database. It
// exists for development and integration testing; production deployments talk
// to the real backend.
type Server struct {
	database        *gorm.DB
	logger          *zap.Logger
	sessionStore    *sessions.CookieStore
	uploadDirectory string
}

// NewServer constructs a stub API server over the given database.
func NewServer(database *gorm.DB, logger *zap.Logger, configuration Config) *Server {
	sessionSecret := strings.TrimSpace(configuration.SessionSecret)
	if sessionSecret == "" {
		sessionSecret = storage.NewID()
	}
	return &Server{
		database:        database,
		logger:          logger,
		sessionStore:    sessions.NewCookieStore([]byte(sessionSecret)),
		uploadDirectory: strings.TrimSpace(configuration.UploadDirectory),
	}
}

// Router builds the gin engine with every API route registered.
func (server *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if server.logger != nil {
		router.Use(requestLogger(server.logger))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOriginWildcard},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(routeFeedback, server.listFeedback)
	router.POST(routeFeedback, server.createFeedback)
	router.GET(routeFeedbackSummary, server.feedbackSummary)
	router.GET(routeFeedbackComments, server.listComments)
	router.POST(routeFeedbackComments, server.addComment)
	router.POST(routeFeedbackUpvote, server.toggleUpvote)
	router.POST(routeAttachments, server.uploadAttachment)

	router.GET(routeAccountProfile, server.getProfile)
	router.PUT(routeAccountProfile, server.updateProfile)
	router.POST(routeAccountPassword, server.changePassword)
	router.GET(routeAccountSessions, server.listSessions)
	router.DELETE(routeAccountSession, server.revokeSession)
	router.POST(routeAccountLogout, server.logoutAll)
	router.POST(routeAccountResend, server.resendVerification)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		start := time.Now()
		ginContext.Next()
		logger.Info("http",
			zap.String("method", ginContext.Request.Method),
			zap.String("path", ginContext.Request.URL.Path),
			zap.Int("status", ginContext.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	}
}

// viewerID returns the session viewer identifier, minting one on first use.
func (server *Server) viewerID(ginContext *gin.Context) string {
	session, _ := server.sessionStore.Get(ginContext.Request, viewerSessionName)
	if storedValue, exists := session.Values[viewerSessionKey]; exists {
		if viewerID, valid := storedValue.(string); valid && viewerID != "" {
			return viewerID
		}
	}
	viewerID := storage.NewID()
	session.Values[viewerSessionKey] = viewerID
	_ = session.Save(ginContext.Request, ginContext.Writer)
	return viewerID
}
