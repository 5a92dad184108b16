package stubserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
)

const errorValueEmptyComment = "empty_comment"

type addCommentRequest struct {
	Comment       string `json:"comment"`
	SubmitterName string `json:"user_name"`
}

func (server *Server) listComments(ginContext *gin.Context) {
	feedbackID := strings.TrimSpace(ginContext.Param("id"))
	if !server.feedbackExists(ginContext, feedbackID) {
		return
	}

	var comments []model.FeedbackComment
	if findErr := server.database.
		Where("feedback_id = ?", feedbackID).
		Order("created_at ASC").
		Find(&comments).Error; findErr != nil {
		server.internalError(ginContext, findErr)
		return
	}

	ginContext.JSON(http.StatusOK, gin.H{"items": comments})
}

func (server *Server) addComment(ginContext *gin.Context) {
	feedbackID := strings.TrimSpace(ginContext.Param("id"))
	if !server.feedbackExists(ginContext, feedbackID) {
		return
	}

	var payload addCommentRequest
	if bindErr := ginContext.BindJSON(&payload); bindErr != nil {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	commentText := strings.TrimSpace(payload.Comment)
	if commentText == "" {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueEmptyComment})
		return
	}

	comment := model.FeedbackComment{
		ID:            storage.NewID(),
		FeedbackID:    feedbackID,
		Comment:       commentText,
		SubmitterName: strings.TrimSpace(payload.SubmitterName),
	}

	if createErr := server.database.Create(&comment).Error; createErr != nil {
		server.internalError(ginContext, createErr)
		return
	}

	if updateErr := server.database.Model(&model.FeedbackItem{}).
		Where("id = ?", feedbackID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; updateErr != nil {
		server.internalError(ginContext, updateErr)
		return
	}

	ginContext.JSON(http.StatusCreated, gin.H{})
}

// toggleUpvote flips the session viewer's upvote row and recounts the total.
func (server *Server) toggleUpvote(ginContext *gin.Context) {
	feedbackID := strings.TrimSpace(ginContext.Param("id"))
	if !server.feedbackExists(ginContext, feedbackID) {
		return
	}
	viewerID := server.viewerID(ginContext)

	var existingUpvote model.FeedbackUpvote
	lookupErr := server.database.
		Where("feedback_id = ? AND viewer_id = ?", feedbackID, viewerID).
		First(&existingUpvote).Error

	switch {
	case lookupErr == nil:
		if deleteErr := server.database.Delete(&existingUpvote).Error; deleteErr != nil {
			server.internalError(ginContext, deleteErr)
			return
		}
	case errors.Is(lookupErr, gorm.ErrRecordNotFound):
		newUpvote := model.FeedbackUpvote{
			ID:         storage.NewID(),
			FeedbackID: feedbackID,
			ViewerID:   viewerID,
		}
		if createErr := server.database.Create(&newUpvote).Error; createErr != nil {
			server.internalError(ginContext, createErr)
			return
		}
	default:
		server.internalError(ginContext, lookupErr)
		return
	}

	var upvoteCount int64
	if countErr := server.database.Model(&model.FeedbackUpvote{}).
		Where("feedback_id = ?", feedbackID).
		Count(&upvoteCount).Error; countErr != nil {
		server.internalError(ginContext, countErr)
		return
	}
	if updateErr := server.database.Model(&model.FeedbackItem{}).
		Where("id = ?", feedbackID).
		UpdateColumn("upvotes", upvoteCount).Error; updateErr != nil {
		server.internalError(ginContext, updateErr)
		return
	}

	ginContext.JSON(http.StatusOK, gin.H{})
}

func (server *Server) feedbackExists(ginContext *gin.Context, feedbackID string) bool {
	if feedbackID == "" {
		ginContext.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownFeedback})
		return false
	}
	var item model.FeedbackItem
	if lookupErr := server.database.Select("id").First(&item, "id = ?", feedbackID).Error; lookupErr != nil {
		ginContext.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownFeedback})
		return false
	}
	return true
}
