package stubserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
)

const (
	jsonKeyError = "error"

	errorValueInvalidJSON     = "invalid_json"
	errorValueInvalidType     = "invalid_type"
	errorValueTitleTooShort   = "title_too_short"
	errorValueDescTooShort    = "description_too_short"
	errorValueMissingModel    = "model_name_or_provider_required"
	errorValueUnknownFeedback = "unknown_feedback"
	errorValueSaveFailed      = "save_failed"

	titleMinimumLength       = 3
	descriptionMinimumLength = 10

	defaultListLimit = 12
	maxListLimit     = 100
)

type createFeedbackRequest struct {
	Type           string                 `json:"type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	ModelName      string                 `json:"model_name"`
	ModelProvider  string                 `json:"model_provider"`
	SubmitterEmail string                 `json:"user_email"`
	SubmitterName  string                 `json:"user_name"`
	Metadata       map[string]string      `json:"metadata"`
	Attachments    []model.AttachmentMeta `json:"attachments"`
	Environment    string                 `json:"environment"`
}

func (server *Server) listFeedback(ginContext *gin.Context) {
	query := server.database.Model(&model.FeedbackItem{})

	if typeFilter, known := model.ParseFeedbackType(ginContext.Query("type")); known {
		query = query.Where("type = ?", typeFilter)
	}
	if statusFilter, known := model.ParseFeedbackStatus(ginContext.Query("status")); known {
		query = query.Where("status = ?", statusFilter)
	}
	if priorityFilter, known := model.ParseFeedbackPriority(ginContext.Query("priority")); known {
		query = query.Where("priority = ?", priorityFilter)
	}
	if searchText := strings.TrimSpace(ginContext.Query("search")); searchText != "" {
		likePattern := "%" + searchText + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", likePattern, likePattern)
	}

	var total int64
	if countErr := query.Count(&total).Error; countErr != nil {
		server.internalError(ginContext, countErr)
		return
	}

	switch sortMode, _ := model.ParseSortMode(ginContext.Query("sort_by")); sortMode {
	case model.SortModePopular:
		query = query.Order("upvotes DESC, created_at DESC")
	case model.SortModeOldest:
		query = query.Order("created_at ASC")
	default:
		query = query.Order("created_at DESC")
	}

	limit := parseBoundedInt(ginContext.Query("limit"), defaultListLimit, 1, maxListLimit)
	offset := parseBoundedInt(ginContext.Query("offset"), 0, 0, 1<<30)

	var items []model.FeedbackItem
	if findErr := query.Limit(limit).Offset(offset).Find(&items).Error; findErr != nil {
		server.internalError(ginContext, findErr)
		return
	}

	server.decorateItems(ginContext, items)

	ginContext.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// decorateItems fills the per-viewer upvote flags and expands the JSON columns.
func (server *Server) decorateItems(ginContext *gin.Context, items []model.FeedbackItem) {
	viewerID := server.viewerID(ginContext)
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}

	upvotedIDs := make(map[string]struct{})
	if len(itemIDs) > 0 {
		var upvotes []model.FeedbackUpvote
		if findErr := server.database.Where("viewer_id = ? AND feedback_id IN ?", viewerID, itemIDs).Find(&upvotes).Error; findErr == nil {
			for _, upvote := range upvotes {
				upvotedIDs[upvote.FeedbackID] = struct{}{}
			}
		}
	}

	for position := range items {
		_, hasUpvoted := upvotedIDs[items[position].ID]
		items[position].UserHasUpvoted = hasUpvoted
		expandStoredColumns(&items[position])
	}
}

func expandStoredColumns(item *model.FeedbackItem) {
	if item.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(item.MetadataJSON), &item.Metadata)
	}
	if item.AttachmentsJSON != "" {
		_ = json.Unmarshal([]byte(item.AttachmentsJSON), &item.Attachments)
	}
}

func (server *Server) createFeedback(ginContext *gin.Context) {
	var payload createFeedbackRequest
	if bindErr := ginContext.BindJSON(&payload); bindErr != nil {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	feedbackType, typeKnown := model.ParseFeedbackType(strings.TrimSpace(payload.Type))
	if !typeKnown {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidType})
		return
	}

	title := strings.TrimSpace(payload.Title)
	description := strings.TrimSpace(payload.Description)
	modelName := strings.TrimSpace(payload.ModelName)
	modelProvider := strings.TrimSpace(payload.ModelProvider)

	if len(title) < titleMinimumLength {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueTitleTooShort})
		return
	}
	if len(description) < descriptionMinimumLength {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueDescTooShort})
		return
	}
	if feedbackType == model.FeedbackTypeModelRequest && modelName == "" && modelProvider == "" {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingModel})
		return
	}

	item := model.FeedbackItem{
		ID:             storage.NewID(),
		Type:           feedbackType,
		Title:          title,
		Description:    description,
		Status:         model.FeedbackStatusOpen,
		ModelName:      modelName,
		ModelProvider:  modelProvider,
		SubmitterName:  strings.TrimSpace(payload.SubmitterName),
		SubmitterEmail: strings.TrimSpace(payload.SubmitterEmail),
		Environment:    strings.TrimSpace(payload.Environment),
	}

	if len(payload.Metadata) > 0 {
		encodedMetadata, _ := json.Marshal(payload.Metadata)
		item.MetadataJSON = string(encodedMetadata)
		item.Metadata = payload.Metadata
	}
	if len(payload.Attachments) > 0 {
		encodedAttachments, _ := json.Marshal(payload.Attachments)
		item.AttachmentsJSON = string(encodedAttachments)
		item.Attachments = payload.Attachments
	}

	if createErr := server.database.Create(&item).Error; createErr != nil {
		server.internalError(ginContext, createErr)
		return
	}

	ginContext.JSON(http.StatusCreated, item)
}

func (server *Server) feedbackSummary(ginContext *gin.Context) {
	type statusCountRow struct {
		Status model.FeedbackStatus
		Count  int
	}

	var rows []statusCountRow
	if groupErr := server.database.Model(&model.FeedbackItem{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; groupErr != nil {
		server.internalError(ginContext, groupErr)
		return
	}

	byStatus := make(map[model.FeedbackStatus]int, len(rows))
	total := 0
	for _, row := range rows {
		byStatus[row.Status] = row.Count
		total += row.Count
	}

	ginContext.JSON(http.StatusOK, gin.H{"total": total, "by_status": byStatus})
}

func (server *Server) internalError(ginContext *gin.Context, cause error) {
	if server.logger != nil {
		server.logger.Warn("stub_request_failed", zap.Error(cause))
	}
	ginContext.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
}

func parseBoundedInt(rawValue string, fallback int, minimum int, maximum int) int {
	parsed, parseErr := strconv.Atoi(strings.TrimSpace(rawValue))
	if parseErr != nil {
		return fallback
	}
	if parsed < minimum {
		return minimum
	}
	if parsed > maximum {
		return maximum
	}
	return parsed
}
