package apiclient

import (
	"context"
	"io"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

// ListQuery carries the derived filter state for a feedback listing request.
type ListQuery struct {
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// ListResult is a single page of feedback items plus the unpaged total.
type ListResult struct {
	Items []model.FeedbackItem `json:"items"`
	Total int                  `json:"total"`
}

// Summary aggregates item counts by status across the whole board.
type Summary struct {
	Total    int                          `json:"total"`
	ByStatus map[model.FeedbackStatus]int `json:"by_status"`
}

// CommentInput is the payload for posting a comment to an item.
type CommentInput struct {
	Comment       string `json:"comment"`
	SubmitterName string `json:"user_name,omitempty"`
}

// CreateFeedbackInput is the payload for submitting a new feedback item.
type CreateFeedbackInput struct {
	Type           model.FeedbackType     `json:"type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	ModelName      string                 `json:"model_name,omitempty"`
	ModelProvider  string                 `json:"model_provider,omitempty"`
	SubmitterEmail string                 `json:"user_email,omitempty"`
	SubmitterName  string                 `json:"user_name,omitempty"`
	Metadata       map[string]string      `json:"metadata,omitempty"`
	Attachments    []model.AttachmentMeta `json:"attachments,omitempty"`
	Environment    string                 `json:"environment,omitempty"`
}

// UploadInput carries one file destined for the attachment endpoint.
type UploadInput struct {
	FileName string
	Content  io.Reader
}

// Service is the feedback API surface the board controllers consume.
type Service interface {
	ListFeedback(ctx context.Context, query ListQuery) (ListResult, error)
	GetFeedbackSummary(ctx context.Context) (Summary, error)
	GetFeedbackComments(ctx context.Context, itemID string) ([]model.FeedbackComment, error)
	AddFeedbackComment(ctx context.Context, itemID string, input CommentInput) error
	ToggleFeedbackUpvote(ctx context.Context, itemID string) error
	CreateFeedback(ctx context.Context, input CreateFeedbackInput) (model.FeedbackItem, error)
	UploadAttachment(ctx context.Context, input UploadInput) (model.AttachmentMeta, error)
}

// Profile describes the authenticated account.
type Profile struct {
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// ProfileUpdate carries mutable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"display_name,omitempty"`
}

// PasswordChange carries a password rotation request.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SessionInfo describes one active login session.
type SessionInfo struct {
	ID        string `json:"id"`
	UserAgent string `json:"user_agent,omitempty"`
	Current   bool   `json:"current"`
}

// AccountService is the account-page API surface, listed for completeness.
type AccountService interface {
	GetProfile(ctx context.Context) (Profile, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error)
	ChangePassword(ctx context.Context, change PasswordChange) error
	GetSessions(ctx context.Context) ([]SessionInfo, error)
	RevokeSession(ctx context.Context, sessionID string) error
	LogoutAll(ctx context.Context) error
	ResendVerification(ctx context.Context) error
}
