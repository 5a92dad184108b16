package model

import "time"

// FeedbackType categorizes a feedback item.
type FeedbackType string

const (
	FeedbackTypeFeatureRequest   FeedbackType = "feature_request"
	FeedbackTypeBugReport        FeedbackType = "bug_report"
	FeedbackTypeModelRequest     FeedbackType = "model_request"
	FeedbackTypeGeneral          FeedbackType = "general"
	FeedbackTypeSecurityReport   FeedbackType = "security_report"
	FeedbackTypePerformanceIssue FeedbackType = "performance_issue"
)

// FeedbackStatus tracks the lifecycle of a feedback item.
type FeedbackStatus string

const (
	FeedbackStatusOpen        FeedbackStatus = "open"
	FeedbackStatusUnderReview FeedbackStatus = "under_review"
	FeedbackStatusNeedsInfo   FeedbackStatus = "needs_info"
	FeedbackStatusInProgress  FeedbackStatus = "in_progress"
	FeedbackStatusCompleted   FeedbackStatus = "completed"
	FeedbackStatusShipped     FeedbackStatus = "shipped"
	FeedbackStatusRejected    FeedbackStatus = "rejected"
	FeedbackStatusDuplicate   FeedbackStatus = "duplicate"
)

// FeedbackPriority ranks a feedback item for triage.
type FeedbackPriority string

const (
	FeedbackPriorityLow      FeedbackPriority = "low"
	FeedbackPriorityMedium   FeedbackPriority = "medium"
	FeedbackPriorityHigh     FeedbackPriority = "high"
	FeedbackPriorityCritical FeedbackPriority = "critical"
)

// SortMode orders a feedback listing.
type SortMode string

const (
	SortModeRecent  SortMode = "recent"
	SortModePopular SortMode = "popular"
	SortModeOldest  SortMode = "oldest"
)

// AttachmentStorageLink marks an attachment synthesized from a reference URL
// rather than an uploaded file.
const AttachmentStorageLink = "link"

var feedbackTypeValues = map[FeedbackType]struct{}{
	FeedbackTypeFeatureRequest:   {},
	FeedbackTypeBugReport:        {},
	FeedbackTypeModelRequest:     {},
	FeedbackTypeGeneral:          {},
	FeedbackTypeSecurityReport:   {},
	FeedbackTypePerformanceIssue: {},
}

var feedbackStatusValues = map[FeedbackStatus]struct{}{
	FeedbackStatusOpen:        {},
	FeedbackStatusUnderReview: {},
	FeedbackStatusNeedsInfo:   {},
	FeedbackStatusInProgress:  {},
	FeedbackStatusCompleted:   {},
	FeedbackStatusShipped:     {},
	FeedbackStatusRejected:    {},
	FeedbackStatusDuplicate:   {},
}

var feedbackPriorityValues = map[FeedbackPriority]struct{}{
	FeedbackPriorityLow:      {},
	FeedbackPriorityMedium:   {},
	FeedbackPriorityHigh:     {},
	FeedbackPriorityCritical: {},
}

var sortModeValues = map[SortMode]struct{}{
	SortModeRecent:  {},
	SortModePopular: {},
	SortModeOldest:  {},
}

// ParseFeedbackType validates a raw type value.
func ParseFeedbackType(rawValue string) (FeedbackType, bool) {
	candidate := FeedbackType(rawValue)
	_, known := feedbackTypeValues[candidate]
	return candidate, known
}

// ParseFeedbackStatus validates a raw status value.
func ParseFeedbackStatus(rawValue string) (FeedbackStatus, bool) {
	candidate := FeedbackStatus(rawValue)
	_, known := feedbackStatusValues[candidate]
	return candidate, known
}

// ParseFeedbackPriority validates a raw priority value.
func ParseFeedbackPriority(rawValue string) (FeedbackPriority, bool) {
	candidate := FeedbackPriority(rawValue)
	_, known := feedbackPriorityValues[candidate]
	return candidate, known
}

// ParseSortMode validates a raw sort value.
func ParseSortMode(rawValue string) (SortMode, bool) {
	candidate := SortMode(rawValue)
	_, known := sortModeValues[candidate]
	return candidate, known
}

// FeedbackItem is a single submitted board entry.
type FeedbackItem struct {
	ID              string            `json:"id" gorm:"primaryKey;size:36"`
	Type            FeedbackType      `json:"type" gorm:"index;not null;size:40"`
	Title           string            `json:"title" gorm:"not null;size:255"`
	Description     string            `json:"description" gorm:"not null;size:5000"`
	Status          FeedbackStatus    `json:"status" gorm:"index;not null;size:40"`
	Priority        FeedbackPriority  `json:"priority,omitempty" gorm:"size:20"`
	Upvotes         int               `json:"upvotes" gorm:"not null;default:0"`
	UserHasUpvoted  bool              `json:"user_has_upvoted" gorm:"-"`
	CommentCount    int               `json:"comment_count" gorm:"not null;default:0"`
	ModelName       string            `json:"model_name,omitempty" gorm:"size:200"`
	ModelProvider   string            `json:"model_provider,omitempty" gorm:"size:200"`
	AdminResponse   string            `json:"admin_response,omitempty" gorm:"size:5000"`
	SubmitterName   string            `json:"user_name,omitempty" gorm:"size:200"`
	SubmitterEmail  string            `json:"-" gorm:"size:320"`
	MetadataJSON    string            `json:"-" gorm:"size:8000"`
	Metadata        map[string]string `json:"metadata,omitempty" gorm:"-"`
	AttachmentsJSON string            `json:"-" gorm:"size:8000"`
	Attachments     []AttachmentMeta  `json:"attachments,omitempty" gorm:"-"`
	Environment     string            `json:"environment,omitempty" gorm:"size:40"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// FeedbackComment belongs to exactly one feedback item, referenced by id.
type FeedbackComment struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	FeedbackID    string    `json:"feedback_id" gorm:"index;not null;size:36"`
	Comment       string    `json:"comment" gorm:"not null;size:4000"`
	SubmitterName string    `json:"user_name,omitempty" gorm:"size:200"`
	IsAdmin       bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// FeedbackUpvote records one viewer's endorsement of one item.
type FeedbackUpvote struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	FeedbackID string    `json:"feedback_id" gorm:"index:idx_upvote_feedback_viewer,unique;not null;size:36"`
	ViewerID   string    `json:"viewer_id" gorm:"index:idx_upvote_feedback_viewer,unique;not null;size:64"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AttachmentMeta describes an uploaded file or an external reference link.
type AttachmentMeta struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	DisplayName string `json:"display_name" gorm:"not null;size:255"`
	StoredName  string `json:"stored_name" gorm:"size:255"`
	ContentType string `json:"content_type" gorm:"size:120"`
	SizeBytes   int64  `json:"size_bytes" gorm:"not null;default:0"`
	Storage     string `json:"storage" gorm:"size:40"`
	Path        string `json:"path" gorm:"size:1024"`
}

// NewReferenceLinkAttachment synthesizes attachment metadata for an external URL.
// Reference links carry no id and no stored payload.
func NewReferenceLinkAttachment(referenceURL string) AttachmentMeta {
	return AttachmentMeta{
		DisplayName: referenceURL,
		ContentType: "text/uri-list",
		SizeBytes:   0,
		Storage:     AttachmentStorageLink,
		Path:        referenceURL,
	}
}
