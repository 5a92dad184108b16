package board

import (
	"context"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	commentsLoadFailedMessage = "failed to load comments"
	commentPostFailedMessage  = "your comment could not be posted"

	logEventCommentsFetchFailed = "comments_fetch_failed"
	logEventCommentPostFailed   = "comment_post_failed"
)

// CommentThreadManager owns lazy, per-item comment threads. A thread is
// fetched on first expand and cached for the session; posting replaces the
// cached thread wholesale with a refetch so server-assigned ordering wins.
//
// Expansion is exclusive: opening one thread collapses any other.
type CommentThreadManager struct {
	mutex          sync.Mutex
	api            apiclient.Service
	list           *ListSynchronizer
	notifier       *Notifier
	logger         *zap.Logger
	viewer         *Viewer
	threadCache    *gocache.Cache
	drafts         map[string]string
	expandedItemID string
	loadingItemID  string
	postingItemID  string
}

// NewCommentThreadManager constructs a thread manager bound to the list
// synchronizer.
func NewCommentThreadManager(api apiclient.Service, list *ListSynchronizer, notifier *Notifier, logger *zap.Logger) *CommentThreadManager {
	return &CommentThreadManager{
		api:         api,
		list:        list,
		notifier:    notifier,
		logger:      logger,
		threadCache: gocache.New(gocache.NoExpiration, 0),
		drafts:      make(map[string]string),
	}
}

// SetViewer records the actor whose name accompanies posted comments.
func (manager *CommentThreadManager) SetViewer(viewer *Viewer) {
	manager.mutex.Lock()
	manager.viewer = viewer
	manager.mutex.Unlock()
}

// ToggleThread expands the item's thread, collapsing any other open thread.
// Toggling the currently expanded item collapses it without a fetch. The
// first expand of an item fetches its comments; later expands reuse the
// session cache.
func (manager *CommentThreadManager) ToggleThread(ctx context.Context, itemID string) {
	manager.mutex.Lock()
	if manager.expandedItemID == itemID {
		manager.expandedItemID = ""
		manager.mutex.Unlock()
		return
	}
	manager.expandedItemID = itemID
	_, cached := manager.threadCache.Get(itemID)
	alreadyLoading := manager.loadingItemID == itemID
	if !cached && !alreadyLoading {
		manager.loadingItemID = itemID
	}
	manager.mutex.Unlock()

	if !cached && !alreadyLoading {
		go manager.fetchThread(ctx, itemID)
	}
}

func (manager *CommentThreadManager) fetchThread(ctx context.Context, itemID string) {
	comments, fetchErr := manager.api.GetFeedbackComments(ctx, itemID)

	manager.mutex.Lock()
	if manager.loadingItemID == itemID {
		manager.loadingItemID = ""
	}
	if fetchErr == nil {
		manager.threadCache.Set(itemID, comments, gocache.NoExpiration)
	}
	manager.mutex.Unlock()

	if fetchErr != nil {
		if manager.logger != nil {
			manager.logger.Warn(logEventCommentsFetchFailed, zap.String("feedback_id", itemID), zap.Error(fetchErr))
		}
		if manager.notifier != nil {
			manager.notifier.Error(commentsLoadFailedMessage)
		}
	}
}

// ExpandedItem returns the id of the currently open thread, empty when none.
func (manager *CommentThreadManager) ExpandedItem() string {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.expandedItemID
}

// Comments returns the cached thread for an item.
func (manager *CommentThreadManager) Comments(itemID string) ([]model.FeedbackComment, bool) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	cachedValue, cached := manager.threadCache.Get(itemID)
	if !cached {
		return nil, false
	}
	comments, valid := cachedValue.([]model.FeedbackComment)
	if !valid {
		return nil, false
	}
	return comments, true
}

// ThreadLoading reports whether the item's first fetch is in flight.
func (manager *CommentThreadManager) ThreadLoading(itemID string) bool {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.loadingItemID == itemID
}

// SetDraft stores the item's draft comment text. Drafts are addressed by item
// id and survive expand/collapse.
func (manager *CommentThreadManager) SetDraft(itemID string, text string) {
	manager.mutex.Lock()
	manager.drafts[itemID] = text
	manager.mutex.Unlock()
}

// Draft returns the item's draft comment text.
func (manager *CommentThreadManager) Draft(itemID string) string {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.drafts[itemID]
}

// PostInFlight reports whether the item's post request is pending. The caller
// disables that item's post control while true.
func (manager *CommentThreadManager) PostInFlight(itemID string) bool {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.postingItemID == itemID
}

// PostComment submits the item's draft. An empty trimmed draft posts nothing.
// On success the thread is refetched wholesale, the list refreshes so the
// comment count updates, and the draft clears. On failure the draft survives
// for retry.
func (manager *CommentThreadManager) PostComment(ctx context.Context, itemID string) {
	manager.mutex.Lock()
	draftText := strings.TrimSpace(manager.drafts[itemID])
	if draftText == "" || manager.postingItemID != "" {
		manager.mutex.Unlock()
		return
	}
	manager.postingItemID = itemID
	submitterName := ""
	if manager.viewer != nil {
		submitterName = manager.viewer.Name
	}
	manager.mutex.Unlock()

	go manager.submitComment(ctx, itemID, draftText, submitterName)
}

func (manager *CommentThreadManager) submitComment(ctx context.Context, itemID string, commentText string, submitterName string) {
	postErr := manager.api.AddFeedbackComment(ctx, itemID, apiclient.CommentInput{
		Comment:       commentText,
		SubmitterName: submitterName,
	})
	if postErr != nil {
		manager.mutex.Lock()
		manager.postingItemID = ""
		manager.mutex.Unlock()
		if manager.logger != nil {
			manager.logger.Warn(logEventCommentPostFailed, zap.String("feedback_id", itemID), zap.Error(postErr))
		}
		if manager.notifier != nil {
			manager.notifier.Error(commentPostFailedMessage)
		}
		return
	}

	// Post succeeded; the refetch below is reported independently if it fails.
	comments, fetchErr := manager.api.GetFeedbackComments(ctx, itemID)

	manager.mutex.Lock()
	if fetchErr == nil {
		manager.threadCache.Set(itemID, comments, gocache.NoExpiration)
	}
	delete(manager.drafts, itemID)
	manager.postingItemID = ""
	manager.mutex.Unlock()

	if fetchErr != nil {
		if manager.logger != nil {
			manager.logger.Warn(logEventCommentsFetchFailed, zap.String("feedback_id", itemID), zap.Error(fetchErr))
		}
		if manager.notifier != nil {
			manager.notifier.Error(commentsLoadFailedMessage)
		}
	}

	manager.list.RefreshList(ctx)
}
