package board

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
)

const (
	signInToVoteMessage  = "sign in to upvote feedback"
	voteFailedMessage    = "your vote could not be saved"
	logEventVoteFailed   = "upvote_toggle_failed"
	logEventVoteRejected = "upvote_rejected_unauthenticated"
)

// UpvoteCoordinator applies the optimistic upvote toggle and reconciles it
// against the server. A failed request is reverted by refetching authoritative
// state, never by computing a manual inverse patch.
type UpvoteCoordinator struct {
	mutex    sync.Mutex
	api      apiclient.Service
	list     *ListSynchronizer
	notifier *Notifier
	logger   *zap.Logger
	viewer   *Viewer
	inFlight map[string]bool
}

// NewUpvoteCoordinator constructs a coordinator bound to the list synchronizer.
func NewUpvoteCoordinator(api apiclient.Service, list *ListSynchronizer, notifier *Notifier, logger *zap.Logger) *UpvoteCoordinator {
	return &UpvoteCoordinator{
		api:      api,
		list:     list,
		notifier: notifier,
		inFlight: make(map[string]bool),
		logger:   logger,
	}
}

// SetViewer records the authenticated actor. A nil viewer means signed out.
func (coordinator *UpvoteCoordinator) SetViewer(viewer *Viewer) {
	coordinator.mutex.Lock()
	coordinator.viewer = viewer
	coordinator.mutex.Unlock()
}

// VoteInFlight reports whether the given item has a pending vote request. The
// caller disables that item's control while true; the coordinator does not
// queue a second vote on the same item.
func (coordinator *UpvoteCoordinator) VoteInFlight(itemID string) bool {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()
	return coordinator.inFlight[itemID]
}

// Toggle flips the viewer's upvote on the item. The local flag and count
// change before any network round-trip completes; the subsequent refetch is
// authoritative.
func (coordinator *UpvoteCoordinator) Toggle(ctx context.Context, itemID string) {
	coordinator.mutex.Lock()
	viewer := coordinator.viewer
	coordinator.mutex.Unlock()

	if !viewer.IsAuthenticated() {
		if coordinator.logger != nil {
			coordinator.logger.Debug(logEventVoteRejected, zap.String("feedback_id", itemID))
		}
		if coordinator.notifier != nil {
			coordinator.notifier.Info(signInToVoteMessage)
		}
		return
	}

	item, found := coordinator.list.Item(itemID)
	if !found {
		return
	}

	coordinator.list.ApplyVotePatch(itemID, !item.UserHasUpvoted)

	coordinator.mutex.Lock()
	coordinator.inFlight[itemID] = true
	coordinator.mutex.Unlock()

	go coordinator.confirm(ctx, itemID)
}

func (coordinator *UpvoteCoordinator) confirm(ctx context.Context, itemID string) {
	toggleErr := coordinator.api.ToggleFeedbackUpvote(ctx, itemID)

	coordinator.mutex.Lock()
	delete(coordinator.inFlight, itemID)
	coordinator.mutex.Unlock()

	if toggleErr != nil {
		if coordinator.logger != nil {
			coordinator.logger.Warn(logEventVoteFailed, zap.String("feedback_id", itemID), zap.Error(toggleErr))
		}
		if coordinator.notifier != nil {
			coordinator.notifier.Error(voteFailedMessage)
		}
		coordinator.list.RefreshList(ctx)
		return
	}

	coordinator.list.RefreshAll(ctx)
}
