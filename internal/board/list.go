package board

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/task"
)

const (
	listLoadFailedMessage    = "failed to load feedback"
	summaryLoadFailedMessage = "failed to load board summary"

	logEventListFetchFailed    = "list_fetch_failed"
	logEventSummaryFetchFailed = "summary_fetch_failed"
	logEventStaleListDiscarded = "stale_list_fetch_discarded"
)

// ListSynchronizer fetches the filtered, paginated item list and the aggregate
// status summary. The two fetches are independent and never block each other.
//
// Each fetch carries a generation token; a response that lands after a newer
// fetch has already been applied is discarded instead of overwriting fresher
// state.
type ListSynchronizer struct {
	mutex             sync.Mutex
	api               apiclient.Service
	filters           *FilterController
	notifier          *Notifier
	logger            *zap.Logger
	pageSize          int
	items             []model.FeedbackItem
	total             int
	summary           apiclient.Summary
	listLoading       bool
	summaryLoading    bool
	listStartedGen    uint64
	listAppliedGen    uint64
	summaryStartedGen uint64
	summaryAppliedGen uint64
	refreshScheduler  *task.Scheduler
}

// NewListSynchronizer constructs a synchronizer bound to the given filter
// controller and notifier.
func NewListSynchronizer(api apiclient.Service, filters *FilterController, notifier *Notifier, logger *zap.Logger, configuration Config) *ListSynchronizer {
	configuration = configuration.withDefaults()
	synchronizer := &ListSynchronizer{
		api:      api,
		filters:  filters,
		notifier: notifier,
		logger:   logger,
		pageSize: configuration.PageSize,
	}
	synchronizer.refreshScheduler = task.NewScheduler(configuration.RefreshInterval, func(runtimeCtx context.Context) {
		synchronizer.fetchList(runtimeCtx)
		synchronizer.fetchSummary(runtimeCtx)
	})
	return synchronizer
}

// Start begins the periodic background refresh loop. The board is poll-based;
// there is no push channel from the server.
func (synchronizer *ListSynchronizer) Start(ctx context.Context) {
	synchronizer.refreshScheduler.Start(ctx)
}

// Stop halts the background refresh loop.
func (synchronizer *ListSynchronizer) Stop() {
	synchronizer.refreshScheduler.Stop()
}

// RefreshList triggers an asynchronous list fetch.
func (synchronizer *ListSynchronizer) RefreshList(ctx context.Context) {
	go synchronizer.fetchList(ctx)
}

// RefreshSummary triggers an asynchronous summary fetch.
func (synchronizer *ListSynchronizer) RefreshSummary(ctx context.Context) {
	go synchronizer.fetchSummary(ctx)
}

// RefreshAll triggers both fetches concurrently.
func (synchronizer *ListSynchronizer) RefreshAll(ctx context.Context) {
	synchronizer.RefreshList(ctx)
	synchronizer.RefreshSummary(ctx)
}

func (synchronizer *ListSynchronizer) fetchList(ctx context.Context) {
	synchronizer.mutex.Lock()
	synchronizer.listStartedGen++
	generation := synchronizer.listStartedGen
	synchronizer.listLoading = true
	query := synchronizer.filters.Query()
	synchronizer.mutex.Unlock()

	result, fetchErr := synchronizer.api.ListFeedback(ctx, query)

	synchronizer.mutex.Lock()
	if generation <= synchronizer.listAppliedGen {
		synchronizer.mutex.Unlock()
		if synchronizer.logger != nil {
			synchronizer.logger.Debug(logEventStaleListDiscarded, zap.Uint64("generation", generation))
		}
		return
	}
	synchronizer.listAppliedGen = generation
	synchronizer.listLoading = synchronizer.listStartedGen > generation
	if fetchErr == nil {
		synchronizer.items = result.Items
		synchronizer.total = result.Total
	}
	synchronizer.mutex.Unlock()

	if fetchErr != nil {
		if synchronizer.logger != nil {
			synchronizer.logger.Warn(logEventListFetchFailed, zap.Error(fetchErr))
		}
		if synchronizer.notifier != nil {
			synchronizer.notifier.Error(listLoadFailedMessage)
		}
	}
}

func (synchronizer *ListSynchronizer) fetchSummary(ctx context.Context) {
	synchronizer.mutex.Lock()
	synchronizer.summaryStartedGen++
	generation := synchronizer.summaryStartedGen
	synchronizer.summaryLoading = true
	synchronizer.mutex.Unlock()

	summary, fetchErr := synchronizer.api.GetFeedbackSummary(ctx)

	synchronizer.mutex.Lock()
	if generation <= synchronizer.summaryAppliedGen {
		synchronizer.mutex.Unlock()
		return
	}
	synchronizer.summaryAppliedGen = generation
	synchronizer.summaryLoading = synchronizer.summaryStartedGen > generation
	if fetchErr == nil {
		synchronizer.summary = summary
	}
	synchronizer.mutex.Unlock()

	if fetchErr != nil && synchronizer.logger != nil {
		synchronizer.logger.Warn(logEventSummaryFetchFailed, zap.Error(fetchErr))
	}
}

// Items returns a snapshot of the currently displayed page.
func (synchronizer *ListSynchronizer) Items() []model.FeedbackItem {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	snapshot := make([]model.FeedbackItem, len(synchronizer.items))
	copy(snapshot, synchronizer.items)
	return snapshot
}

// Item returns the displayed item with the given id, when present.
func (synchronizer *ListSynchronizer) Item(itemID string) (model.FeedbackItem, bool) {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	for _, item := range synchronizer.items {
		if item.ID == itemID {
			return item, true
		}
	}
	return model.FeedbackItem{}, false
}

// Total returns the unpaged total reported by the last list fetch.
func (synchronizer *ListSynchronizer) Total() int {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	return synchronizer.total
}

// TotalPages derives the page count from the last fetched total, floored at one.
func (synchronizer *ListSynchronizer) TotalPages() int {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	totalPages := (synchronizer.total + synchronizer.pageSize - 1) / synchronizer.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return totalPages
}

// Summary returns the last fetched aggregate counts.
func (synchronizer *ListSynchronizer) Summary() apiclient.Summary {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	return synchronizer.summary
}

// ListLoading reports whether a list fetch is in flight.
func (synchronizer *ListSynchronizer) ListLoading() bool {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	return synchronizer.listLoading
}

// ApplyVotePatch applies the optimistic upvote adjustment to the displayed
// item: the flag flips and the count moves by one, floored at zero. The next
// authoritative list fetch supersedes the patch.
func (synchronizer *ListSynchronizer) ApplyVotePatch(itemID string, hasUpvoted bool) {
	synchronizer.mutex.Lock()
	defer synchronizer.mutex.Unlock()
	for position := range synchronizer.items {
		if synchronizer.items[position].ID != itemID {
			continue
		}
		synchronizer.items[position].UserHasUpvoted = hasUpvoted
		if hasUpvoted {
			synchronizer.items[position].Upvotes++
		} else if synchronizer.items[position].Upvotes > 0 {
			synchronizer.items[position].Upvotes--
		}
		return
	}
}
