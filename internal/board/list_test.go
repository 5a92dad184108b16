package board

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

func newTestListSynchronizer(api apiclient.Service, notifier *Notifier) (*ListSynchronizer, *FilterController) {
	configuration := Config{PageSize: 12, SearchDebounce: testDebounceDelay, RefreshInterval: time.Hour}
	filters := NewFilterController(configuration)
	return NewListSynchronizer(api, filters, notifier, zap.NewNop(), configuration), filters
}

func TestListSynchronizerRefreshAppliesItemsAndTotal(testingT *testing.T) {
	api := &stubAPI{
		listFunc: func(apiclient.ListQuery) (apiclient.ListResult, error) {
			return apiclient.ListResult{
				Items: []model.FeedbackItem{{ID: "fb-1", Title: "first"}, {ID: "fb-2", Title: "second"}},
				Total: 30,
			}, nil
		},
	}
	synchronizer, _ := newTestListSynchronizer(api, nil)

	synchronizer.RefreshList(context.Background())

	require.Eventually(testingT, func() bool {
		return synchronizer.Total() == 30
	}, testWaitTimeout, testWaitTick)
	require.Len(testingT, synchronizer.Items(), 2)
	require.Equal(testingT, 3, synchronizer.TotalPages())
	require.False(testingT, synchronizer.ListLoading())

	item, found := synchronizer.Item("fb-2")
	require.True(testingT, found)
	require.Equal(testingT, "second", item.Title)
}

func TestListSynchronizerTotalPagesFlooredAtOne(testingT *testing.T) {
	synchronizer, _ := newTestListSynchronizer(&stubAPI{}, nil)
	require.Equal(testingT, 1, synchronizer.TotalPages())
}

func TestListSynchronizerQueryReflectsFilters(testingT *testing.T) {
	api := &stubAPI{}
	synchronizer, filters := newTestListSynchronizer(api, nil)
	filters.SetTypeFilter(string(model.FeedbackTypeBugReport))
	filters.SetSortMode(string(model.SortModePopular))
	filters.SetPage(1)

	synchronizer.RefreshList(context.Background())

	require.Eventually(testingT, func() bool {
		return api.listCallCount() == 1
	}, testWaitTimeout, testWaitTick)

	recordedQuery := api.recordedListQuery()
	require.Equal(testingT, string(model.FeedbackTypeBugReport), recordedQuery.Type)
	require.Equal(testingT, string(model.SortModePopular), recordedQuery.SortBy)
	require.Equal(testingT, 12, recordedQuery.Limit)
	require.Equal(testingT, 12, recordedQuery.Offset)
}

func TestListSynchronizerKeepsStateOnFetchFailure(testingT *testing.T) {
	failing := false
	api := &stubAPI{
		listFunc: func(apiclient.ListQuery) (apiclient.ListResult, error) {
			if failing {
				return apiclient.ListResult{}, errors.New("backend down")
			}
			return apiclient.ListResult{Items: []model.FeedbackItem{{ID: "fb-1"}}, Total: 1}, nil
		},
	}
	notifier := NewNotifier(time.Hour)
	defer notifier.Close()
	synchronizer, _ := newTestListSynchronizer(api, notifier)

	synchronizer.RefreshList(context.Background())
	require.Eventually(testingT, func() bool {
		return synchronizer.Total() == 1
	}, testWaitTimeout, testWaitTick)

	failing = true
	synchronizer.RefreshList(context.Background())

	require.Eventually(testingT, func() bool {
		return len(notifier.Active()) == 1
	}, testWaitTimeout, testWaitTick)
	require.Equal(testingT, ToastKindError, notifier.Active()[0].Kind)
	require.Equal(testingT, 1, synchronizer.Total())
	require.Len(testingT, synchronizer.Items(), 1)
}

func TestListSynchronizerDiscardsStaleResponse(testingT *testing.T) {
	releaseSlowFetch := make(chan struct{})
	var fetchSequence atomic.Int64
	api := &stubAPI{}
	api.listFunc = func(apiclient.ListQuery) (apiclient.ListResult, error) {
		if fetchSequence.Add(1) == 1 {
			<-releaseSlowFetch
			return apiclient.ListResult{Items: []model.FeedbackItem{{ID: "stale"}}, Total: 99}, nil
		}
		return apiclient.ListResult{Items: []model.FeedbackItem{{ID: "fresh"}}, Total: 1}, nil
	}
	synchronizer, _ := newTestListSynchronizer(api, nil)

	synchronizer.RefreshList(context.Background())
	require.Eventually(testingT, func() bool {
		return api.listCallCount() == 1
	}, testWaitTimeout, testWaitTick)

	synchronizer.RefreshList(context.Background())
	require.Eventually(testingT, func() bool {
		return synchronizer.Total() == 1
	}, testWaitTimeout, testWaitTick)

	close(releaseSlowFetch)

	// The first fetch resolves after the second was applied and must not win.
	time.Sleep(4 * testWaitTick)
	require.Equal(testingT, 1, synchronizer.Total())
	items := synchronizer.Items()
	require.Len(testingT, items, 1)
	require.Equal(testingT, "fresh", items[0].ID)
}

func TestListSynchronizerSummaryRefresh(testingT *testing.T) {
	api := &stubAPI{
		summaryFunc: func() (apiclient.Summary, error) {
			return apiclient.Summary{
				Total: 7,
				ByStatus: map[model.FeedbackStatus]int{
					model.FeedbackStatusOpen:       3,
					model.FeedbackStatusInProgress: 2,
					model.FeedbackStatusCompleted:  1,
					model.FeedbackStatusRejected:   1,
				},
			}, nil
		},
	}
	synchronizer, _ := newTestListSynchronizer(api, nil)

	synchronizer.RefreshSummary(context.Background())

	require.Eventually(testingT, func() bool {
		return synchronizer.Summary().Total == 7
	}, testWaitTimeout, testWaitTick)
	require.Equal(testingT, 3, synchronizer.Summary().ByStatus[model.FeedbackStatusOpen])
}

func TestListSynchronizerApplyVotePatch(testingT *testing.T) {
	api := &stubAPI{
		listFunc: func(apiclient.ListQuery) (apiclient.ListResult, error) {
			return apiclient.ListResult{
				Items: []model.FeedbackItem{{ID: "fb-1", Upvotes: 5, UserHasUpvoted: false}},
				Total: 1,
			}, nil
		},
	}
	synchronizer, _ := newTestListSynchronizer(api, nil)
	synchronizer.RefreshList(context.Background())
	require.Eventually(testingT, func() bool {
		return synchronizer.Total() == 1
	}, testWaitTimeout, testWaitTick)

	synchronizer.ApplyVotePatch("fb-1", true)
	patched, found := synchronizer.Item("fb-1")
	require.True(testingT, found)
	require.True(testingT, patched.UserHasUpvoted)
	require.Equal(testingT, 6, patched.Upvotes)

	synchronizer.ApplyVotePatch("fb-1", false)
	reverted, _ := synchronizer.Item("fb-1")
	require.False(testingT, reverted.UserHasUpvoted)
	require.Equal(testingT, 5, reverted.Upvotes)
}

func TestListSynchronizerVotePatchFloorsAtZero(testingT *testing.T) {
	api := &stubAPI{
		listFunc: func(apiclient.ListQuery) (apiclient.ListResult, error) {
			return apiclient.ListResult{Items: []model.FeedbackItem{{ID: "fb-1", Upvotes: 0, UserHasUpvoted: true}}, Total: 1}, nil
		},
	}
	synchronizer, _ := newTestListSynchronizer(api, nil)
	synchronizer.RefreshList(context.Background())
	require.Eventually(testingT, func() bool {
		return synchronizer.Total() == 1
	}, testWaitTimeout, testWaitTick)

	synchronizer.ApplyVotePatch("fb-1", false)
	item, _ := synchronizer.Item("fb-1")
	require.Zero(testingT, item.Upvotes)
}
