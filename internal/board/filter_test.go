package board

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	testDebounceDelay = 40 * time.Millisecond
	testWaitTimeout   = 2 * time.Second
	testWaitTick      = 5 * time.Millisecond
)

func newTestFilterController() *FilterController {
	return NewFilterController(Config{SearchDebounce: testDebounceDelay, PageSize: 12})
}

func TestFilterControllerDefaults(testingT *testing.T) {
	controller := newTestFilterController()

	query := controller.Query()
	require.Empty(testingT, query.Type)
	require.Empty(testingT, query.Status)
	require.Empty(testingT, query.Priority)
	require.Equal(testingT, string(model.SortModeRecent), query.SortBy)
	require.Empty(testingT, query.Search)
	require.Equal(testingT, 12, query.Limit)
	require.Zero(testingT, query.Offset)
}

func TestFilterControllerDiscreteChangeResetsPage(testingT *testing.T) {
	controller := newTestFilterController()
	controller.SetPage(3)
	require.Equal(testingT, 3, controller.Page())

	controller.SetStatusFilter(string(model.FeedbackStatusOpen))
	require.Zero(testingT, controller.Page())
	require.Equal(testingT, string(model.FeedbackStatusOpen), controller.StatusFilter())
}

func TestFilterControllerRejectsUnknownDiscreteValues(testingT *testing.T) {
	controller := newTestFilterController()
	controller.SetTypeFilter("not_a_type")
	controller.SetPriorityFilter("urgent-ish")

	require.Equal(testingT, FilterAll, controller.TypeFilter())
	require.Equal(testingT, FilterAll, controller.PriorityFilter())
}

func TestFilterControllerDebouncedSearchCommit(testingT *testing.T) {
	controller := newTestFilterController()
	controller.SetPage(2)

	for _, keystroke := range []string{"a", "ab", "abc"} {
		controller.SetSearchInput(keystroke)
		time.Sleep(testDebounceDelay / 4)
	}

	require.Equal(testingT, "abc", controller.SearchInput())
	require.Empty(testingT, controller.CommittedSearch())

	require.Eventually(testingT, func() bool {
		return controller.CommittedSearch() == "abc"
	}, testWaitTimeout, testWaitTick)
	require.Zero(testingT, controller.Page())
}

func TestFilterControllerClearAllFlushesPendingCommit(testingT *testing.T) {
	controller := newTestFilterController()
	controller.SetTypeFilter(string(model.FeedbackTypeBugReport))
	controller.SetSearchInput("stale query")
	controller.ClearAll()

	require.Equal(testingT, FilterAll, controller.TypeFilter())
	require.Empty(testingT, controller.SearchInput())
	require.Empty(testingT, controller.CommittedSearch())
	require.Zero(testingT, controller.Page())

	// The pending debounce must not land after the clear.
	time.Sleep(2 * testDebounceDelay)
	require.Empty(testingT, controller.CommittedSearch())
}

func TestFilterControllerQueryOffset(testingT *testing.T) {
	controller := newTestFilterController()
	controller.SetPage(2)

	query := controller.Query()
	require.Equal(testingT, 12, query.Limit)
	require.Equal(testingT, 24, query.Offset)
}

func TestFilterControllerChangeListenerFires(testingT *testing.T) {
	controller := newTestFilterController()
	changeCount := 0
	controller.SetChangeListener(func() { changeCount++ })

	controller.SetSortMode(string(model.SortModePopular))
	controller.SetPage(1)
	controller.ClearAll()

	require.Equal(testingT, 3, changeCount)

	controller.SetSortMode(string(model.SortModePopular))
	require.Equal(testingT, model.SortModePopular, controller.SortMode())
	require.Equal(testingT, 4, changeCount)
}

func TestFilterControllerSeedFromQuery(testingT *testing.T) {
	testCases := []struct {
		name             string
		queryString      string
		expectedType     string
		expectedStatus   string
		expectedPriority string
		expectedSort     model.SortMode
		expectedItemID   string
	}{
		{
			name:             "recognizedValues",
			queryString:      "type=bug_report&status=open&priority=high&sort_by=popular&feedback_id=fb-1",
			expectedType:     string(model.FeedbackTypeBugReport),
			expectedStatus:   string(model.FeedbackStatusOpen),
			expectedPriority: string(model.FeedbackPriorityHigh),
			expectedSort:     model.SortModePopular,
			expectedItemID:   "fb-1",
		},
		{
			name:             "invalidValuesFallBack",
			queryString:      "type=banana&status=wat&priority=&sort_by=sideways",
			expectedType:     FilterAll,
			expectedStatus:   FilterAll,
			expectedPriority: FilterAll,
			expectedSort:     model.SortModeRecent,
			expectedItemID:   "",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(nestedT *testing.T) {
			controller := newTestFilterController()
			queryValues, parseErr := url.ParseQuery(testCase.queryString)
			require.NoError(nestedT, parseErr)

			autoExpandItemID := controller.SeedFromQuery(queryValues)

			require.Equal(nestedT, testCase.expectedType, controller.TypeFilter())
			require.Equal(nestedT, testCase.expectedStatus, controller.StatusFilter())
			require.Equal(nestedT, testCase.expectedPriority, controller.PriorityFilter())
			require.Equal(nestedT, testCase.expectedSort, controller.SortMode())
			require.Equal(nestedT, testCase.expectedItemID, autoExpandItemID)
		})
	}
}
