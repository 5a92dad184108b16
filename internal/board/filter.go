package board

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

// FilterAll selects every value of a filter dimension.
const FilterAll = "all"

const (
	seedParameterType     = "type"
	seedParameterStatus   = "status"
	seedParameterPriority = "priority"
	seedParameterSortBy   = "sort_by"
	seedParameterItemID   = "feedback_id"
)

// FilterController owns the filter, search, and pagination state of the board
// and derives the query consumed by the list synchronizer.
//
// Every discrete filter change resets the page index to zero. The free-text
// search input is committed only after the debounce interval elapses with no
// further input; the commit also resets the page index.
type FilterController struct {
	mutex           sync.Mutex
	pageSize        int
	debounceDelay   time.Duration
	typeFilter      string
	statusFilter    string
	priorityFilter  string
	sortMode        model.SortMode
	searchInput     string
	committedSearch string
	pageIndex       int
	debounceTimer   *time.Timer
	commitGen       uint64
	changeListener  func()
}

// NewFilterController constructs a controller with default filter values.
func NewFilterController(configuration Config) *FilterController {
	configuration = configuration.withDefaults()
	return &FilterController{
		pageSize:       configuration.PageSize,
		debounceDelay:  configuration.SearchDebounce,
		typeFilter:     FilterAll,
		statusFilter:   FilterAll,
		priorityFilter: FilterAll,
		sortMode:       model.SortModeRecent,
	}
}

// SetChangeListener registers the callback invoked whenever the derived query
// changes. The list synchronizer uses it to trigger refetches.
func (controller *FilterController) SetChangeListener(listener func()) {
	controller.mutex.Lock()
	controller.changeListener = listener
	controller.mutex.Unlock()
}

// SetTypeFilter applies a discrete type filter and resets the page index.
func (controller *FilterController) SetTypeFilter(value string) {
	controller.setDiscrete(&controller.typeFilter, normalizeFilterValue(value, func(raw string) bool {
		_, known := model.ParseFeedbackType(raw)
		return known
	}))
}

// SetStatusFilter applies a discrete status filter and resets the page index.
func (controller *FilterController) SetStatusFilter(value string) {
	controller.setDiscrete(&controller.statusFilter, normalizeFilterValue(value, func(raw string) bool {
		_, known := model.ParseFeedbackStatus(raw)
		return known
	}))
}

// SetPriorityFilter applies a discrete priority filter and resets the page index.
func (controller *FilterController) SetPriorityFilter(value string) {
	controller.setDiscrete(&controller.priorityFilter, normalizeFilterValue(value, func(raw string) bool {
		_, known := model.ParseFeedbackPriority(raw)
		return known
	}))
}

// SetSortMode applies a sort mode and resets the page index.
func (controller *FilterController) SetSortMode(value string) {
	sortMode, known := model.ParseSortMode(value)
	if !known {
		sortMode = model.SortModeRecent
	}
	controller.mutex.Lock()
	controller.sortMode = sortMode
	controller.pageIndex = 0
	listener := controller.changeListener
	controller.mutex.Unlock()
	invokeListener(listener)
}

func normalizeFilterValue(value string, isKnown func(string) bool) string {
	trimmedValue := strings.TrimSpace(value)
	if trimmedValue == "" || trimmedValue == FilterAll || !isKnown(trimmedValue) {
		return FilterAll
	}
	return trimmedValue
}

func (controller *FilterController) setDiscrete(field *string, value string) {
	controller.mutex.Lock()
	*field = value
	controller.pageIndex = 0
	listener := controller.changeListener
	controller.mutex.Unlock()
	invokeListener(listener)
}

// SetSearchInput records the live search text and schedules a debounced commit.
// The committed search value only updates after the debounce interval passes
// with no further keystrokes.
func (controller *FilterController) SetSearchInput(value string) {
	controller.mutex.Lock()
	controller.searchInput = value
	controller.commitGen++
	generation := controller.commitGen
	if controller.debounceTimer != nil {
		controller.debounceTimer.Stop()
	}
	controller.debounceTimer = time.AfterFunc(controller.debounceDelay, func() {
		controller.commitSearch(generation, value)
	})
	controller.mutex.Unlock()
}

func (controller *FilterController) commitSearch(generation uint64, value string) {
	controller.mutex.Lock()
	if generation != controller.commitGen {
		controller.mutex.Unlock()
		return
	}
	controller.committedSearch = value
	controller.pageIndex = 0
	listener := controller.changeListener
	controller.mutex.Unlock()
	invokeListener(listener)
}

// SearchInput returns the live search text for display.
func (controller *FilterController) SearchInput() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.searchInput
}

// CommittedSearch returns the debounced search value in effect.
func (controller *FilterController) CommittedSearch() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.committedSearch
}

// SetPage moves to the given zero-based page index.
func (controller *FilterController) SetPage(pageIndex int) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	controller.mutex.Lock()
	controller.pageIndex = pageIndex
	listener := controller.changeListener
	controller.mutex.Unlock()
	invokeListener(listener)
}

// Page returns the current zero-based page index.
func (controller *FilterController) Page() int {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.pageIndex
}

// ClearAll resets every filter to its default and flushes any pending search
// commit so no stale value lands afterwards.
func (controller *FilterController) ClearAll() {
	controller.mutex.Lock()
	controller.typeFilter = FilterAll
	controller.statusFilter = FilterAll
	controller.priorityFilter = FilterAll
	controller.sortMode = model.SortModeRecent
	controller.searchInput = ""
	controller.committedSearch = ""
	controller.pageIndex = 0
	controller.commitGen++
	if controller.debounceTimer != nil {
		controller.debounceTimer.Stop()
		controller.debounceTimer = nil
	}
	listener := controller.changeListener
	controller.mutex.Unlock()
	invokeListener(listener)
}

// SeedFromQuery applies recognized query-string parameters as initial filter
// values. Invalid values fall back to defaults silently. The returned item id,
// when present, identifies the comment thread to auto-expand.
func (controller *FilterController) SeedFromQuery(queryValues url.Values) string {
	controller.mutex.Lock()
	if parsedType, known := model.ParseFeedbackType(queryValues.Get(seedParameterType)); known {
		controller.typeFilter = string(parsedType)
	}
	if parsedStatus, known := model.ParseFeedbackStatus(queryValues.Get(seedParameterStatus)); known {
		controller.statusFilter = string(parsedStatus)
	}
	if parsedPriority, known := model.ParseFeedbackPriority(queryValues.Get(seedParameterPriority)); known {
		controller.priorityFilter = string(parsedPriority)
	}
	if parsedSort, known := model.ParseSortMode(queryValues.Get(seedParameterSortBy)); known {
		controller.sortMode = parsedSort
	}
	controller.mutex.Unlock()
	return strings.TrimSpace(queryValues.Get(seedParameterItemID))
}

// Query derives the read-only request parameters for the list fetch.
func (controller *FilterController) Query() apiclient.ListQuery {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return apiclient.ListQuery{
		Type:     filterQueryValue(controller.typeFilter),
		Status:   filterQueryValue(controller.statusFilter),
		Priority: filterQueryValue(controller.priorityFilter),
		SortBy:   string(controller.sortMode),
		Search:   controller.committedSearch,
		Limit:    controller.pageSize,
		Offset:   controller.pageIndex * controller.pageSize,
	}
}

// TypeFilter returns the active type filter value.
func (controller *FilterController) TypeFilter() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.typeFilter
}

// StatusFilter returns the active status filter value.
func (controller *FilterController) StatusFilter() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.statusFilter
}

// PriorityFilter returns the active priority filter value.
func (controller *FilterController) PriorityFilter() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.priorityFilter
}

// SortMode returns the active sort mode.
func (controller *FilterController) SortMode() model.SortMode {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.sortMode
}

func filterQueryValue(filterValue string) string {
	if filterValue == FilterAll {
		return ""
	}
	return filterValue
}

func invokeListener(listener func()) {
	if listener != nil {
		listener()
	}
}
