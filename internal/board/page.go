package board

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
)

// Page composes the board controllers around one feedback listing. Data flows
// one way, controller state to derived query to fetch to render, except for
// the vote coordinator and the thread manager, which patch local state
// optimistically before confirming against the server.
type Page struct {
	Notifier *Notifier
	Filters  *FilterController
	List     *ListSynchronizer
	Votes    *UpvoteCoordinator
	Comments *CommentThreadManager
	Uploader *AttachmentUploader
	Form     *SubmissionFormController
}

// NewPage wires the full controller set against one API client. Filter
// changes trigger list refetches through the change listener; nothing is
// implicitly reactive beyond that.
func NewPage(api apiclient.Service, logger *zap.Logger, configuration Config, defaultEnvironment string) *Page {
	configuration = configuration.withDefaults()
	notifier := NewNotifier(configuration.ToastTTL)
	filters := NewFilterController(configuration)
	list := NewListSynchronizer(api, filters, notifier, logger, configuration)
	votes := NewUpvoteCoordinator(api, list, notifier, logger)
	comments := NewCommentThreadManager(api, list, notifier, logger)
	uploader := NewAttachmentUploader(api, logger, configuration)
	form := NewSubmissionFormController(api, list, notifier, uploader, logger, defaultEnvironment)

	page := &Page{
		Notifier: notifier,
		Filters:  filters,
		List:     list,
		Votes:    votes,
		Comments: comments,
		Uploader: uploader,
		Form:     form,
	}

	filters.SetChangeListener(func() {
		list.RefreshList(context.Background())
	})

	return page
}

// SetViewer propagates the authenticated actor to the controllers that need
// one.
func (page *Page) SetViewer(viewer *Viewer) {
	page.Votes.SetViewer(viewer)
	page.Comments.SetViewer(viewer)
}

// Mount seeds the filters from the query string, starts the background
// refresh loop, performs the initial fetches, and auto-expands the thread
// named by the seeded item id, when any.
func (page *Page) Mount(ctx context.Context, queryValues url.Values) {
	autoExpandItemID := page.Filters.SeedFromQuery(queryValues)
	page.List.Start(ctx)
	page.List.RefreshAll(ctx)
	if autoExpandItemID != "" {
		page.Comments.ToggleThread(ctx, autoExpandItemID)
	}
}

// Unmount stops the background refresh loop and closes the notifier.
func (page *Page) Unmount() {
	page.List.Stop()
	page.Notifier.Close()
}
