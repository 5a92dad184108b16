package board

import (
	"context"
	"sync"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

// stubAPI implements apiclient.Service with overridable behavior and call
// counting, so the controllers can be exercised without a network.
type stubAPI struct {
	mutex sync.Mutex

	listFunc       func(apiclient.ListQuery) (apiclient.ListResult, error)
	summaryFunc    func() (apiclient.Summary, error)
	commentsFunc   func(string) ([]model.FeedbackComment, error)
	addCommentFunc func(string, apiclient.CommentInput) error
	toggleFunc     func(string) error
	createFunc     func(apiclient.CreateFeedbackInput) (model.FeedbackItem, error)
	uploadFunc     func(apiclient.UploadInput) (model.AttachmentMeta, error)

	listCalls       int
	summaryCalls    int
	commentsCalls   int
	addCommentCalls int
	toggleCalls     int
	createCalls     int
	uploadCalls     int

	lastListQuery   apiclient.ListQuery
	lastCreateInput apiclient.CreateFeedbackInput
	lastCommentItem string
	lastComment     apiclient.CommentInput
}

func (api *stubAPI) ListFeedback(_ context.Context, query apiclient.ListQuery) (apiclient.ListResult, error) {
	api.mutex.Lock()
	api.listCalls++
	api.lastListQuery = query
	listFunc := api.listFunc
	api.mutex.Unlock()
	if listFunc != nil {
		return listFunc(query)
	}
	return apiclient.ListResult{}, nil
}

func (api *stubAPI) GetFeedbackSummary(_ context.Context) (apiclient.Summary, error) {
	api.mutex.Lock()
	api.summaryCalls++
	summaryFunc := api.summaryFunc
	api.mutex.Unlock()
	if summaryFunc != nil {
		return summaryFunc()
	}
	return apiclient.Summary{}, nil
}

func (api *stubAPI) GetFeedbackComments(_ context.Context, itemID string) ([]model.FeedbackComment, error) {
	api.mutex.Lock()
	api.commentsCalls++
	commentsFunc := api.commentsFunc
	api.mutex.Unlock()
	if commentsFunc != nil {
		return commentsFunc(itemID)
	}
	return nil, nil
}

func (api *stubAPI) AddFeedbackComment(_ context.Context, itemID string, input apiclient.CommentInput) error {
	api.mutex.Lock()
	api.addCommentCalls++
	api.lastCommentItem = itemID
	api.lastComment = input
	addCommentFunc := api.addCommentFunc
	api.mutex.Unlock()
	if addCommentFunc != nil {
		return addCommentFunc(itemID, input)
	}
	return nil
}

func (api *stubAPI) ToggleFeedbackUpvote(_ context.Context, itemID string) error {
	api.mutex.Lock()
	api.toggleCalls++
	toggleFunc := api.toggleFunc
	api.mutex.Unlock()
	if toggleFunc != nil {
		return toggleFunc(itemID)
	}
	return nil
}

func (api *stubAPI) CreateFeedback(_ context.Context, input apiclient.CreateFeedbackInput) (model.FeedbackItem, error) {
	api.mutex.Lock()
	api.createCalls++
	api.lastCreateInput = input
	createFunc := api.createFunc
	api.mutex.Unlock()
	if createFunc != nil {
		return createFunc(input)
	}
	return model.FeedbackItem{ID: "created", Type: input.Type, Title: input.Title}, nil
}

func (api *stubAPI) UploadAttachment(_ context.Context, input apiclient.UploadInput) (model.AttachmentMeta, error) {
	api.mutex.Lock()
	api.uploadCalls++
	uploadFunc := api.uploadFunc
	api.mutex.Unlock()
	if uploadFunc != nil {
		return uploadFunc(input)
	}
	return model.AttachmentMeta{ID: "uploaded", DisplayName: input.FileName}, nil
}

func (api *stubAPI) listCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.listCalls
}

func (api *stubAPI) summaryCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.summaryCalls
}

func (api *stubAPI) commentsCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.commentsCalls
}

func (api *stubAPI) addCommentCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.addCommentCalls
}

func (api *stubAPI) toggleCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.toggleCalls
}

func (api *stubAPI) createCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.createCalls
}

func (api *stubAPI) uploadCallCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.uploadCalls
}

func (api *stubAPI) recordedListQuery() apiclient.ListQuery {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.lastListQuery
}

func (api *stubAPI) recordedComment() (string, apiclient.CommentInput) {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.lastCommentItem, api.lastComment
}
