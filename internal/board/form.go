package board

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	titleMinimumLength       = 3
	titleMaximumLength       = 255
	descriptionMinimumLength = 10
	descriptionMaximumLength = 5000

	feedbackSubmittedMessage = "thanks, your feedback was submitted"

	logEventSubmitFailed    = "feedback_submit_failed"
	logEventSubmitSucceeded = "feedback_submitted"
)

// SubmissionFormController owns the multi-type feedback form. The visible
// metadata fields are a pure function of the selected type (see
// model.MetadataSchemaForType); switching type clears type-specific state
// while preserving title, description, and contact fields.
type SubmissionFormController struct {
	mutex          sync.Mutex
	api            apiclient.Service
	list           *ListSynchronizer
	notifier       *Notifier
	uploader       *AttachmentUploader
	logger         *zap.Logger
	feedbackType   model.FeedbackType
	title          string
	description    string
	modelName      string
	modelProvider  string
	contactName    string
	contactEmail   string
	metadata       map[string]string
	referenceURL   string
	attachments    []model.AttachmentMeta
	environment    string
	dialogOpen     bool
	submitting     bool
	serverError    string
}

// NewSubmissionFormController constructs the form controller and registers it
// as the uploader's attachment sink.
func NewSubmissionFormController(api apiclient.Service, list *ListSynchronizer, notifier *Notifier, uploader *AttachmentUploader, logger *zap.Logger, defaultEnvironment string) *SubmissionFormController {
	controller := &SubmissionFormController{
		api:          api,
		list:         list,
		notifier:     notifier,
		uploader:     uploader,
		logger:       logger,
		feedbackType: model.FeedbackTypeFeatureRequest,
		metadata:     make(map[string]string),
		environment:  defaultEnvironment,
	}
	if uploader != nil {
		uploader.SetAttachmentSink(controller.appendAttachments)
	}
	return controller
}

// Open shows the submission dialog.
func (controller *SubmissionFormController) Open() {
	controller.mutex.Lock()
	controller.dialogOpen = true
	controller.mutex.Unlock()
}

// Close dismisses the dialog. It refuses while a submission is in flight, so
// backdrop clicks, the close button, and Escape all stay inert until the
// request settles.
func (controller *SubmissionFormController) Close() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if controller.submitting {
		return false
	}
	controller.dialogOpen = false
	return true
}

// DialogOpen reports whether the dialog is visible.
func (controller *SubmissionFormController) DialogOpen() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.dialogOpen
}

// SetType switches the feedback type. Type-specific metadata, the reference
// link, and attached files are cleared; title, description, and contact
// fields carry over.
func (controller *SubmissionFormController) SetType(feedbackType model.FeedbackType) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	if controller.feedbackType == feedbackType {
		return
	}
	controller.feedbackType = feedbackType
	controller.metadata = make(map[string]string)
	controller.referenceURL = ""
	controller.attachments = nil
	controller.modelName = ""
	controller.modelProvider = ""
}

// Type returns the selected feedback type.
func (controller *SubmissionFormController) Type() model.FeedbackType {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.feedbackType
}

// SetTitle records the title, truncated to the maximum as it is typed.
func (controller *SubmissionFormController) SetTitle(title string) {
	if len(title) > titleMaximumLength {
		title = title[:titleMaximumLength]
	}
	controller.mutex.Lock()
	controller.title = title
	controller.mutex.Unlock()
}

// SetDescription records the description, truncated to the maximum.
func (controller *SubmissionFormController) SetDescription(description string) {
	if len(description) > descriptionMaximumLength {
		description = description[:descriptionMaximumLength]
	}
	controller.mutex.Lock()
	controller.description = description
	controller.mutex.Unlock()
}

// SetModelName records the requested model name.
func (controller *SubmissionFormController) SetModelName(modelName string) {
	controller.mutex.Lock()
	controller.modelName = modelName
	controller.mutex.Unlock()
}

// SetModelProvider records the requested model provider.
func (controller *SubmissionFormController) SetModelProvider(modelProvider string) {
	controller.mutex.Lock()
	controller.modelProvider = modelProvider
	controller.mutex.Unlock()
}

// SetContactName records the optional submitter name.
func (controller *SubmissionFormController) SetContactName(contactName string) {
	controller.mutex.Lock()
	controller.contactName = contactName
	controller.mutex.Unlock()
}

// SetContactEmail records the optional submitter email.
func (controller *SubmissionFormController) SetContactEmail(contactEmail string) {
	controller.mutex.Lock()
	controller.contactEmail = contactEmail
	controller.mutex.Unlock()
}

// SetMetadataField records one type-specific field value. Names outside the
// current type's schema are ignored.
func (controller *SubmissionFormController) SetMetadataField(fieldName string, value string) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	for _, knownName := range model.MetadataFieldNamesForType(controller.feedbackType) {
		if knownName == fieldName {
			controller.metadata[fieldName] = value
			return
		}
	}
}

// MetadataField returns the recorded value for one type-specific field.
func (controller *SubmissionFormController) MetadataField(fieldName string) string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.metadata[fieldName]
}

// SetReferenceURL records the external reference link text.
func (controller *SubmissionFormController) SetReferenceURL(referenceURL string) {
	controller.mutex.Lock()
	controller.referenceURL = referenceURL
	controller.mutex.Unlock()
}

// SetEnvironment overrides the detected environment. An empty value means
// "not specified" and is omitted from the payload.
func (controller *SubmissionFormController) SetEnvironment(environment string) {
	controller.mutex.Lock()
	controller.environment = environment
	controller.mutex.Unlock()
}

// Environment returns the environment indicator in effect.
func (controller *SubmissionFormController) Environment() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.environment
}

// AttachFiles hands a picked or dropped batch to the uploader, quota-checked
// against the files already attached.
func (controller *SubmissionFormController) AttachFiles(ctx context.Context, files []UploadFile) {
	controller.mutex.Lock()
	attachedCount := len(controller.attachments)
	controller.mutex.Unlock()
	if controller.uploader != nil {
		controller.uploader.ProcessBatch(ctx, files, attachedCount)
	}
}

func (controller *SubmissionFormController) appendAttachments(uploaded []model.AttachmentMeta) {
	controller.mutex.Lock()
	controller.attachments = append(controller.attachments, uploaded...)
	controller.mutex.Unlock()
}

// Attachments returns a snapshot of the attached file metadata.
func (controller *SubmissionFormController) Attachments() []model.AttachmentMeta {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	snapshot := make([]model.AttachmentMeta, len(controller.attachments))
	copy(snapshot, controller.attachments)
	return snapshot
}

// RemoveAttachment drops a completed attachment by id. In-flight uploads are
// unaffected.
func (controller *SubmissionFormController) RemoveAttachment(attachmentID string) {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	for position, attachment := range controller.attachments {
		if attachment.ID == attachmentID {
			controller.attachments = append(controller.attachments[:position], controller.attachments[position+1:]...)
			return
		}
	}
}

// CanSubmit reports whether the validation gate holds: title of at least
// three trimmed characters, description of at least ten, and for model
// requests at least one of model name or provider.
func (controller *SubmissionFormController) CanSubmit() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.validationHolds()
}

func (controller *SubmissionFormController) validationHolds() bool {
	if len(strings.TrimSpace(controller.title)) < titleMinimumLength {
		return false
	}
	if len(strings.TrimSpace(controller.description)) < descriptionMinimumLength {
		return false
	}
	if controller.feedbackType == model.FeedbackTypeModelRequest {
		if strings.TrimSpace(controller.modelName) == "" && strings.TrimSpace(controller.modelProvider) == "" {
			return false
		}
	}
	return true
}

// BuildPayload assembles the creation payload: uploaded attachments merged
// with at most one synthesized reference link, and only the non-empty
// metadata fields, omitted entirely when none remain.
func (controller *SubmissionFormController) BuildPayload() apiclient.CreateFeedbackInput {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.buildPayloadLocked()
}

func (controller *SubmissionFormController) buildPayloadLocked() apiclient.CreateFeedbackInput {
	payload := apiclient.CreateFeedbackInput{
		Type:           controller.feedbackType,
		Title:          strings.TrimSpace(controller.title),
		Description:    strings.TrimSpace(controller.description),
		ModelName:      strings.TrimSpace(controller.modelName),
		ModelProvider:  strings.TrimSpace(controller.modelProvider),
		SubmitterName:  strings.TrimSpace(controller.contactName),
		SubmitterEmail: strings.TrimSpace(controller.contactEmail),
		Environment:    strings.TrimSpace(controller.environment),
	}

	metadata := make(map[string]string)
	for fieldName, fieldValue := range controller.metadata {
		if strings.TrimSpace(fieldValue) != "" {
			metadata[fieldName] = fieldValue
		}
	}
	if len(metadata) > 0 {
		payload.Metadata = metadata
	}

	attachments := make([]model.AttachmentMeta, 0, len(controller.attachments)+1)
	attachments = append(attachments, controller.attachments...)
	if trimmedReference := strings.TrimSpace(controller.referenceURL); trimmedReference != "" {
		attachments = append(attachments, model.NewReferenceLinkAttachment(trimmedReference))
	}
	if len(attachments) > 0 {
		payload.Attachments = attachments
	}

	return payload
}

// Submitting reports whether a submission request is in flight.
func (controller *SubmissionFormController) Submitting() bool {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.submitting
}

// ServerError returns the message from the last failed submission.
func (controller *SubmissionFormController) ServerError() string {
	controller.mutex.Lock()
	defer controller.mutex.Unlock()
	return controller.serverError
}

// Submit sends the creation payload. On success the dialog closes, a success
// toast appears, and both list and summary refetch. On failure the dialog
// stays open with the server's message and every entered value intact.
func (controller *SubmissionFormController) Submit(ctx context.Context) {
	controller.mutex.Lock()
	if controller.submitting || !controller.validationHolds() {
		controller.mutex.Unlock()
		return
	}
	controller.submitting = true
	controller.serverError = ""
	payload := controller.buildPayloadLocked()
	controller.mutex.Unlock()

	go controller.sendSubmission(ctx, payload)
}

func (controller *SubmissionFormController) sendSubmission(ctx context.Context, payload apiclient.CreateFeedbackInput) {
	created, createErr := controller.api.CreateFeedback(ctx, payload)

	if createErr != nil {
		controller.mutex.Lock()
		controller.submitting = false
		controller.serverError = createErr.Error()
		controller.mutex.Unlock()
		if controller.logger != nil {
			controller.logger.Warn(logEventSubmitFailed, zap.Error(createErr))
		}
		return
	}

	controller.mutex.Lock()
	controller.submitting = false
	controller.dialogOpen = false
	controller.resetLocked()
	controller.mutex.Unlock()

	if controller.logger != nil {
		controller.logger.Info(logEventSubmitSucceeded, zap.String("feedback_id", created.ID), zap.String("type", string(created.Type)))
	}
	if controller.notifier != nil {
		controller.notifier.Success(feedbackSubmittedMessage)
	}
	controller.list.RefreshAll(ctx)
}

func (controller *SubmissionFormController) resetLocked() {
	controller.title = ""
	controller.description = ""
	controller.modelName = ""
	controller.modelProvider = ""
	controller.metadata = make(map[string]string)
	controller.referenceURL = ""
	controller.attachments = nil
	controller.serverError = ""
}
