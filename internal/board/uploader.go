package board

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

// UploadStatus tracks one pending upload record.
type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusDone      UploadStatus = "done"
	UploadStatusError     UploadStatus = "error"
)

const (
	attachmentLimitReachedFormat = "a maximum of %d files can be attached"
	fileTypeNotAllowedFormat     = "%s: file type is not allowed"
	fileTooLargeFormat           = "%s: file exceeds the %d MiB limit"
	uploadFailedFormat           = "%s: upload failed"

	logEventUploadFailed = "attachment_upload_failed"

	bytesPerMiB = 1 << 20
)

// UploadFile is one file selected from the picker or dropped onto the form.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// PendingUpload is the uploader's transient progress record for one file.
type PendingUpload struct {
	ID           int64
	FileName     string
	Status       UploadStatus
	Meta         model.AttachmentMeta
	ErrorMessage string
}

// AttachmentUploader validates and uploads file batches. Uploads within a
// batch fan out concurrently and settle independently; one failed file never
// cancels or hides its siblings. Settled records purge themselves from the
// transient list after a fixed delay.
type AttachmentUploader struct {
	mutex             sync.Mutex
	api               apiclient.Service
	logger            *zap.Logger
	allowedExtensions map[string]struct{}
	maxUploadBytes    int64
	maxAttachedFiles  int
	purgeDelay        time.Duration
	nextPendingID     int64
	pending           []PendingUpload
	errorMessage      string
	attachmentSink    func([]model.AttachmentMeta)
}

// NewAttachmentUploader constructs an uploader with the configured limits.
func NewAttachmentUploader(api apiclient.Service, logger *zap.Logger, configuration Config) *AttachmentUploader {
	configuration = configuration.withDefaults()
	allowed := make(map[string]struct{}, len(configuration.AllowedExtensions))
	for _, extension := range configuration.AllowedExtensions {
		allowed[strings.ToLower(extension)] = struct{}{}
	}
	return &AttachmentUploader{
		api:               api,
		logger:            logger,
		allowedExtensions: allowed,
		maxUploadBytes:    configuration.MaxUploadBytes,
		maxAttachedFiles:  configuration.MaxAttachedFiles,
		purgeDelay:        configuration.UploadPurgeDelay,
	}
}

// SetAttachmentSink registers the callback receiving each batch's successful
// uploads in one append. The submission form owns the attachment list.
func (uploader *AttachmentUploader) SetAttachmentSink(sink func([]model.AttachmentMeta)) {
	uploader.mutex.Lock()
	uploader.attachmentSink = sink
	uploader.mutex.Unlock()
}

// ErrorMessage returns the batch-level validation error, empty when none.
func (uploader *AttachmentUploader) ErrorMessage() string {
	uploader.mutex.Lock()
	defer uploader.mutex.Unlock()
	return uploader.errorMessage
}

// Pending returns a snapshot of the transient upload records.
func (uploader *AttachmentUploader) Pending() []PendingUpload {
	uploader.mutex.Lock()
	defer uploader.mutex.Unlock()
	snapshot := make([]PendingUpload, len(uploader.pending))
	copy(snapshot, uploader.pending)
	return snapshot
}

// ProcessBatch validates the batch and uploads every accepted file
// concurrently. The batch is rejected whole when the attachment quota is
// already full or any file fails validation; it is silently truncated to the
// remaining quota otherwise.
func (uploader *AttachmentUploader) ProcessBatch(ctx context.Context, files []UploadFile, attachedCount int) {
	uploader.mutex.Lock()
	if attachedCount >= uploader.maxAttachedFiles {
		uploader.errorMessage = fmt.Sprintf(attachmentLimitReachedFormat, uploader.maxAttachedFiles)
		uploader.mutex.Unlock()
		return
	}

	remainingSlots := uploader.maxAttachedFiles - attachedCount
	if len(files) > remainingSlots {
		files = files[:remainingSlots]
	}

	if validationMessage := uploader.validateBatch(files); validationMessage != "" {
		uploader.errorMessage = validationMessage
		uploader.mutex.Unlock()
		return
	}
	uploader.errorMessage = ""

	pendingIDs := make([]int64, len(files))
	for position, file := range files {
		uploader.nextPendingID++
		pendingIDs[position] = uploader.nextPendingID
		uploader.pending = append(uploader.pending, PendingUpload{
			ID:       uploader.nextPendingID,
			FileName: file.Name,
			Status:   UploadStatusUploading,
		})
	}
	sink := uploader.attachmentSink
	uploader.mutex.Unlock()

	go uploader.uploadBatch(ctx, files, pendingIDs, sink)
}

// validateBatch checks every file before any upload starts. The first invalid
// file aborts the batch.
func (uploader *AttachmentUploader) validateBatch(files []UploadFile) string {
	for _, file := range files {
		extension := strings.ToLower(filepath.Ext(file.Name))
		if _, allowed := uploader.allowedExtensions[extension]; !allowed {
			return fmt.Sprintf(fileTypeNotAllowedFormat, file.Name)
		}
		if file.Size > uploader.maxUploadBytes {
			return fmt.Sprintf(fileTooLargeFormat, file.Name, uploader.maxUploadBytes/bytesPerMiB)
		}
	}
	return ""
}

func (uploader *AttachmentUploader) uploadBatch(ctx context.Context, files []UploadFile, pendingIDs []int64, sink func([]model.AttachmentMeta)) {
	type uploadOutcome struct {
		meta      model.AttachmentMeta
		uploadErr error
	}

	outcomes := make([]uploadOutcome, len(files))
	var waitGroup sync.WaitGroup
	for position := range files {
		waitGroup.Add(1)
		go func(position int) {
			defer waitGroup.Done()
			meta, uploadErr := uploader.api.UploadAttachment(ctx, apiclient.UploadInput{
				FileName: files[position].Name,
				Content:  files[position].Content,
			})
			outcomes[position] = uploadOutcome{meta: meta, uploadErr: uploadErr}
			uploader.settlePending(pendingIDs[position], meta, uploadErr, files[position].Name)
		}(position)
	}
	waitGroup.Wait()

	// Successful metadata lands in batch order, which keeps the append
	// deterministic no matter which upload resolved first.
	successes := make([]model.AttachmentMeta, 0, len(files))
	for _, outcome := range outcomes {
		if outcome.uploadErr == nil {
			successes = append(successes, outcome.meta)
		}
	}
	if len(successes) > 0 && sink != nil {
		sink(successes)
	}

	time.AfterFunc(uploader.purgeDelay, uploader.purgeSettled)
}

func (uploader *AttachmentUploader) settlePending(pendingID int64, meta model.AttachmentMeta, uploadErr error, fileName string) {
	uploader.mutex.Lock()
	defer uploader.mutex.Unlock()
	for position := range uploader.pending {
		if uploader.pending[position].ID != pendingID {
			continue
		}
		if uploadErr != nil {
			uploader.pending[position].Status = UploadStatusError
			uploader.pending[position].ErrorMessage = fmt.Sprintf(uploadFailedFormat, fileName)
			if uploader.logger != nil {
				uploader.logger.Warn(logEventUploadFailed, zap.String("file_name", fileName), zap.Error(uploadErr))
			}
			return
		}
		uploader.pending[position].Status = UploadStatusDone
		uploader.pending[position].Meta = meta
		return
	}
}

// purgeSettled drops every non-uploading record from the transient list. The
// caller's attachment list is untouched.
func (uploader *AttachmentUploader) purgeSettled() {
	uploader.mutex.Lock()
	defer uploader.mutex.Unlock()
	retained := uploader.pending[:0]
	for _, record := range uploader.pending {
		if record.Status == UploadStatusUploading {
			retained = append(retained, record)
		}
	}
	uploader.pending = retained
}
