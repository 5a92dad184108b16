package board

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const testUploadPurgeDelay = 40 * time.Millisecond

func newTestUploader(api apiclient.Service) *AttachmentUploader {
	return newTestUploaderWithPurgeDelay(api, testUploadPurgeDelay)
}

func newTestUploaderWithPurgeDelay(api apiclient.Service, purgeDelay time.Duration) *AttachmentUploader {
	return NewAttachmentUploader(api, zap.NewNop(), Config{
		MaxAttachedFiles:  3,
		MaxUploadBytes:    model.MaxAttachmentBytes,
		AllowedExtensions: model.AllowedAttachmentExtensions,
		UploadPurgeDelay:  purgeDelay,
	})
}

func uploadFileNamed(name string) UploadFile {
	return UploadFile{Name: name, Size: 128, Content: strings.NewReader("payload")}
}

func TestAttachmentUploaderRejectsBatchWhenQuotaFull(testingT *testing.T) {
	api := &stubAPI{}
	uploader := newTestUploader(api)

	uploader.ProcessBatch(context.Background(), []UploadFile{uploadFileNamed("extra.png")}, 3)

	require.Equal(testingT, "a maximum of 3 files can be attached", uploader.ErrorMessage())
	time.Sleep(4 * testWaitTick)
	require.Zero(testingT, api.uploadCallCount())
}

func TestAttachmentUploaderTruncatesToRemainingSlots(testingT *testing.T) {
	api := &stubAPI{}
	uploader := newTestUploader(api)
	var delivered []model.AttachmentMeta
	deliveredSignal := make(chan struct{})
	uploader.SetAttachmentSink(func(batch []model.AttachmentMeta) {
		delivered = batch
		close(deliveredSignal)
	})

	batch := []UploadFile{uploadFileNamed("a.png"), uploadFileNamed("b.png"), uploadFileNamed("c.png")}
	uploader.ProcessBatch(context.Background(), batch, 2)

	select {
	case <-deliveredSignal:
	case <-time.After(testWaitTimeout):
		testingT.Fatal("attachment sink never invoked")
	}
	require.Len(testingT, delivered, 1)
	require.Equal(testingT, "a.png", delivered[0].DisplayName)
	require.Empty(testingT, uploader.ErrorMessage())
}

func TestAttachmentUploaderValidationAbortsWholeBatch(testingT *testing.T) {
	testCases := []struct {
		name            string
		files           []UploadFile
		expectedMessage string
	}{
		{
			name:            "disallowedExtension",
			files:           []UploadFile{uploadFileNamed("ok.png"), uploadFileNamed("malware.exe")},
			expectedMessage: "malware.exe: file type is not allowed",
		},
		{
			name: "oversizedFile",
			files: []UploadFile{
				uploadFileNamed("ok.png"),
				{Name: "huge.pdf", Size: model.MaxAttachmentBytes + 1, Content: strings.NewReader("x")},
			},
			expectedMessage: "huge.pdf: file exceeds the 10 MiB limit",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(nestedT *testing.T) {
			api := &stubAPI{}
			uploader := newTestUploader(api)

			uploader.ProcessBatch(context.Background(), testCase.files, 0)

			require.Equal(nestedT, testCase.expectedMessage, uploader.ErrorMessage())
			time.Sleep(4 * testWaitTick)
			require.Zero(nestedT, api.uploadCallCount())
			require.Empty(nestedT, uploader.Pending())
		})
	}
}

func TestAttachmentUploaderBatchSettlesIndependently(testingT *testing.T) {
	api := &stubAPI{
		uploadFunc: func(input apiclient.UploadInput) (model.AttachmentMeta, error) {
			if input.FileName == "bad.png" {
				return model.AttachmentMeta{}, errors.New("disk full")
			}
			return model.AttachmentMeta{ID: "att-" + input.FileName, DisplayName: input.FileName}, nil
		},
	}
	uploader := newTestUploaderWithPurgeDelay(api, time.Hour)
	var delivered []model.AttachmentMeta
	deliveredSignal := make(chan struct{})
	uploader.SetAttachmentSink(func(batch []model.AttachmentMeta) {
		delivered = batch
		close(deliveredSignal)
	})

	batch := []UploadFile{uploadFileNamed("good.png"), uploadFileNamed("bad.png"), uploadFileNamed("fine.pdf")}
	uploader.ProcessBatch(context.Background(), batch, 0)

	select {
	case <-deliveredSignal:
	case <-time.After(testWaitTimeout):
		testingT.Fatal("attachment sink never invoked")
	}

	// The failed sibling never hides the successes, and batch order holds.
	require.Len(testingT, delivered, 2)
	require.Equal(testingT, "good.png", delivered[0].DisplayName)
	require.Equal(testingT, "fine.pdf", delivered[1].DisplayName)

	pendingRecords := uploader.Pending()
	require.Len(testingT, pendingRecords, 3)
	statusByName := make(map[string]UploadStatus, len(pendingRecords))
	for _, record := range pendingRecords {
		statusByName[record.FileName] = record.Status
	}
	require.Equal(testingT, UploadStatusDone, statusByName["good.png"])
	require.Equal(testingT, UploadStatusError, statusByName["bad.png"])
	require.Equal(testingT, UploadStatusDone, statusByName["fine.pdf"])
}

func TestAttachmentUploaderPurgesSettledRecords(testingT *testing.T) {
	api := &stubAPI{}
	uploader := newTestUploader(api)

	uploader.ProcessBatch(context.Background(), []UploadFile{uploadFileNamed("a.png")}, 0)

	require.Eventually(testingT, func() bool {
		pendingRecords := uploader.Pending()
		return len(pendingRecords) == 1 && pendingRecords[0].Status == UploadStatusDone
	}, testWaitTimeout, testWaitTick)

	require.Eventually(testingT, func() bool {
		return len(uploader.Pending()) == 0
	}, testWaitTimeout, testWaitTick)
}
