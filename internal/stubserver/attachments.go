package stubserver

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/storage"
)

const (
	errorValueMissingFile    = "missing_file"
	errorValueFileType       = "file_type_not_allowed"
	errorValueFileTooLarge   = "file_too_large"
	attachmentStorageBackend = "local"
)

// uploadAttachment mirrors the client-side validation rules exactly: the
// extension allow-list and the byte ceiling must agree on both sides.
func (server *Server) uploadAttachment(ginContext *gin.Context) {
	fileHeader, fileErr := ginContext.FormFile("file")
	if fileErr != nil {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingFile})
		return
	}

	extension := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !model.AttachmentExtensionAllowed(extension) {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueFileType})
		return
	}
	if fileHeader.Size > model.MaxAttachmentBytes {
		ginContext.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueFileTooLarge})
		return
	}

	storedName := storage.NewID() + extension
	storedPath := storedName
	if server.uploadDirectory != "" {
		storedPath = filepath.Join(server.uploadDirectory, storedName)
		if writeErr := server.writeUpload(fileHeader, storedPath); writeErr != nil {
			server.internalError(ginContext, writeErr)
			return
		}
	}

	meta := model.AttachmentMeta{
		ID:          storage.NewID(),
		DisplayName: fileHeader.Filename,
		StoredName:  storedName,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		Storage:     attachmentStorageBackend,
		Path:        storedPath,
	}

	if createErr := server.database.Create(&meta).Error; createErr != nil {
		server.internalError(ginContext, createErr)
		return
	}

	ginContext.JSON(http.StatusCreated, meta)
}

func (server *Server) writeUpload(fileHeader *multipart.FileHeader, storedPath string) error {
	if mkdirErr := os.MkdirAll(filepath.Dir(storedPath), 0o755); mkdirErr != nil {
		return mkdirErr
	}
	source, openErr := fileHeader.Open()
	if openErr != nil {
		return openErr
	}
	defer func() {
		_ = source.Close()
	}()
	destination, createErr := os.Create(storedPath)
	if createErr != nil {
		return createErr
	}
	defer func() {
		_ = destination.Close()
	}()
	_, copyErr := io.Copy(destination, source)
	return copyErr
}
