package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/quarind/docqa/internal/filestore"
	"github.com/quarind/docqa/internal/model"
	appErr "github.com/quarind/docqa/internal/pkg/errors"
	"github.com/quarind/docqa/internal/pkg/response"
	"github.com/quarind/docqa/internal/service"
)

type DocumentHandler struct {
	svc   *service.IndexService
	store filestore.Store
}

type ListDocumentsResponse struct {
	Documents []model.DocumentRecord `json:"documents"`
	Count     int                    `json:"count"`
}

type DeleteDocumentResponse struct {
	DocID   string `json:"doc_id"`
	Deleted bool   `json:"deleted"`
}

func NewDocumentHandler(svc *service.IndexService, store filestore.Store) *DocumentHandler {
	return &DocumentHandler{svc: svc, store: store}
}

// Upload accepts a multipart file, stages it to a temp path and runs the
// full ingestion pipeline. The original bytes are archived in the file
// store after a successful ingest.
func (h *DocumentHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}

	staged, err := os.CreateTemp("", "docqa-upload-*")
	if err != nil {
		handleError(c, fmt.Errorf("%w: stage upload: %v", appErr.ErrIO, err))
		return
	}
	stagedPath := staged.Name()
	staged.Close()
	defer os.Remove(stagedPath)

	if err := c.SaveUploadedFile(file, stagedPath); err != nil {
		handleError(c, fmt.Errorf("%w: stage upload: %v", appErr.ErrIO, err))
		return
	}

	record, err := h.svc.Ingest(ctx, stagedPath, filepath.Base(file.Filename))
	if err != nil {
		handleError(c, err)
		return
	}
	h.archiveOriginal(c, stagedPath, record)

	response.SuccessStatus(c, http.StatusCreated, record)
}

// archiveOriginal keeps the uploaded bytes for later re-ingestion. Failure
// here is logged but does not fail the request: the document is already
// indexed and durable.
func (h *DocumentHandler) archiveOriginal(c *gin.Context, stagedPath string, record *model.DocumentRecord) {
	ctx := c.Request.Context()
	in, err := os.Open(stagedPath)
	if err != nil {
		logutil.GetLogger(ctx).Warn("archive original failed",
			zap.String("doc_id", record.DocID), zap.Error(err))
		return
	}
	defer in.Close()
	key := record.DocID + "." + record.FileType
	if err := h.store.Save(ctx, key, in, record.SizeBytes); err != nil {
		logutil.GetLogger(ctx).Warn("archive original failed",
			zap.String("doc_id", record.DocID), zap.Error(err))
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs := h.svc.ListDocuments()
	response.Success(c, ListDocumentsResponse{Documents: docs, Count: len(docs)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	docID := c.Param("id")

	record, hadRecord := h.svc.GetDocument(docID)
	deleted, err := h.svc.Delete(ctx, docID)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		handleError(c, fmt.Errorf("%w: document %s", appErr.ErrNotFound, docID))
		return
	}
	if hadRecord {
		key := record.DocID + "." + record.FileType
		if err := h.store.Remove(ctx, key); err != nil {
			logutil.GetLogger(ctx).Warn("remove archived original failed",
				zap.String("doc_id", docID), zap.Error(err))
		}
	}

	response.Success(c, DeleteDocumentResponse{DocID: docID, Deleted: true})
}
