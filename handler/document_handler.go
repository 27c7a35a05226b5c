package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/crestline-lending/income-engine/dto"
	"github.com/crestline-lending/income-engine/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DocumentHandler struct {
	pipeline    *service.Pipeline
	store       service.Store
	maxFileSize int64
	log         *logrus.Logger
}

func NewDocumentHandler(pipeline *service.Pipeline, store service.Store, maxFileSize int64, log *logrus.Logger) *DocumentHandler {
	return &DocumentHandler{
		pipeline:    pipeline,
		store:       store,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Upload handles POST /api/v1/borrowers/:borrowerID/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	borrowerID := c.Param("borrowerID")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_UPLOAD", "No file provided", err)
		return
	}
	if fileHeader.Size > h.maxFileSize {
		h.sendError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload limit", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_UPLOAD", "Failed to open uploaded file", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_UPLOAD", "Failed to read uploaded file", err)
		return
	}

	declared := dto.DocumentType(c.PostForm("declared_type"))

	doc, err := h.pipeline.Upload(c.Request.Context(), borrowerID, fileHeader.Filename, content, declared)
	if err != nil {
		// Unsupported files still produce a failed document record so the
		// borrower's file shows what was attempted.
		if errors.Is(err, dto.ErrUnsupportedMIME) {
			c.JSON(http.StatusUnsupportedMediaType, dto.UploadResponse{
				DocumentID: doc.ID,
				OCRStatus:  doc.OCRStatus,
			})
			return
		}
		h.sendError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store document", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"borrower_id": borrowerID,
		"document_id": doc.ID,
		"file_name":   fileHeader.Filename,
	}).Info("document accepted")

	c.JSON(http.StatusAccepted, dto.UploadResponse{
		DocumentID: doc.ID,
		OCRStatus:  doc.OCRStatus,
	})
}

// List handles GET /api/v1/borrowers/:borrowerID/documents
func (h *DocumentHandler) List(c *gin.Context) {
	borrowerID := c.Param("borrowerID")

	docs, err := h.store.ListDocuments(c.Request.Context(), borrowerID)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Get handles GET /api/v1/documents/:documentID
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_ID", "Document ID must be a UUID", err)
		return
	}

	doc, err := h.store.GetDocument(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, dto.ErrDocumentNotFound) {
			h.sendError(c, http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to fetch document", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/documents/:documentID
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_ID", "Document ID must be a UUID", err)
		return
	}

	if err := h.store.RemoveDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, dto.ErrDocumentNotFound) {
			h.sendError(c, http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete document", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reprocess handles POST /api/v1/documents/:documentID/reprocess
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("documentID"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_ID", "Document ID must be a UUID", err)
		return
	}

	var request dto.ReprocessRequest
	if err := c.ShouldBindJSON(&request); err != nil && err != io.EOF {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed reprocess request", err)
		return
	}

	doc, err := h.pipeline.Reprocess(c.Request.Context(), id, request.ForceOCR)
	if err != nil {
		switch {
		case errors.Is(err, dto.ErrDocumentNotFound):
			h.sendError(c, http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
		case errors.Is(err, dto.ErrDocumentBusy):
			h.sendError(c, http.StatusConflict, "DOCUMENT_BUSY", "Document is already being processed", nil)
		default:
			h.sendError(c, http.StatusInternalServerError, "REPROCESS_FAILED", "Failed to reprocess document", err)
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.UploadResponse{
		DocumentID: doc.ID,
		OCRStatus:  doc.OCRStatus,
	})
}

// sendError sends a structured error response
func (h *DocumentHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	if err != nil {
		h.log.WithError(err).Error(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
