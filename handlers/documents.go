package handlers

import (
	"io"
	"net/http"
	"time"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title    string    `json:"title" binding:"required,max=200"`
	ParentID uuid.UUID `json:"parent_id" binding:"required"`
	Lang     string    `json:"lang"`
	OCR      bool      `json:"ocr"`
}

type SetDocumentTypeRequest struct {
	DocumentTypeID *uuid.UUID `json:"document_type_id"`
}

type UpdateCFVRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

func CreateDocument(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	node, doc, err := getServices().Documents.CreateDocument(c.Request.Context(), actor, req.ParentID, req.Title, req.Lang, req.OCR)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, gin.H{"node": node, "document": doc})
}

func GetDocument(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	node, doc, err := getServices().Documents.GetDocument(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	versions, err := getServices().Documents.Versions(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"node": node, "document": doc, "versions": versions})
}

// UploadDocument accepts multipart file content for an existing document.
func UploadDocument(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "missing file field")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")

	ver, err := getServices().Documents.Upload(c.Request.Context(), actor, id, content, fileHeader.Filename, contentType)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, ver)
}

// DownloadDocumentURL emits the deterministic sharded path for the
// latest version; the storage fronting layer serves the bytes.
func DownloadDocumentURL(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ver, err := getServices().Documents.LastVersion(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	fileName := ""
	if ver.FileName != nil {
		fileName = *ver.FileName
	}
	utils.Success(c, http.StatusOK, gin.H{
		"version_id": ver.ID,
		"file_name":  fileName,
		"path":       services.ShardedPath(ver.ID),
		"issued_at":  time.Now().UTC(),
	})
}

func ListDocumentPages(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	pages, err := getServices().Documents.LastVersionPages(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, pages)
}

func SetDocumentType(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req SetDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if respondServiceError(c, getServices().Documents.SetDocumentType(c.Request.Context(), actor, id, req.DocumentTypeID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func GetDocumentCFV(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	values, err := getServices().Documents.GetDocCFV(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, values)
}

func UpdateDocumentCFV(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateCFVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	values, err := getServices().Documents.UpdateDocCFV(c.Request.Context(), actor, id, req.Values)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, values)
}
