package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"
	"zzpri-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

var documentList = listSpec{
	search: []string{"title", "file_name", "category"},
	filters: map[string]filterDef{
		"category":     textFilter("category"),
		"procedure_id": idFilter("procedure_id"),
	},
	sorts: map[string]string{
		"title":      "title",
		"created_at": "created_at",
		"size":       "size",
	},
	defaultSort: "created_at",
	defaultDesc: true,
}

// allowed upload types for procedure documents
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
}

// DocumentHandler serves procedure documents kept in a storage.Store.
type DocumentHandler struct {
	Store    storage.Store
	MaxBytes int64
}

type documentForm struct {
	Title       string `form:"title" binding:"required,min=3,max=255"`
	Category    string `form:"category" binding:"max=100"`
	ProcedureID *uint  `form:"procedure_id"`
}

func (h *DocumentHandler) List(c *gin.Context) {
	items, total, ok := listRecords[models.ProcedureDocument](c, documentList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, ok := loadRecord[models.ProcedureDocument](c, "Procedure")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes+1<<20)

	var form documentForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respondBindError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondFieldError(c, "file", "file is required")
		return
	}
	if fh.Size > h.MaxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType, allowed := documentTypes[ext]
	if !allowed {
		respondFieldError(c, "file", "unsupported file type "+ext)
		return
	}

	if form.ProcedureID != nil {
		var count int64
		database.DB.Model(&models.WhistleblowerProcedure{}).Where("id = ?", *form.ProcedureID).Count(&count)
		if count == 0 {
			respondFieldError(c, "procedure_id", "procedure not found")
			return
		}
	}

	src, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read upload")
		return
	}
	defer src.Close()

	obj, err := h.Store.Put(fh.Filename, src)
	if err != nil {
		slog.Error("failed to store document", "file", fh.Filename, "err", err)
		respondError(c, http.StatusInternalServerError, "failed to store document")
		return
	}

	doc := models.ProcedureDocument{
		Title:        strings.TrimSpace(form.Title),
		Category:     strings.TrimSpace(form.Category),
		FileName:     filepath.Base(fh.Filename),
		ObjectKey:    obj.Key,
		ContentType:  contentType,
		Size:         obj.Size,
		Checksum:     obj.Checksum,
		UploadedByID: currentUserID(c),
		ProcedureID:  form.ProcedureID,
	}
	if err := database.DB.Create(&doc).Error; err != nil {
		// keep the store in sync with the table
		_ = h.Store.Delete(obj.Key)
		respondError(c, http.StatusInternalServerError, "failed to save document")
		return
	}

	audit(c, "document", doc.ID, "create", "Document uploaded: "+doc.Title+" ("+doc.FileName+")")
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	doc, ok := loadRecord[models.ProcedureDocument](c)
	if !ok {
		return
	}

	rc, err := h.Store.Open(doc.ObjectKey)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "document content missing")
		return
	}
	if err != nil {
		slog.Error("failed to open document", "document", doc.ID, "err", err)
		respondError(c, http.StatusInternalServerError, "failed to open document")
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	c.Header("Content-Disposition", disposition)
	c.Header("Content-Length", strconv.FormatInt(doc.Size, 10))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Type", doc.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	doc, ok := loadRecord[models.ProcedureDocument](c)
	if !ok {
		return
	}

	// hard delete: the object key is unique and the content goes away too
	if err := database.DB.Unscoped().Delete(doc).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete document")
		return
	}
	if err := h.Store.Delete(doc.ObjectKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("document content not removed", "document", doc.ID, "key", doc.ObjectKey, "err", err)
	}

	audit(c, "document", doc.ID, "delete", "Document deleted: "+doc.Title)
	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) Export(c *gin.Context) {
	exportRecords(c, documentList, "Procedure Documents",
		[]string{"ID", "Title", "Category", "File", "Size", "SHA-256", "Uploaded"},
		func(d models.ProcedureDocument) []string {
			return []string{
				strconv.FormatUint(uint64(d.ID), 10),
				d.Title,
				d.Category,
				d.FileName,
				strconv.FormatInt(d.Size, 10),
				d.Checksum,
				formatTime(d.CreatedAt),
			}
		})
}
