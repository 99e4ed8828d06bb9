package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lanvault/metrics"
	"lanvault/vault"
)

// Handler maps the HTTP surface onto the vault service.
type Handler struct {
	vault *vault.Service
	log   *zap.Logger
}

func NewHandler(svc *vault.Service, log *zap.Logger) *Handler {
	return &Handler{vault: svc, log: log}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.vault.List(c.Query("path"))
	metrics.ObserveOp("list", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Stat(c *gin.Context) {
	item, err := h.vault.Stat(c.Query("path"))
	metrics.ObserveOp("stat", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) Download(c *gin.Context) {
	f, err := h.vault.Open(c.Query("path"))
	metrics.ObserveOp("download", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	size := int64(0)
	if f.Item.Size != nil {
		size = *f.Item.Size
	}
	metrics.AddBytesDownloaded(size)

	c.DataFromReader(http.StatusOK, size, f.ContentType, f, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", f.Item.Name),
	})
}

func (h *Handler) Preview(c *gin.Context) {
	p, err := h.vault.Preview(c.Query("path"))
	metrics.ObserveOp("preview", err)
	if err != nil {
		h.fail(c, err)
		return
	}

	disposition := fmt.Sprintf("inline; filename=%q", p.Item.Name)
	if p.Inline != nil {
		metrics.AddBytesDownloaded(int64(len(p.Inline)))
		c.Header("Content-Disposition", disposition)
		c.Data(http.StatusOK, p.ContentType, p.Inline)
		return
	}

	defer p.Stream.Close()
	size := int64(0)
	if p.Item.Size != nil {
		size = *p.Item.Size
	}
	metrics.AddBytesDownloaded(size)
	c.DataFromReader(http.StatusOK, size, p.ContentType, p.Stream, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Upload accepts one or more multipart files under the "files" field, written
// into the directory named by the "path" query or form value. The first
// failure aborts the remaining files in the request; files already written
// stay in place.
func (h *Handler) Upload(c *gin.Context) {
	// The limit applies to the whole request body; one oversized file also
	// trips the per-file check inside the vault.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.vault.MaxUploadBytes()+1<<20)

	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(c, fmt.Errorf("upload: %w", vault.ErrTooLarge))
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid multipart body"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no files in request"})
		return
	}

	dir := c.Query("path")
	if v, ok := form.Value["path"]; ok && len(v) > 0 {
		dir = v[0]
	}

	uploaded := make([]vault.ItemInfo, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			metrics.ObserveOp("upload", err)
			h.fail(c, fmt.Errorf("upload %s: %v", fh.Filename, err))
			return
		}

		item, err := h.vault.Upload(dir, fh.Filename, src)
		src.Close()
		metrics.ObserveOp("upload", err)
		if err != nil {
			h.fail(c, err)
			return
		}

		metrics.AddBytesUploaded(fh.Size)
		uploaded = append(uploaded, item)
	}

	c.JSON(http.StatusOK, gin.H{"items": uploaded})
}

type mkdirRequest struct {
	Path string `json:"path"`
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateDirectory(c *gin.Context) {
	var req mkdirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.vault.CreateDirectory(req.Path, req.Name)
	metrics.ObserveOp("mkdir", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type deleteRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *Handler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.vault.Delete(req.Path)
	metrics.ObserveOp("delete", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type renameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

func (h *Handler) Rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.vault.Rename(req.Path, req.NewName)
	metrics.ObserveOp("rename", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type moveRequest struct {
	Source    string `json:"source" binding:"required"`
	TargetDir string `json:"targetDir"`
}

func (h *Handler) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.vault.Move(req.Source, req.TargetDir)
	metrics.ObserveOp("move", err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
