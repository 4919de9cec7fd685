// Package handlers exposes the gallery over HTTP with gin.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fotomu/gallery"
)

// Handler serves the gallery API.
type Handler struct {
	gallery *gallery.Gallery
	logger  *slog.Logger
}

// New returns a Handler for g.
func New(g *gallery.Gallery, logger *slog.Logger) *Handler {
	return &Handler{gallery: g, logger: logger}
}

// Register mounts every gallery route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	r.GET("/folders", h.ListFolders)
	r.POST("/folders", h.CreateFolder)
	r.PUT("/folders/:name", h.RenameFolder)
	r.DELETE("/folders/:name", h.DeleteFolder)
	r.POST("/move", h.MoveFiles)

	r.GET("/cek-foto", h.ListFiles)
	r.POST("/upload", h.Upload)
	r.POST("/like/:fileId", h.Like)
	r.POST("/unlike/:fileId", h.Unlike)
	r.POST("/hapus", h.Delete)
	r.POST("/download-zip", h.DownloadZip)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListFolders(c *gin.Context) {
	folders, err := h.gallery.Folders(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	folder, err := h.gallery.CreateFolder(c.Request.Context(), input.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "folder": folder})
}

func (h *Handler) RenameFolder(c *gin.Context) {
	var input struct {
		NewName string `json:"newName"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.gallery.RenameFolder(c.Request.Context(), c.Param("name"), input.NewName); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteFolder(c *gin.Context) {
	if err := h.gallery.DeleteFolder(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MoveFiles(c *gin.Context) {
	var input struct {
		FileIDs      []string `json:"fileIds"`
		TargetFolder string   `json:"targetFolder"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	moved, err := h.gallery.Move(c.Request.Context(), input.FileIDs, input.TargetFolder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "moved": moved})
}

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.gallery.List(c.Request.Context(), c.Query("folder"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["foto"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	headers := form.File["foto"]
	files := make([]gallery.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, gallery.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        opener(fh),
		})
	}

	summary, err := h.gallery.Upload(c.Request.Context(), files, c.PostForm("folder"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"success": true, "uploaded": summary.Uploaded}
	if len(summary.Errors) > 0 {
		resp["errors"] = summary.Errors
	}
	c.JSON(http.StatusOK, resp)
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func (h *Handler) Like(c *gin.Context) {
	if err := h.gallery.Like(c.Request.Context(), c.Param("fileId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Unlike(c *gin.Context) {
	if err := h.gallery.Unlike(c.Request.Context(), c.Param("fileId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Delete(c *gin.Context) {
	var input struct {
		FileID string `json:"fileId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	deleted, err := h.gallery.Delete(c.Request.Context(), input.FileID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedFromCloud": deleted})
}

// DownloadZip streams the requested files as a zip. Once the first byte is
// written the status can no longer change, so later failures are only
// logged.
func (h *Handler) DownloadZip(c *gin.Context) {
	var req gallery.ArchiveRequest
	// An empty body asks for everything.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx := c.Request.Context()
	members, err := h.gallery.ResolveArchive(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("backup-%s.zip", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	n, err := h.gallery.WriteArchive(ctx, c.Writer, members)
	if err != nil {
		h.logger.Error("streaming archive", "error", err, "written", n)
		return
	}
	h.logger.Info("archive sent", "requested", len(members), "written", n)
}

// fail maps gallery errors to a status code and an error body.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gallery.ErrValidation), errors.Is(err, gallery.ErrDuplicateFolder):
		status = http.StatusBadRequest
	case errors.Is(err, gallery.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
