package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"accounthub/api/internal/service"
)

// Upload-policy rejections keep the original 404 wire behavior; see
// DESIGN.md for why the status is not 400.
func uploadPolicyReject(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		uploadPolicyReject(c, "please upload an image")
		return
	}
	defer file.Close()

	maxBytes := h.cfg.Upload.MaxFileBytes
	if header.Size > maxBytes {
		uploadPolicyReject(c, "file too large")
		return
	}

	if !h.extensionAllowed(filepath.Ext(header.Filename)) {
		uploadPolicyReject(c, "please upload an image")
		return
	}

	// the header size is client-declared; cap the actual read too
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		uploadPolicyReject(c, "could not read upload")
		return
	}
	if int64(len(data)) > maxBytes {
		uploadPolicyReject(c, "file too large")
		return
	}

	if err := h.avatars.Store(c.Request.Context(), user, header.Filename, data); err != nil {
		if errors.Is(err, service.ErrUndecodableImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("store avatar failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

func (h HandlerSet) DeleteAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	if err := h.avatars.Clear(c.Request.Context(), user.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("clear avatar failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

func (h HandlerSet) FetchAvatar(c *gin.Context) {
	avatar, err := h.avatars.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		// absent user and absent avatar look the same from outside
		c.Status(http.StatusNotFound)
		return
	}

	c.Data(http.StatusOK, "image/png", avatar)
}

// extensionAllowed is a case-sensitive filename check, matching the
// original filter exactly (".JPG" is rejected).
func (h HandlerSet) extensionAllowed(ext string) bool {
	for _, allowed := range h.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
