package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/apperr"
	"github.com/atelierhq/atelier-api/internal/api/response"
	"github.com/atelierhq/atelier-api/internal/store"
)

// handleCreateUpload handles POST /api/v1/uploads (multipart field "file").
func (s *Server) handleCreateUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperr.BadRequest("errors.badRequest")
	}

	maxBytes := int64(s.cfg.Uploads.MaxSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return apperr.BadRequest("uploads.tooLarge")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !s.mimeAllowed(mimeType) {
		return apperr.BadRequest("uploads.badType")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(s.cfg.Uploads.Dir, 0755); err != nil {
		return err
	}

	id := uuid.NewString()
	filename := id + filepath.Ext(fileHeader.Filename)
	dst, err := os.Create(filepath.Join(s.cfg.Uploads.Dir, filename))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxBytes)); err != nil {
		return err
	}

	upload := &store.Upload{
		ID:        id,
		UserID:    claimsFrom(c).UserID,
		Filename:  filename,
		Original:  fileHeader.Filename,
		MIMEType:  mimeType,
		SizeBytes: fileHeader.Size,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUpload(c.Request().Context(), upload); err != nil {
		return err
	}

	env := response.SuccessSingle(s.bundle, upload, "uploads.created", Lang(c), true)
	return c.JSON(http.StatusCreated, env)
}

// handleListUploads handles GET /api/v1/uploads
func (s *Server) handleListUploads(c echo.Context) error {
	page, limit := pageParams(c)
	uploads, total, err := s.store.ListUploads(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	env := response.SuccessList(s.bundle, uploads, total, page, limit, "uploads.list", Lang(c))
	return c.JSON(http.StatusOK, env)
}

// handleDeleteUpload handles DELETE /api/v1/uploads/:id
func (s *Server) handleDeleteUpload(c echo.Context) error {
	ctx := c.Request().Context()
	upload, err := s.store.GetUpload(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("uploads.notFound")
	}
	if err != nil {
		return err
	}
	if !isAdmin(c) && !ownedBy(c, upload.UserID) {
		return apperr.Forbidden("errors.forbidden")
	}

	if err := s.store.DeleteUpload(ctx, upload.ID); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.cfg.Uploads.Dir, upload.Filename)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("file", upload.Filename).Msg("Failed to remove uploaded file from disk")
	}

	env := response.SuccessSingle(s.bundle, nil, "uploads.deleted", Lang(c), true)
	return c.JSON(http.StatusOK, env)
}

func (s *Server) mimeAllowed(mimeType string) bool {
	for _, allowed := range s.cfg.Uploads.MIMETypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}
