package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/PortNumber53/depenados/internal/media"
	"github.com/PortNumber53/depenados/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxUploadMemory = 32 << 20

// classifyUpload maps a declared content type onto a media type: video/*
// is video, everything else is treated as an image.
func classifyUpload(contentType string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return models.MediaTypeVideo
	}
	return models.MediaTypeImage
}

// Upload pushes every file in the "files" field to the media host
// concurrently. Any failure fails the whole batch; files that did upload
// are left on the host.
// URL: POST /api/upload
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && err != http.ErrNotMultipart {
		h.log.Warn("upload parse failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgNoFiles)
		return
	}
	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["files"]
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFiles)
		return
	}
	if h.uploader == nil || !h.uploader.Configured() {
		h.respondErr(w, r, &ConfigurationError{Message: msgMediaNotConfigured}, "")
		return
	}

	out := make([]models.UploadedFile, len(files))
	g, ctx := errgroup.WithContext(r.Context())
	for i, fh := range files {
		g.Go(func() error {
			data, err := readUpload(fh)
			if err != nil {
				return err
			}
			kind := classifyUpload(fh.Header.Get("Content-Type"))
			res, err := h.uploader.Upload(ctx, data, fh.Filename, media.UploadOptions{
				Folder:       h.mediaFolder,
				ResourceType: kind,
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", fh.Filename, err)
			}
			out[i] = models.UploadedFile{
				ID:           res.PublicID,
				URL:          res.SecureURL,
				Type:         kind,
				OriginalName: fh.Filename,
				Width:        res.Width,
				Height:       res.Height,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.respondErr(w, r, err, "Erro ao fazer upload dos arquivos")
		return
	}
	h.log.Info("upload completed", zap.Int("files", len(out)))
	writeJSON(w, http.StatusOK, models.UploadResponse{Files: out})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}
