// Package handlers implements the Depenados HTTP API over PostgreSQL.
package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/PortNumber53/depenados/internal/media"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	db          *sql.DB
	log         *zap.Logger
	uploader    media.Uploader
	mediaFolder string
	rt          *realtimeHub
	newID       func() string
	now         func() time.Time
}

type Option func(*Handler)

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithUploader sets the media host client used by POST /api/upload and the
// folder uploaded files are placed in.
func WithUploader(u media.Uploader, folder string) Option {
	return func(h *Handler) {
		h.uploader = u
		if folder != "" {
			h.mediaFolder = folder
		}
	}
}

// WithIDGenerator replaces the uuid generator (tests use deterministic ids).
func WithIDGenerator(f func() string) Option {
	return func(h *Handler) { h.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func New(db *sql.DB, opts ...Option) *Handler {
	h := &Handler{
		db:          db,
		log:         zap.NewNop(),
		mediaFolder: "depenados/media",
		rt:          newRealtimeHub(),
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
