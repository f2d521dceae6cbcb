package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PortNumber53/depenados/internal/models"
	"github.com/lib/pq"
)

const eventColumns = `e.id, e.title, e.description, e.location, e.date, e.cover_image, e.created_by, e.creator_id, e.status, e.created_at, e.updated_at`

func scanEvent(row rowScanner, extra ...any) (models.Event, error) {
	var e models.Event
	var desc, loc, cover, creatorID sql.NullString
	dest := append([]any{&e.ID, &e.Title, &desc, &loc, &e.Date, &cover, &e.CreatedBy, &creatorID,
		&e.Status, &e.CreatedAt, &e.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Event{}, err
	}
	e.Description, e.Location = nullStringPtr(desc), nullStringPtr(loc)
	e.CoverImage, e.CreatorID = nullStringPtr(cover), nullStringPtr(creatorID)
	return e, nil
}

// queryEventPreviews runs an event select (aliased e) and attaches each
// event's media.
func (h *Handler) queryEventPreviews(ctx context.Context, query string, args ...any) ([]models.EventPreview, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	events := []models.EventPreview{}
	ids := []string{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, models.EventPreview{Event: e})
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	media, err := mediaByOwner(ctx, h.db, mediaOwnerEvent, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Media = media[events[i].ID]
		if events[i].Media == nil {
			events[i].Media = []models.Media{}
		}
	}
	return events, nil
}

// loadEvent returns one event with its stories (each with media, newest
// first), participants and media.
func loadEvent(ctx context.Context, q queryer, id string) (*models.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, notFoundIf(err, msgEventNotFound)
	}
	stories, err := queryStoriesWith(ctx, q,
		`SELECT `+storyColumns+` FROM stories s WHERE s.event_id = $1 ORDER BY s.created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	e.Stories = stories
	participants, err := participantsByOwner(ctx, q, eventParticipants, []string{id})
	if err != nil {
		return nil, err
	}
	e.Participants = participants[id]
	if e.Participants == nil {
		e.Participants = []models.Member{}
	}
	media, err := mediaByOwner(ctx, q, mediaOwnerEvent, []string{id})
	if err != nil {
		return nil, err
	}
	e.Media = media[id]
	if e.Media == nil {
		e.Media = []models.Media{}
	}
	return &e, nil
}

// eventListQuery turns the status/upcoming filters into a select. upcoming
// overrides status.
func eventListQuery(status, upcoming string, now time.Time) (string, []any) {
	var where []string
	var args []any
	switch {
	case upcoming == "true":
		args = append(args, now)
		where = append(where, fmt.Sprintf("e.date >= $%d", len(args)))
		where = append(where, "e.status IN ('upcoming', 'ongoing')")
	case strings.TrimSpace(status) != "":
		args = append(args, strings.TrimSpace(status))
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	query := `SELECT ` + eventColumns + `, (SELECT COUNT(*) FROM stories s WHERE s.event_id = e.id) FROM events e`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY e.date ASC`, args
}

// ListEvents returns events by date with story summaries and counts.
// URL: GET /api/events?status=...&upcoming=true
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	query, args := eventListQuery(q.Get("status"), q.Get("upcoming"), h.now().UTC())

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar eventos")
		return
	}
	items := []models.EventListItem{}
	ids := []string{}
	for rows.Next() {
		var count models.EventCounts
		e, err := scanEvent(rows, &count.Stories)
		if err != nil {
			_ = rows.Close()
			h.respondErr(w, r, err, "Erro ao buscar eventos")
			return
		}
		e.Count = &count
		items = append(items, models.EventListItem{Event: e, Stories: []models.StorySummary{}})
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		h.respondErr(w, r, err, "Erro ao buscar eventos")
		return
	}
	_ = rows.Close()

	summaries, err := h.storySummariesByEvent(ctx, ids)
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar eventos")
		return
	}
	for i := range items {
		if s := summaries[items[i].ID]; s != nil {
			items[i].Stories = s
		}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) storySummariesByEvent(ctx context.Context, eventIDs []string) (map[string][]models.StorySummary, error) {
	out := make(map[string][]models.StorySummary, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT s.event_id, s.id, s.title, s.cover_image
		 FROM stories s
		 WHERE s.event_id = ANY($1)
		 ORDER BY s.created_at DESC`, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("load story summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventID string
		var s models.StorySummary
		var cover sql.NullString
		if err := rows.Scan(&eventID, &s.ID, &s.Title, &cover); err != nil {
			return nil, fmt.Errorf("scan story summary: %w", err)
		}
		s.CoverImage = nullStringPtr(cover)
		out[eventID] = append(out[eventID], s)
	}
	return out, rows.Err()
}

// GetEvent returns the full event.
// URL: GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := loadEvent(r.Context(), h.db, pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar evento")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEvent inserts an event. title, date and createdBy are required;
// status defaults to upcoming.
// URL: POST /api/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if isBlank(in.Title) || in.Date == nil || in.Date.IsZero() || isBlank(in.CreatedBy) {
		writeError(w, http.StatusBadRequest, "Título, data e organizador são obrigatórios")
		return
	}
	status := models.EventStatusUpcoming
	if in.Status != nil && *in.Status != "" {
		status = *in.Status
	}
	if !models.ValidEventStatus(status) {
		writeError(w, http.StatusBadRequest, msgInvalidEventStatus)
		return
	}
	if err := validateMediaInput(in.Media); err != nil {
		h.respondErr(w, r, err, "Erro ao criar evento")
		return
	}

	ctx := r.Context()
	id := h.newID()
	var created *models.Event
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, title, description, location, date, cover_image, created_by, creator_id, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
			id, strings.TrimSpace(*in.Title), in.Description, in.Location, in.Date.UTC(), in.CoverImage,
			strings.TrimSpace(*in.CreatedBy), in.CreatorID, status)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if err := h.insertMedia(ctx, tx, mediaOwnerEvent, id, in.Media); err != nil {
			return err
		}
		if err := addParticipants(ctx, tx, eventParticipants, id, in.ParticipantIDs); err != nil {
			return err
		}
		created, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		h.respondErr(w, r, err, "Erro ao criar evento")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateEvent applies a partial update with the same replace-on-write policy
// for media and participants as stories.
// URL: PUT /api/events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in models.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if (in.Title != nil && isBlank(in.Title)) || (in.CreatedBy != nil && isBlank(in.CreatedBy)) {
		writeError(w, http.StatusBadRequest, "Título e organizador não podem ficar vazios")
		return
	}
	if in.Status != nil && !models.ValidEventStatus(*in.Status) {
		writeError(w, http.StatusBadRequest, msgInvalidEventStatus)
		return
	}
	if err := validateMediaInput(in.Media); err != nil {
		h.respondErr(w, r, err, "Erro ao atualizar evento")
		return
	}
	var date *time.Time
	if in.Date != nil && !in.Date.IsZero() {
		d := in.Date.UTC()
		date = &d
	}

	ctx := r.Context()
	id := pathVar(r, "id")
	var updated *models.Event
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE events AS e SET
				title = COALESCE($2, e.title),
				description = COALESCE($3, e.description),
				location = COALESCE($4, e.location),
				date = COALESCE($5, e.date),
				cover_image = COALESCE($6, e.cover_image),
				created_by = COALESCE($7, e.created_by),
				creator_id = COALESCE($8, e.creator_id),
				status = COALESCE($9, e.status),
				updated_at = NOW()
			 WHERE e.id = $1`,
			id, trimmed(in.Title), in.Description, in.Location, date, in.CoverImage,
			trimmed(in.CreatedBy), in.CreatorID, in.Status)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Message: msgEventNotFound}
		}
		if in.Media != nil {
			if err := h.replaceMedia(ctx, tx, mediaOwnerEvent, id, in.Media); err != nil {
				return err
			}
		}
		if in.ParticipantIDs != nil {
			if err := replaceParticipants(ctx, tx, eventParticipants, id, in.ParticipantIDs); err != nil {
				return err
			}
		}
		updated, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		h.respondErr(w, r, err, "Erro ao atualizar evento")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteEvent removes an event. Its stories survive with event_id cleared.
// URL: DELETE /api/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM events WHERE id = $1`, pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao remover evento")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, msgEventNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Evento removido com sucesso"})
}
