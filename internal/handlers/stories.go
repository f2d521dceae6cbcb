package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PortNumber53/depenados/internal/models"
)

const storyColumns = `s.id, s.title, s.content, s.excerpt, s.cover_image, s.author, s.author_id, s.tags, s.featured, s.event_id, s.created_at, s.updated_at`

func scanStory(row rowScanner) (models.Story, error) {
	var s models.Story
	var excerpt, cover, authorID, eventID sql.NullString
	if err := row.Scan(&s.ID, &s.Title, &s.Content, &excerpt, &cover, &s.Author, &authorID,
		&s.Tags, &s.Featured, &eventID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return models.Story{}, err
	}
	s.Excerpt, s.CoverImage = nullStringPtr(excerpt), nullStringPtr(cover)
	s.AuthorID, s.EventID = nullStringPtr(authorID), nullStringPtr(eventID)
	if s.Tags == nil {
		s.Tags = models.Tags{}
	}
	s.Media = []models.Media{}
	return s, nil
}

// queryStories runs a story select (aliased s) and attaches each story's media.
func (h *Handler) queryStories(ctx context.Context, query string, args ...any) ([]models.Story, error) {
	return queryStoriesWith(ctx, h.db, query, args...)
}

func queryStoriesWith(ctx context.Context, q queryer, query string, args ...any) ([]models.Story, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	stories := []models.Story{}
	ids := []string{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	media, err := mediaByOwner(ctx, q, mediaOwnerStory, ids)
	if err != nil {
		return nil, err
	}
	for i := range stories {
		if m := media[stories[i].ID]; m != nil {
			stories[i].Media = m
		}
	}
	return stories, nil
}

// loadStory returns one story with its media and participants.
func loadStory(ctx context.Context, q queryer, id string) (*models.Story, error) {
	s, err := scanStory(q.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories s WHERE s.id = $1`, id))
	if err != nil {
		return nil, notFoundIf(err, msgStoryNotFound)
	}
	media, err := mediaByOwner(ctx, q, mediaOwnerStory, []string{id})
	if err != nil {
		return nil, err
	}
	if m := media[id]; m != nil {
		s.Media = m
	}
	participants, err := participantsByOwner(ctx, q, storyParticipants, []string{id})
	if err != nil {
		return nil, err
	}
	s.Participants = participants[id]
	return &s, nil
}

// storyListQuery turns the featured/search filters into a select.
func storyListQuery(featured, search string) (string, []any) {
	var where []string
	var args []any
	if b, err := strconv.ParseBool(featured); err == nil {
		args = append(args, b)
		where = append(where, fmt.Sprintf("s.featured = $%d", len(args)))
	}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(s.title ILIKE $%d OR s.content ILIKE $%d OR s.author ILIKE $%d)", n, n, n))
	}
	query := `SELECT ` + storyColumns + ` FROM stories s`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY s.created_at DESC`, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListStories returns stories newest first, each with its media.
// URL: GET /api/stories?featured=true&search=...
func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, args := storyListQuery(q.Get("featured"), q.Get("search"))
	stories, err := h.queryStories(r.Context(), query, args...)
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar histórias")
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

// GetStory returns one story with media and participants.
// URL: GET /api/stories/{id}
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	s, err := loadStory(r.Context(), h.db, pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar história")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// CreateStory inserts a story with its nested media and participants and
// returns the stored representation.
// URL: POST /api/stories
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var in models.StoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if isBlank(in.Title) || isBlank(in.Content) || isBlank(in.Author) {
		writeError(w, http.StatusBadRequest, "Título, conteúdo e autor são obrigatórios")
		return
	}
	if err := validateMediaInput(in.Media); err != nil {
		h.respondErr(w, r, err, "Erro ao criar história")
		return
	}

	ctx := r.Context()
	id := h.newID()
	featured := in.Featured != nil && *in.Featured
	var created *models.Story
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stories (id, title, content, excerpt, cover_image, author, author_id, tags, featured, event_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
			id, *in.Title, *in.Content, in.Excerpt, in.CoverImage, strings.TrimSpace(*in.Author),
			in.AuthorID, tagList(in.Tags), featured, in.EventID)
		if err != nil {
			return fmt.Errorf("insert story: %w", err)
		}
		if err := h.insertMedia(ctx, tx, mediaOwnerStory, id, in.Media); err != nil {
			return err
		}
		if err := addParticipants(ctx, tx, storyParticipants, id, in.ParticipantIDs); err != nil {
			return err
		}
		created, err = loadStory(ctx, tx, id)
		return err
	})
	if err != nil {
		h.respondErr(w, r, err, "Erro ao criar história")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateStory applies a partial update. A supplied media array replaces all
// existing media; supplied participantIds replace the participant set.
// URL: PUT /api/stories/{id}
func (h *Handler) UpdateStory(w http.ResponseWriter, r *http.Request) {
	var in models.StoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if (in.Title != nil && isBlank(in.Title)) || (in.Content != nil && isBlank(in.Content)) || (in.Author != nil && isBlank(in.Author)) {
		writeError(w, http.StatusBadRequest, "Título, conteúdo e autor não podem ficar vazios")
		return
	}
	if err := validateMediaInput(in.Media); err != nil {
		h.respondErr(w, r, err, "Erro ao atualizar história")
		return
	}

	ctx := r.Context()
	id := pathVar(r, "id")
	var updated *models.Story
	err := h.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE stories AS s SET
				title = COALESCE($2, s.title),
				content = COALESCE($3, s.content),
				excerpt = COALESCE($4, s.excerpt),
				cover_image = COALESCE($5, s.cover_image),
				author = COALESCE($6, s.author),
				author_id = COALESCE($7, s.author_id),
				tags = CASE WHEN $8 THEN $9 ELSE s.tags END,
				featured = COALESCE($10, s.featured),
				event_id = COALESCE($11, s.event_id),
				updated_at = NOW()
			 WHERE s.id = $1`,
			id, in.Title, in.Content, in.Excerpt, in.CoverImage, trimmed(in.Author), in.AuthorID,
			in.Tags != nil, tagList(in.Tags), in.Featured, in.EventID)
		if err != nil {
			return fmt.Errorf("update story: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Message: msgStoryNotFound}
		}
		if in.Media != nil {
			if err := h.replaceMedia(ctx, tx, mediaOwnerStory, id, in.Media); err != nil {
				return err
			}
		}
		if in.ParticipantIDs != nil {
			if err := replaceParticipants(ctx, tx, storyParticipants, id, in.ParticipantIDs); err != nil {
				return err
			}
		}
		updated, err = loadStory(ctx, tx, id)
		return err
	})
	if err != nil {
		h.respondErr(w, r, err, "Erro ao atualizar história")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteStory removes a story; its media and participations go with it.
// URL: DELETE /api/stories/{id}
func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM stories WHERE id = $1`, pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao remover história")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, msgStoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "História removida com sucesso"})
}

func tagList(t *models.Tags) models.Tags {
	if t == nil {
		return nil
	}
	return *t
}
