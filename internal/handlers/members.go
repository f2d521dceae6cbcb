package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/PortNumber53/depenados/internal/models"
)

const memberColumns = `m.id, m.name, m.nickname, m.avatar, m.bio, m.role, m.joined_at`

const memberCountColumns = `
	(SELECT COUNT(*) FROM stories s WHERE s.author_id = m.id),
	(SELECT COUNT(*) FROM story_participants sp WHERE sp.member_id = m.id),
	(SELECT COUNT(*) FROM events e WHERE e.creator_id = m.id),
	(SELECT COUNT(*) FROM event_participants ep WHERE ep.member_id = m.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner, withCounts bool) (models.Member, error) {
	var m models.Member
	var avatar, bio, role sql.NullString
	dest := []any{&m.ID, &m.Name, &m.Nickname, &avatar, &bio, &role, &m.JoinedAt}
	var c models.MemberCounts
	if withCounts {
		dest = append(dest, &c.StoriesAuthored, &c.StoriesIn, &c.EventsCreated, &c.EventsIn)
	}
	if err := row.Scan(dest...); err != nil {
		return models.Member{}, err
	}
	m.Avatar, m.Bio, m.Role = nullStringPtr(avatar), nullStringPtr(bio), nullStringPtr(role)
	if withCounts {
		m.Count = &c
	}
	return m, nil
}

// ListMembers returns every member by nickname with relation counts.
// URL: GET /api/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(),
		`SELECT `+memberColumns+`,`+memberCountColumns+`
		 FROM members m
		 ORDER BY m.nickname ASC`)
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar membros")
		return
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows, true)
		if err != nil {
			h.respondErr(w, r, err, "Erro ao buscar membros")
			return
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		h.respondErr(w, r, err, "Erro ao buscar membros")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// GetMember returns the member with bounded previews of their stories and events.
// URL: GET /api/members/{id}
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	detail, err := h.loadMemberDetail(r.Context(), pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao buscar membro")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) loadMemberDetail(ctx context.Context, id string) (*models.MemberDetail, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+`,`+memberCountColumns+`
		 FROM members m
		 WHERE m.id = $1`, id)
	m, err := scanMember(row, true)
	if err != nil {
		return nil, notFoundIf(err, msgMemberNotFound)
	}
	detail := &models.MemberDetail{Member: m}

	if detail.StoriesAuthored, err = h.queryStories(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 WHERE s.author_id = $1
		 ORDER BY s.created_at DESC LIMIT 5`, id); err != nil {
		return nil, err
	}
	if detail.StoriesIn, err = h.queryStories(ctx,
		`SELECT `+storyColumns+` FROM stories s
		 JOIN story_participants sp ON sp.story_id = s.id
		 WHERE sp.member_id = $1
		 ORDER BY s.created_at DESC LIMIT 10`, id); err != nil {
		return nil, err
	}
	if detail.EventsCreated, err = h.queryEventPreviews(ctx,
		`SELECT `+eventColumns+` FROM events e
		 WHERE e.creator_id = $1
		 ORDER BY e.date DESC LIMIT 5`, id); err != nil {
		return nil, err
	}
	if detail.EventsIn, err = h.queryEventPreviews(ctx,
		`SELECT `+eventColumns+` FROM events e
		 JOIN event_participants ep ON ep.event_id = e.id
		 WHERE ep.member_id = $1
		 ORDER BY e.date DESC LIMIT 10`, id); err != nil {
		return nil, err
	}
	return detail, nil
}

// CreateMember inserts a member. name and nickname are required.
// URL: POST /api/members
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var in models.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if isBlank(in.Name) || isBlank(in.Nickname) {
		writeError(w, http.StatusBadRequest, "Nome e apelido são obrigatórios")
		return
	}

	row := h.db.QueryRowContext(r.Context(),
		`INSERT INTO members AS m (id, name, nickname, avatar, bio, role, joined_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 RETURNING `+memberColumns,
		h.newID(), strings.TrimSpace(*in.Name), strings.TrimSpace(*in.Nickname), in.Avatar, in.Bio, in.Role)
	m, err := scanMember(row, false)
	if err != nil {
		h.respondErr(w, r, memberWriteErr(err), "Erro ao criar membro")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMember applies a partial update; omitted fields keep their value.
// URL: PUT /api/members/{id}
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var in models.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if (in.Name != nil && isBlank(in.Name)) || (in.Nickname != nil && isBlank(in.Nickname)) {
		writeError(w, http.StatusBadRequest, "Nome e apelido não podem ficar vazios")
		return
	}

	row := h.db.QueryRowContext(r.Context(),
		`UPDATE members AS m SET
			name = COALESCE($2, m.name),
			nickname = COALESCE($3, m.nickname),
			avatar = COALESCE($4, m.avatar),
			bio = COALESCE($5, m.bio),
			role = COALESCE($6, m.role)
		 WHERE m.id = $1
		 RETURNING `+memberColumns,
		pathVar(r, "id"), trimmed(in.Name), trimmed(in.Nickname), in.Avatar, in.Bio, in.Role)
	m, err := scanMember(row, false)
	if err != nil {
		h.respondErr(w, r, notFoundIf(memberWriteErr(err), msgMemberNotFound), "Erro ao atualizar membro")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMember removes a member. Participations go with it; stories and
// events they authored or created keep their free-text names and lose the link.
// URL: DELETE /api/members/{id}
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM members WHERE id = $1`, pathVar(r, "id"))
	if err != nil {
		h.respondErr(w, r, err, "Erro ao deletar membro")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, msgMemberNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func memberWriteErr(err error) error {
	if isUniqueViolation(err, "members_nickname_key") {
		return &ConflictError{Message: msgNicknameTaken}
	}
	if err != nil {
		return fmt.Errorf("write member: %w", err)
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// trimmed returns s with surrounding whitespace removed, preserving nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
