package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/PortNumber53/depenados/internal/models"
	"github.com/lib/pq"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Media owner columns. Only these two values are ever interpolated into SQL.
const (
	mediaOwnerStory = "story_id"
	mediaOwnerEvent = "event_id"
)

type participantTable struct {
	table       string
	ownerColumn string
}

var (
	storyParticipants = participantTable{table: "story_participants", ownerColumn: "story_id"}
	eventParticipants = participantTable{table: "event_participants", ownerColumn: "event_id"}
)

const mediaColumns = `id, type, url, caption, story_id, event_id, created_at`

func scanMedia(rows *sql.Rows) (models.Media, error) {
	var m models.Media
	var caption, storyID, eventID sql.NullString
	if err := rows.Scan(&m.ID, &m.Type, &m.URL, &caption, &storyID, &eventID, &m.CreatedAt); err != nil {
		return models.Media{}, err
	}
	m.Caption = nullStringPtr(caption)
	m.StoryID = nullStringPtr(storyID)
	m.EventID = nullStringPtr(eventID)
	return m, nil
}

// mediaByOwner loads the media of every owner in ownerIDs, keyed by owner id,
// in insertion order.
func mediaByOwner(ctx context.Context, q queryer, ownerColumn string, ownerIDs []string) (map[string][]models.Media, error) {
	out := make(map[string][]models.Media, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE `+ownerColumn+` = ANY($1) ORDER BY position ASC, created_at ASC`,
		pq.Array(ownerIDs))
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		owner := m.StoryID
		if ownerColumn == mediaOwnerEvent {
			owner = m.EventID
		}
		if owner != nil {
			out[*owner] = append(out[*owner], m)
		}
	}
	return out, rows.Err()
}

func validateMediaInput(items []models.MediaInput) error {
	for _, m := range items {
		if !models.ValidMediaType(m.Type) || strings.TrimSpace(m.URL) == "" {
			return invalid(msgInvalidMediaType)
		}
	}
	return nil
}

func (h *Handler) insertMedia(ctx context.Context, q queryer, ownerColumn, ownerID string, items []models.MediaInput) error {
	for i, m := range items {
		_, err := q.ExecContext(ctx,
			`INSERT INTO media (id, type, url, caption, `+ownerColumn+`, position, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			h.newID(), m.Type, m.URL, m.Caption, ownerID, i)
		if err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
	}
	return nil
}

// replaceMedia purges the owner's media and inserts items in their place.
func (h *Handler) replaceMedia(ctx context.Context, q queryer, ownerColumn, ownerID string, items []models.MediaInput) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM media WHERE `+ownerColumn+` = $1`, ownerID); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return h.insertMedia(ctx, q, ownerColumn, ownerID, items)
}

func addParticipants(ctx context.Context, q queryer, pt participantTable, ownerID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO `+pt.table+` (`+pt.ownerColumn+`, member_id)
		 SELECT $1, UNNEST($2::text[]) ON CONFLICT DO NOTHING`,
		ownerID, pq.Array(memberIDs))
	if err != nil {
		return fmt.Errorf("insert participants: %w", err)
	}
	return nil
}

// replaceParticipants sets the participant set to exactly memberIDs.
func replaceParticipants(ctx context.Context, q queryer, pt participantTable, ownerID string, memberIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+pt.table+` WHERE `+pt.ownerColumn+` = $1`, ownerID); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	return addParticipants(ctx, q, pt, ownerID, memberIDs)
}

// participantsByOwner loads participants keyed by owner id, nickname ascending.
func participantsByOwner(ctx context.Context, q queryer, pt participantTable, ownerIDs []string) (map[string][]models.Member, error) {
	out := make(map[string][]models.Member, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx,
		`SELECT p.`+pt.ownerColumn+`, m.id, m.name, m.nickname, m.avatar, m.bio, m.role, m.joined_at
		 FROM `+pt.table+` p JOIN members m ON m.id = p.member_id
		 WHERE p.`+pt.ownerColumn+` = ANY($1)
		 ORDER BY m.nickname ASC`,
		pq.Array(ownerIDs))
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var owner string
		var m models.Member
		var avatar, bio, role sql.NullString
		if err := rows.Scan(&owner, &m.ID, &m.Name, &m.Nickname, &avatar, &bio, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		m.Avatar, m.Bio, m.Role = nullStringPtr(avatar), nullStringPtr(bio), nullStringPtr(role)
		out[owner] = append(out[owner], m)
	}
	return out, rows.Err()
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// inTx runs fn inside one transaction, rolling back on any error.
func (h *Handler) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
