package models

import "time"

// Request bodies shared by the API handlers and the client.
//
// Pointer fields distinguish "omitted" from "set". Media and ParticipantIDs
// carry no omitempty: a nil slice encodes as null and leaves the relation
// untouched, while an empty slice encodes as [] and clears it.

type MemberInput struct {
	Name     *string `json:"name,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Role     *string `json:"role,omitempty"`
}

type MediaInput struct {
	Type    string  `json:"type"`
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

type EventInput struct {
	Title          *string      `json:"title,omitempty"`
	Description    *string      `json:"description,omitempty"`
	Location       *string      `json:"location,omitempty"`
	Date           *time.Time   `json:"date,omitempty"`
	CoverImage     *string      `json:"coverImage,omitempty"`
	CreatedBy      *string      `json:"createdBy,omitempty"`
	CreatorID      *string      `json:"creatorId,omitempty"`
	Status         *string      `json:"status,omitempty"`
	ParticipantIDs []string     `json:"participantIds"`
	Media          []MediaInput `json:"media"`
}

// StoryInput is the create/update body. A nil Tags leaves the stored tags
// alone; a pointer to an empty list clears them.
type StoryInput struct {
	Title          *string      `json:"title,omitempty"`
	Content        *string      `json:"content,omitempty"`
	Excerpt        *string      `json:"excerpt,omitempty"`
	CoverImage     *string      `json:"coverImage,omitempty"`
	Author         *string      `json:"author,omitempty"`
	AuthorID       *string      `json:"authorId,omitempty"`
	EventID        *string      `json:"eventId,omitempty"`
	Tags           *Tags        `json:"tags,omitempty"`
	Featured       *bool        `json:"featured,omitempty"`
	ParticipantIDs []string     `json:"participantIds"`
	Media          []MediaInput `json:"media"`
}

// CounterPatch is the PATCH /api/counters body. Action defaults to increment.
type CounterPatch struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
}

const (
	CounterActionIncrement = "increment"
	CounterActionDecrement = "decrement"
)

// CounterValues is the PUT /api/counters body; omitted fields are left alone.
type CounterValues struct {
	Brigas    *int `json:"brigas,omitempty"`
	Acidentes *int `json:"acidentes,omitempty"`
	Pts       *int `json:"pts,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
