package models

import "time"

const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// CounterID is the primary key of the single counters row.
const CounterID = "main"

const (
	CounterBrigas    = "brigas"
	CounterAcidentes = "acidentes"
	CounterPts       = "pts"
)

// ValidEventStatus reports whether s is one of the four event statuses.
func ValidEventStatus(s string) bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// ValidMediaType reports whether s is image, video or audio.
func ValidMediaType(s string) bool {
	switch s {
	case MediaTypeImage, MediaTypeVideo, MediaTypeAudio:
		return true
	}
	return false
}

// ValidCounterType reports whether s names one of the three tallies.
func ValidCounterType(s string) bool {
	switch s {
	case CounterBrigas, CounterAcidentes, CounterPts:
		return true
	}
	return false
}

type Member struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Nickname string        `json:"nickname"`
	Avatar   *string       `json:"avatar,omitempty"`
	Bio      *string       `json:"bio,omitempty"`
	Role     *string       `json:"role,omitempty"`
	JoinedAt time.Time     `json:"joinedAt"`
	Count    *MemberCounts `json:"_count,omitempty"`
}

type MemberCounts struct {
	StoriesAuthored int `json:"storiesAuthored"`
	StoriesIn       int `json:"storiesIn"`
	EventsCreated   int `json:"eventsCreated"`
	EventsIn        int `json:"eventsIn"`
}

// MemberDetail is a member with bounded previews of their stories and events.
type MemberDetail struct {
	Member
	StoriesAuthored []Story        `json:"storiesAuthored"`
	StoriesIn       []Story        `json:"storiesIn"`
	EventsCreated   []EventPreview `json:"eventsCreated"`
	EventsIn        []EventPreview `json:"eventsIn"`
}

type Media struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Caption   *string   `json:"caption,omitempty"`
	StoryID   *string   `json:"storyId,omitempty"`
	EventID   *string   `json:"eventId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Story struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Excerpt      *string   `json:"excerpt,omitempty"`
	CoverImage   *string   `json:"coverImage,omitempty"`
	Author       string    `json:"author"`
	AuthorID     *string   `json:"authorId,omitempty"`
	Participants []Member  `json:"participants,omitempty"`
	Media        []Media   `json:"media"`
	Tags         Tags      `json:"tags"`
	Featured     bool      `json:"featured"`
	EventID      *string   `json:"eventId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StorySummary is the lightweight story shape embedded in event listings.
type StorySummary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	CoverImage *string `json:"coverImage,omitempty"`
}

type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Location     *string      `json:"location,omitempty"`
	Date         time.Time    `json:"date"`
	CoverImage   *string      `json:"coverImage,omitempty"`
	CreatedBy    string       `json:"createdBy"`
	CreatorID    *string      `json:"creatorId,omitempty"`
	Status       string       `json:"status"`
	Participants []Member     `json:"participants"`
	Media        []Media      `json:"media"`
	Stories      []Story      `json:"stories"`
	Count        *EventCounts `json:"_count,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type EventCounts struct {
	Stories int `json:"stories"`
}

// EventListItem is the list representation: stories are reduced to summaries.
// Participants and media are not loaded; the shadowing fields keep them out of
// the JSON.
type EventListItem struct {
	Event
	Participants []Member       `json:"participants,omitempty"`
	Media        []Media        `json:"media,omitempty"`
	Stories      []StorySummary `json:"stories"`
}

// EventPreview is an event as shown on a member page, with its own media only.
type EventPreview struct {
	Event
	Participants []Member `json:"participants,omitempty"`
	Stories      []Story  `json:"stories,omitempty"`
}

type Counter struct {
	ID        string    `json:"id"`
	Brigas    int       `json:"brigas"`
	Acidentes int       `json:"acidentes"`
	Pts       int       `json:"pts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UploadedFile is one entry of the upload endpoint response.
type UploadedFile struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	OriginalName string `json:"originalName"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

type UploadResponse struct {
	Files []UploadedFile `json:"files"`
}
