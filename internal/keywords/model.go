package keywords

import "time"

// Keyword is owned by the backend store; the client holds a read-through
// cached copy mirrored only from acknowledged mutations.
type Keyword struct {
	ID           int       `json:"id"`
	Word         string    `json:"word"`
	TalkingPoint string    `json:"talking_point,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}
