package history

import (
	"context"
	"time"

	"github.com/OrFisher/real-time-speech-processor/internal/shared"
	"gorm.io/gorm"
)

// TranscriptLine is the local copy of one routed transcription event, kept
// for per-session review. Alerts are deliberately not archived.
type TranscriptLine struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"index;not null" json:"session_id"`
	SpeakerType string    `gorm:"not null" json:"speaker_type"`
	Text        string    `gorm:"not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&TranscriptLine{})
}

func (s *Store) Append(ctx context.Context, sessionID string, speaker shared.SpeakerType, text string) error {
	line := TranscriptLine{
		SessionID:   sessionID,
		SpeakerType: speaker.String(),
		Text:        text,
	}
	return s.db.WithContext(ctx).Create(&line).Error
}

// BySession returns a session's transcript lines in arrival order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]TranscriptLine, error) {
	var lines []TranscriptLine
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&lines).Error
	return lines, err
}

// Sessions lists the distinct session ids with archived transcript lines,
// most recent first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&TranscriptLine{}).
		Distinct("session_id").
		Order("session_id").
		Pluck("session_id", &ids).Error
	return ids, err
}
