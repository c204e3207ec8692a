package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// MoodRecord is one emotional check-in. At most one exists per user per
// calendar day; the composite unique index on (user_id, date) is the
// authoritative guard against concurrent double-creates.
type MoodRecord struct {
  ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID       uuid.UUID      `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_mood_record_user_date" json:"user_id"`
  Date         time.Time      `gorm:"not null;column:date;uniqueIndex:idx_mood_record_user_date" json:"date"`
  ScoreMood    int            `gorm:"not null;column:score_mood" json:"score_mood"`
  ScoreAnxiety int            `gorm:"not null;column:score_anxiety" json:"score_anxiety"`
  ScoreEnergy  int            `gorm:"not null;column:score_energy" json:"score_energy"`
  ScoreSleep   int            `gorm:"not null;column:score_sleep" json:"score_sleep"`
  ScoreStress  int            `gorm:"not null;column:score_stress" json:"score_stress"`
  Notes        string         `gorm:"type:text;column:notes" json:"notes,omitempty"`
  AIInsight    string         `gorm:"type:text;not null;column:ai_insight" json:"ai_insight"`
  AIFeatures   datatypes.JSON `gorm:"type:jsonb;column:ai_features" json:"ai_features,omitempty"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (MoodRecord) TableName() string {
  return "mood_record"
}

const (
  ScoreMin = 1
  ScoreMax = 5

  // Neutral midpoint used when the scoring model misbehaves.
  ScoreNeutral = 3
)

func ValidScore(s int) bool {
  return s >= ScoreMin && s <= ScoreMax
}

// DayOf normalizes a timestamp to local midnight, the granularity the
// per-user-per-day uniqueness contract is keyed on.
func DayOf(t time.Time) time.Time {
  return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
