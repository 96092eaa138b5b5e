package sessionlog

import "time"

// EndReason values recorded at teardown.
const (
	ReasonDisconnect    = "disconnect"
	ReasonLimit         = "limit"
	ReasonStudentEnded  = "student_ended"
	ReasonError         = "error"
	ReasonUpstreamError = "upstream_error"
)

// Record is one tutoring session. The start fields are written once when
// the browser connects; the end fields stay null until teardown.
type Record struct {
	ID         string `gorm:"primaryKey" json:"id"`
	StartedAt  time.Time
	ClientHash string `gorm:"index"`

	ConsentGiven bool
	ConsentAt    *time.Time

	EndedReason     *string
	DurationSeconds *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Record) TableName() string { return "sessions" }

// Progress is a learning-milestone sub-record attached to a session,
// written when the model calls the log_progress tool.
type Progress struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"not null;index"`
	Topic     string `gorm:"not null"`
	Status    string `gorm:"not null"`
	CreatedAt time.Time
}

func (Progress) TableName() string { return "session_progress" }
