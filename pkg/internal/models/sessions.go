package models

import "time"

type SessionStatus = string

const (
	SessionStatusScheduled = SessionStatus("scheduled")
	SessionStatusActive    = SessionStatus("active")
	SessionStatusCompleted = SessionStatus("completed")
	SessionStatusCancelled = SessionStatus("cancelled")
)

type Session struct {
	BaseModel

	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	CreatorID uint          `json:"creator_id"`

	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	// Duration in seconds, set together with EndedAt when the session completes.
	Duration *float64 `json:"duration"`

	Settings SessionSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`

	Participants []Participant `json:"participants"`
	Recordings   []Recording   `json:"recordings"`
	Messages     []ChatMessage `json:"messages"`
}

type SessionSettings struct {
	MaxParticipants int    `json:"max_participants"`
	EnableAudio     bool   `json:"enable_audio"`
	EnableVideo     bool   `json:"enable_video"`
	EnableChat      bool   `json:"enable_chat"`
	AutoTranscribe  bool   `json:"auto_transcribe"`
	Quality         string `json:"quality"`
	OutputFormat    string `json:"output_format"`
}

func (v Session) IsOver() bool {
	return v.Status == SessionStatusCompleted || v.Status == SessionStatusCancelled
}

type ParticipantRole = string

const (
	ParticipantRoleHost   = ParticipantRole("host")
	ParticipantRoleMember = ParticipantRole("participant")
)

type Participant struct {
	BaseModel

	SessionID uint            `json:"session_id"`
	AccountID *uint           `json:"account_id"`
	Name      string          `json:"name"`
	Role      ParticipantRole `json:"role"`

	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at"`
}
