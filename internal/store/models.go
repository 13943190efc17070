package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type User struct {
	ID           string
	ExternalID   string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

type Team struct {
	ID             string
	Name           string
	CreatedByEmail string
	CreatedAt      time.Time
	// Role is the caller's membership role when the team was loaded
	// through a membership join; empty otherwise.
	Role string
}

type TeamMember struct {
	TeamID         string
	UserEmail      string
	Role           string
	CreatedByEmail string
	CreatedAt      time.Time
}

type TranscriptRule struct {
	ID             string
	TeamID         string
	Type           string
	Value          string
	Enabled        bool
	CreatedByEmail string
	CreatedAt      time.Time
}

// TeamShareRow is one (transcript, team) share grant visible to a user,
// joined with the team name for response annotation.
type TeamShareRow struct {
	TranscriptID int64
	TeamID       string
	TeamName     string
}

// Transcript is a read-only record owned by the external recording system.
// Only the share and visibility annotations attached at response time
// originate here.
type Transcript struct {
	ID                        int64
	RecordingStart            *time.Time
	Summary                   string
	Projects                  StringList
	Clients                   StringList
	MeetingType               string
	ExtractedParticipants     StringList
	VerifiedParticipantEmails StringList
}

type AudioRecording struct {
	ID              string
	ObjectKey       string
	Filename        string
	ContentType     string
	SizeBytes       int64
	UploadedByEmail string
	CreatedAt       time.Time
}

// StringList maps a jsonb string array column onto []string.
type StringList []string

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	return json.Unmarshal(raw, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
