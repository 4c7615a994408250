// Package session is the registry for scheduled class meetings: creation,
// liveness, deletion and code-based joining.
package session

import "time"

// Status is the liveness state of a session. Inactive is terminal for
// attendance purposes but the session stays visible for reporting.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// Session is one scheduled class meeting tracked for attendance.
type Session struct {
	ID              string    `json:"id"`
	SubjectID       string    `json:"subjectId"`
	SubjectName     string    `json:"subjectName"`
	SectionName     string    `json:"sectionName"`
	Department      string    `json:"department"`
	ScheduledTime   time.Time `json:"scheduledTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Description     string    `json:"description"`
	FacultyID       string    `json:"facultyId"`
	UniqueCode      string    `json:"uniqueCode"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Active reports whether the session still accepts attendance submissions.
func (s Session) Active() bool { return s.Status == StatusActive }

// RosterRow is one student's attendance entry for a session.
type RosterRow struct {
	StudentID    string    `json:"studentId"`
	StudentName  string    `json:"studentName"`
	StudentEmail string    `json:"studentEmail"`
	Status       string    `json:"status"`
	MarkedAt     time.Time `json:"markedAt"`
	MarkCount    int       `json:"markCount"`
}
