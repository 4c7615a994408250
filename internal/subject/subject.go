// Package subject manages faculty-owned subjects. A subject cannot be
// deleted once a session references it.
package subject

import "time"

// Subject is a named, coded course owned by one faculty user. Codes are
// globally unique.
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	FacultyID string    `json:"facultyId"`
	CreatedAt time.Time `json:"createdAt"`
}
